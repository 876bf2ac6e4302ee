package projections

import (
	"time"

	"example.com/backstage/analytics/domain"
	"example.com/backstage/analytics/eventconfig"
)

// withDerivedFields returns the declaration with the configured derived
// fields computed as of the action. A derived field whose source is missing
// or unparseable is left out.
func withDerivedFields(declaration domain.FieldMap, rules []eventconfig.DerivedField, at time.Time) domain.FieldMap {
	if len(rules) == 0 {
		return declaration
	}
	out := declaration.Clone()
	for _, rule := range rules {
		source, ok := declaration.Get(rule.Source)
		if !ok {
			continue
		}
		switch rule.Kind {
		case eventconfig.DerivedAgeInDays:
			if days, ok := ageInDays(source, at); ok {
				out.Set(rule.ID, domain.Number(float64(days)))
			}
		}
	}
	return out
}

const secondsPerDay = 24 * 60 * 60

// ageInDays counts whole days from a date value to at. Unix seconds are used
// because time.Duration saturates after about 292 years.
func ageInDays(value domain.FieldValue, at time.Time) (int, bool) {
	date, ok := value.AsDate()
	if !ok || at.IsZero() {
		return 0, false
	}
	return int((at.UTC().Unix() - date.UTC().Unix()) / secondsPerDay), true
}
