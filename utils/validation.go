package utils

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"example.com/backstage/analytics/domain"
)

var (
	validate = newValidator()

	eventTypePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_.-]*$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		return IsValidEventType(fl.Field().String())
	})
	return v
}

// ValidateStruct validates a struct using validation tags
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IsValidEventType checks an event type identifier, e.g. BIRTH or
// TENNIS_CLUB_MEMBERSHIP
func IsValidEventType(eventType string) bool {
	return eventTypePattern.MatchString(eventType)
}

// ValidateEventDocument checks the identifying fields of a document and its
// actions before anything is written
func ValidateEventDocument(doc domain.EventDocument) error {
	if err := validate.Struct(doc); err != nil {
		return err
	}
	if err := validate.Var(string(doc.Type), "event_type"); err != nil {
		return fmt.Errorf("invalid event type %q", doc.Type)
	}

	seen := make(map[string]struct{}, len(doc.Actions))
	for _, action := range doc.Actions {
		if _, dup := seen[action.ID]; dup {
			return fmt.Errorf("duplicate action id %s", action.ID)
		}
		seen[action.ID] = struct{}{}
	}
	return nil
}
