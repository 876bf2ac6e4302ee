package projections

import (
	"fmt"
	"strings"

	"example.com/backstage/analytics/domain"
)

const (
	fieldSeparator     = "."
	sanitizedSeparator = "_"
)

// SanitizeKey replaces every field separator in a field id so the key can be
// stored as a flat column or JSON property name
func SanitizeKey(key string) string {
	return strings.ReplaceAll(key, fieldSeparator, sanitizedSeparator)
}

// DesanitizeKey reverses SanitizeKey for field ids that contained no
// underscore before sanitization. Ids mixing both characters cannot be
// recovered from the key alone and need the event config.
func DesanitizeKey(key string) string {
	return strings.ReplaceAll(key, sanitizedSeparator, fieldSeparator)
}

// SanitizeFieldMap returns a copy of m with every key sanitized, including
// keys of nested objects. Insertion order is kept.
func SanitizeFieldMap(m domain.FieldMap) (domain.FieldMap, error) {
	var out domain.FieldMap
	origin := make(map[string]string, m.Len())

	var err error
	m.Range(func(key string, value domain.FieldValue) bool {
		sanitized := SanitizeKey(key)
		if prev, ok := origin[sanitized]; ok {
			err = fmt.Errorf("%w: %q and %q both map to %q", ErrKeyCollision, prev, key, sanitized)
			return false
		}
		origin[sanitized] = key

		if obj, isObj := value.AsObject(); isObj {
			nested, nestedErr := SanitizeFieldMap(obj)
			if nestedErr != nil {
				err = fmt.Errorf("field %s: %w", key, nestedErr)
				return false
			}
			value = domain.Object(nested)
		}
		out.Set(sanitized, value)
		return true
	})
	if err != nil {
		return domain.FieldMap{}, err
	}
	return out, nil
}
