package eventconfig

import (
	"fmt"

	"example.com/backstage/analytics/domain"
)

// DerivedKind names a computation that produces a precalculated field
type DerivedKind string

// DerivedKind constants
const (
	// DerivedAgeInDays is the whole number of days between a date field and
	// the action's creation time.
	DerivedAgeInDays DerivedKind = "age_in_days"
)

// FieldConfig describes one declaration or annotation field
type FieldConfig struct {
	ID        string `yaml:"id" json:"id"`
	Type      string `yaml:"type,omitempty" json:"type,omitempty"`
	Analytics bool   `yaml:"analytics" json:"analytics"`
}

// Page groups declaration fields as the form presents them
type Page struct {
	ID     string        `yaml:"id" json:"id"`
	Fields []FieldConfig `yaml:"fields" json:"fields"`
}

// ActionConfig lists the annotation fields of one action type
type ActionConfig struct {
	Type       domain.ActionType `yaml:"type" json:"type"`
	Annotation []FieldConfig     `yaml:"annotation" json:"annotation"`
}

// DerivedField is a precalculated declaration field
type DerivedField struct {
	ID        string      `yaml:"id" json:"id"`
	Kind      DerivedKind `yaml:"kind" json:"kind"`
	Source    string      `yaml:"source" json:"source"`
	Analytics bool        `yaml:"analytics" json:"analytics"`
}

// EventConfig is the analytics view of one event type's configuration
type EventConfig struct {
	ID          domain.EventType `yaml:"id" json:"id"`
	Declaration []Page           `yaml:"declaration" json:"declaration"`
	Actions     []ActionConfig   `yaml:"actions" json:"actions"`
	Derived     []DerivedField   `yaml:"derived" json:"derived"`

	declarationFields map[string]struct{}
	annotationFields  map[domain.ActionType]map[string]struct{}
}

// Validate checks the configuration is usable
func (c *EventConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("event config: id is required")
	}
	for _, d := range c.Derived {
		if d.ID == "" || d.Source == "" {
			return fmt.Errorf("event config %s: derived field needs id and source", c.ID)
		}
		if d.Kind != DerivedAgeInDays {
			return fmt.Errorf("event config %s: unknown derived kind %q", c.ID, d.Kind)
		}
	}
	return nil
}

// flatten builds the analytics-eligible field sets
func (c *EventConfig) flatten() {
	c.declarationFields = make(map[string]struct{})
	for _, page := range c.Declaration {
		for _, field := range page.Fields {
			if field.Analytics {
				c.declarationFields[field.ID] = struct{}{}
			}
		}
	}
	for _, d := range c.Derived {
		if d.Analytics {
			c.declarationFields[d.ID] = struct{}{}
		}
	}

	c.annotationFields = make(map[domain.ActionType]map[string]struct{})
	for _, action := range c.Actions {
		fields, ok := c.annotationFields[action.Type]
		if !ok {
			fields = make(map[string]struct{})
			c.annotationFields[action.Type] = fields
		}
		for _, field := range action.Annotation {
			if field.Analytics {
				fields[field.ID] = struct{}{}
			}
		}
	}
}

// DeclarationFields returns the analytics-eligible declaration field ids
func (c *EventConfig) DeclarationFields() map[string]struct{} {
	return c.declarationFields
}

// IsDeclarationField reports whether a declaration field is analytics-eligible
func (c *EventConfig) IsDeclarationField(id string) bool {
	_, ok := c.declarationFields[id]
	return ok
}

// AnnotationFields returns the analytics-eligible annotation fields for an
// action type; ok is false when the event config has no config for it.
func (c *EventConfig) AnnotationFields(actionType domain.ActionType) (map[string]struct{}, bool) {
	fields, ok := c.annotationFields[actionType]
	return fields, ok
}
