package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// DateLayout is the wire format of date-only field values
const DateLayout = "2006-01-02"

// Kind is the closed set of value kinds a declaration or annotation field can hold
type Kind uint8

// Kind constants
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindObject
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// FieldValue is a single field value. The zero value is an explicit null,
// which records that a field was cleared.
type FieldValue struct {
	kind Kind
	str  string
	num  float64
	b    bool
	date time.Time
	obj  *FieldMap
	list []FieldValue
}

// Null returns an explicit null value
func Null() FieldValue { return FieldValue{} }

// String returns a string value
func String(s string) FieldValue { return FieldValue{kind: KindString, str: s} }

// Number returns a numeric value
func Number(n float64) FieldValue { return FieldValue{kind: KindNumber, num: n} }

// Bool returns a boolean value
func Bool(b bool) FieldValue { return FieldValue{kind: KindBool, b: b} }

// Date returns a date value truncated to the day in UTC
func Date(t time.Time) FieldValue {
	y, m, d := t.UTC().Date()
	return FieldValue{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Object returns a nested object value
func Object(m FieldMap) FieldValue {
	c := m.Clone()
	return FieldValue{kind: KindObject, obj: &c}
}

// List returns a list value
func List(values ...FieldValue) FieldValue {
	return FieldValue{kind: KindList, list: append([]FieldValue(nil), values...)}
}

// Kind returns the value kind
func (v FieldValue) Kind() Kind { return v.kind }

// IsNull reports whether the value is an explicit null
func (v FieldValue) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload
func (v FieldValue) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload
func (v FieldValue) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean payload
func (v FieldValue) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsObject returns the nested object payload
func (v FieldValue) AsObject() (FieldMap, bool) {
	if v.kind != KindObject || v.obj == nil {
		return FieldMap{}, v.kind == KindObject
	}
	return v.obj.Clone(), true
}

// AsList returns the list payload
func (v FieldValue) AsList() ([]FieldValue, bool) {
	return append([]FieldValue(nil), v.list...), v.kind == KindList
}

// AsDate interprets the value as a calendar date. Date values and strings in
// either date-only or RFC 3339 form are accepted.
func (v FieldValue) AsDate() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.date, true
	case KindString:
		if t, err := time.Parse(DateLayout, v.str); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, v.str); err == nil {
			return Date(t).date, true
		}
	}
	return time.Time{}, false
}

// Equal reports deep equality of two values
func (v FieldValue) Equal(o FieldValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.date.Equal(o.date)
	case KindObject:
		var a, b FieldMap
		if v.obj != nil {
			a = *v.obj
		}
		if o.obj != nil {
			b = *o.obj
		}
		return a.Equal(b)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON implements json.Marshaler
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.date.Format(DateLayout))
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return v.obj.MarshalJSON()
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported field value kind %s", v.kind)
}

// UnmarshalJSON implements json.Unmarshaler. Dates arrive as strings and are
// kept as strings; AsDate interprets them on demand.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	val, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// FieldMap is an insertion-ordered mapping of field id to value. The zero
// value is an empty map ready to use.
type FieldMap struct {
	keys   []string
	values map[string]FieldValue
}

// NewFieldMap builds a map from alternating key/value pairs given in order
func NewFieldMap(pairs ...any) FieldMap {
	var m FieldMap
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		switch val := pairs[i+1].(type) {
		case FieldValue:
			m.Set(key, val)
		case string:
			m.Set(key, String(val))
		case float64:
			m.Set(key, Number(val))
		case int:
			m.Set(key, Number(float64(val)))
		case bool:
			m.Set(key, Bool(val))
		case time.Time:
			m.Set(key, Date(val))
		case FieldMap:
			m.Set(key, Object(val))
		case nil:
			m.Set(key, Null())
		}
	}
	return m
}

// Len returns the number of fields
func (m FieldMap) Len() int { return len(m.keys) }

// Keys returns the field ids in insertion order
func (m FieldMap) Keys() []string { return append([]string(nil), m.keys...) }

// Get returns the value for a field id
func (m FieldMap) Get(key string) (FieldValue, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether the field id is present
func (m FieldMap) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Set assigns a value. A new key is appended; an existing key keeps its position.
func (m *FieldMap) Set(key string, value FieldValue) {
	if m.values == nil {
		m.values = make(map[string]FieldValue)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes a field id
func (m *FieldMap) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Merge overlays other onto m: values from other replace values for the same
// field id, everything else is kept.
func (m *FieldMap) Merge(other FieldMap) {
	for _, key := range other.keys {
		m.Set(key, other.values[key])
	}
}

// Clone returns an independent copy
func (m FieldMap) Clone() FieldMap {
	if len(m.keys) == 0 {
		return FieldMap{}
	}
	c := FieldMap{
		keys:   append([]string(nil), m.keys...),
		values: make(map[string]FieldValue, len(m.values)),
	}
	for k, v := range m.values {
		c.values[k] = v
	}
	return c
}

// Range calls fn for every field in order until fn returns false
func (m FieldMap) Range(fn func(key string, value FieldValue) bool) {
	for _, key := range m.keys {
		if !fn(key, m.values[key]) {
			return
		}
	}
}

// Filter returns the fields for which keep returns true, in order
func (m FieldMap) Filter(keep func(key string) bool) FieldMap {
	var out FieldMap
	for _, key := range m.keys {
		if keep(key) {
			out.Set(key, m.values[key])
		}
	}
	return out
}

// Equal reports whether both maps hold the same fields and values. Order is
// not compared.
func (m FieldMap) Equal(o FieldMap) bool {
	if len(m.keys) != len(o.keys) {
		return false
	}
	for key, v := range m.values {
		ov, ok := o.values[key]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler, preserving field order
func (m FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := m.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving field order. A JSON
// null decodes to an empty map.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = FieldMap{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("field map: expected object, got %v", tok)
	}
	obj, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*m = obj
	return nil
}

// Value implements driver.Valuer
func (m FieldMap) Value() (driver.Value, error) {
	b, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *FieldMap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = FieldMap{}
		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		return m.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("field map: cannot scan %T", src)
}

// GormDataType implements schema.GormDataTypeInterface
func (FieldMap) GormDataType() string { return "json" }

// GormDBDataType implements migrator.GormDBDataTypeInterface
func (FieldMap) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "sqlite":
		return "JSON"
	}
	return ""
}

func decodeValue(dec *json.Decoder) (FieldValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return FieldValue{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (FieldValue, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return FieldValue{}, fmt.Errorf("field value: %w", err)
		}
		return Number(f), nil
	case json.Delim:
		switch t {
		case '{':
			obj, err := decodeObject(dec)
			if err != nil {
				return FieldValue{}, err
			}
			return FieldValue{kind: KindObject, obj: &obj}, nil
		case '[':
			var items []FieldValue
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return FieldValue{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return FieldValue{}, err
			}
			return FieldValue{kind: KindList, list: items}, nil
		}
	}
	return FieldValue{}, fmt.Errorf("field value: unexpected token %v", tok)
}

// decodeObject reads object members after the opening brace, including the
// closing brace.
func decodeObject(dec *json.Decoder) (FieldMap, error) {
	var m FieldMap
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return FieldMap{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return FieldMap{}, fmt.Errorf("field map: expected key, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return FieldMap{}, err
		}
		m.Set(key, val)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return FieldMap{}, err
	}
	return m, nil
}
