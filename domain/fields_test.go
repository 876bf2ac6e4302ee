package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFieldMap_JSONPreservesOrderAndKinds(t *testing.T) {
	raw := `{"z.last":"x","a.first":1.5,"flag":true,"cleared":null,"address":{"city":"Ibombo","line":["1","2"]}}`

	var m FieldMap
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	require.Equal(t, []string{"z.last", "a.first", "flag", "cleared", "address"}, m.Keys())

	v, _ := m.Get("a.first")
	require.Equal(t, KindNumber, v.Kind())
	v, _ = m.Get("cleared")
	require.True(t, v.IsNull())
	require.False(t, m.Has("missing"))

	addr, _ := m.Get("address")
	obj, ok := addr.AsObject()
	require.True(t, ok)
	line, _ := obj.Get("line")
	require.Equal(t, KindList, line.Kind())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	require.JSONEq(t, raw, string(out))
	require.Equal(t, raw, string(out))
}

func TestFieldMap_NullDecodesToEmpty(t *testing.T) {
	var m FieldMap
	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	require.Equal(t, 0, m.Len())

	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
}

func TestFieldMap_MergeAndDelete(t *testing.T) {
	m := NewFieldMap("a", "1", "b", "2")
	m.Merge(NewFieldMap("b", "3", "c", "4"))
	require.Equal(t, []string{"a", "b", "c"}, m.Keys())
	b, _ := m.Get("b")
	require.Equal(t, String("3"), b)

	m.Delete("a")
	m.Delete("missing")
	require.Equal(t, []string{"b", "c"}, m.Keys())
}

func TestFieldMap_ValueAndScan(t *testing.T) {
	m := NewFieldMap("child_dob", "2020-01-01", "child_age_days", 100)

	v, err := m.Value()
	require.NoError(t, err)

	var scanned FieldMap
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	require.True(t, m.Equal(scanned))
	require.Equal(t, m.Keys(), scanned.Keys())

	require.NoError(t, scanned.Scan(nil))
	require.Equal(t, 0, scanned.Len())
	require.Error(t, scanned.Scan(42))
}

func TestFieldValue_AsDate(t *testing.T) {
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	d, ok := String("2020-01-01").AsDate()
	require.True(t, ok)
	require.True(t, want.Equal(d))

	d, ok = String("2020-01-01T15:04:05Z").AsDate()
	require.True(t, ok)
	require.True(t, want.Equal(d))

	d, ok = Date(time.Date(2020, 1, 1, 18, 0, 0, 0, time.UTC)).AsDate()
	require.True(t, ok)
	require.True(t, want.Equal(d))

	_, ok = String("not a date").AsDate()
	require.False(t, ok)
	_, ok = Number(3).AsDate()
	require.False(t, ok)
}
