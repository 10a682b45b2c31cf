package metabridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrimitiveValueString(t *testing.T) {
	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		value PropertyValue
		want  string
	}{
		{"bool", BoolValue(true), "true"},
		{"int", IntValue(42), "42"},
		{"long", LongValue(-7), "-7"},
		{"string", StringValue("hello"), "hello"},
		{"date", DateValue(when), when.Format(time.RFC3339)},
		{"enum symbol", EnumValue{TypeName: "Status", Symbol: "DRAFT", Ordinal: 0}, "DRAFT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestMapValueStringSortsKeys(t *testing.T) {
	v := MapValue{Entries: map[string]PropertyValue{
		"b": IntValue(2),
		"a": IntValue(1),
		"c": IntValue(3),
	}}
	// Deterministic rendering regardless of map iteration order.
	assert.Equal(t, v.String(), v.String())
	assert.Less(t, indexOf(v.String(), "a"), indexOf(v.String(), "b"))
	assert.Less(t, indexOf(v.String(), "b"), indexOf(v.String(), "c"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
