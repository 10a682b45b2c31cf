package metabridge

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"
)

// PropertyValue is the typed value attached to a canonical instance property.
// The concrete variants are PrimitiveValue, EnumValue, ArrayValue and
// MapValue; consumers dispatch with a type switch.
type PropertyValue interface {
	propertyValue()
	// String renders the value in its canonical string form. This is the
	// form used when a value falls back into the additional-properties bag.
	String() string
}

// PrimitiveValue holds a single scalar. Value uses the Go representation
// matching the category: bool, byte, int16, int32, int64, float32, float64,
// *big.Int, *big.Float, string (also used for char) or time.Time.
type PrimitiveValue struct {
	Category PrimitiveCategory `json:"category"`
	Value    any               `json:"value"`
}

func (PrimitiveValue) propertyValue() {}

func (v PrimitiveValue) String() string {
	switch val := v.Value.(type) {
	case nil:
		return ""
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *big.Int:
		return val.String()
	case *big.Float:
		return val.Text('f', -1)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// BoolValue builds a boolean PrimitiveValue.
func BoolValue(b bool) PrimitiveValue {
	return PrimitiveValue{Category: PrimitiveBoolean, Value: b}
}

// IntValue builds an int PrimitiveValue.
func IntValue(i int32) PrimitiveValue {
	return PrimitiveValue{Category: PrimitiveInt, Value: i}
}

// LongValue builds a long PrimitiveValue.
func LongValue(i int64) PrimitiveValue {
	return PrimitiveValue{Category: PrimitiveLong, Value: i}
}

// StringValue builds a string PrimitiveValue.
func StringValue(s string) PrimitiveValue {
	return PrimitiveValue{Category: PrimitiveString, Value: s}
}

// DateValue builds a date PrimitiveValue.
func DateValue(t time.Time) PrimitiveValue {
	return PrimitiveValue{Category: PrimitiveDate, Value: t}
}

// EnumValue holds one symbol of a canonical enumeration type.
type EnumValue struct {
	TypeName string `json:"typeName,omitempty"`
	Symbol   string `json:"symbol"`
	Ordinal  int    `json:"ordinal"`
}

func (EnumValue) propertyValue() {}

func (v EnumValue) String() string { return v.Symbol }

// ArrayValue holds an ordered collection of property values.
type ArrayValue struct {
	Elements []PropertyValue `json:"elements"`
}

func (ArrayValue) propertyValue() {}

func (v ArrayValue) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// MapValue holds a string-keyed collection of property values.
type MapValue struct {
	Entries map[string]PropertyValue `json:"entries"`
}

func (MapValue) propertyValue() {}

func (v MapValue) String() string {
	keys := make([]string, 0, len(v.Entries))
	for k := range v.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + v.Entries[k].String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
