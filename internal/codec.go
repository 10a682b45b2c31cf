package internal

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
)

// AttributeCodec converts single scalar values between the canonical typed
// property representation and the vendor's loosely-typed attribute values.
// Conversion failures skip the property rather than failing the instance;
// the skip is visible in the return value, not hidden in a recover.
type AttributeCodec struct {
	enums *EnumRegistry
}

// NewAttributeCodec creates a codec backed by the given enum registry.
func NewAttributeCodec(enums *EnumRegistry) *AttributeCodec {
	return &AttributeCodec{enums: enums}
}

// ToPropertyValue converts a raw vendor attribute value into the canonical
// typed value for the given attribute definition. The second return is true
// when the value could not be represented and the property should be skipped.
func (c *AttributeCodec) ToPropertyValue(raw any, def metabridge.AttributeDef) (metabridge.PropertyValue, bool) {
	if raw == nil {
		return nil, true
	}

	switch def.Category {
	case metabridge.AttributePrimitive:
		pv, err := coercePrimitive(raw, def.Primitive)
		if err != nil {
			zap.S().Warnw("skipping property: vendor value not convertible",
				"attribute", def.Name, "category", def.Primitive, "error", err)
			return nil, true
		}
		return pv, false

	case metabridge.AttributeEnum:
		str, ok := raw.(string)
		if !ok {
			str = fmt.Sprintf("%v", raw)
		}
		symbol, ordinal, known := c.enums.CanonicalElement(def.EnumType, str)
		if !known {
			// Unmapped enum type: keep the raw value as the symbol.
			symbol, ordinal = str, -1
		}
		return metabridge.EnumValue{TypeName: def.EnumType, Symbol: symbol, Ordinal: ordinal}, false

	case metabridge.AttributeArray:
		list, ok := raw.([]any)
		if !ok {
			zap.S().Warnw("skipping property: expected a list", "attribute", def.Name, "got", fmt.Sprintf("%T", raw))
			return nil, true
		}
		elemDef := def
		elemDef.Category = metabridge.AttributePrimitive
		elemDef.Primitive = elementPrimitive(def.ElementType)
		elements := make([]metabridge.PropertyValue, 0, len(list))
		for _, el := range list {
			pv, skipped := c.ToPropertyValue(el, elemDef)
			if skipped {
				continue
			}
			elements = append(elements, pv)
		}
		return metabridge.ArrayValue{Elements: elements}, false

	case metabridge.AttributeMap:
		m, ok := raw.(map[string]any)
		if !ok {
			zap.S().Warnw("skipping property: expected a map", "attribute", def.Name, "got", fmt.Sprintf("%T", raw))
			return nil, true
		}
		valDef := def
		valDef.Category = metabridge.AttributePrimitive
		valDef.Primitive = elementPrimitive(def.ValueType)
		entries := make(map[string]metabridge.PropertyValue, len(m))
		for k, v := range m {
			pv, skipped := c.ToPropertyValue(v, valDef)
			if skipped {
				continue
			}
			entries[k] = pv
		}
		return metabridge.MapValue{Entries: entries}, false

	default:
		zap.S().Warnw("skipping property: unsupported attribute category",
			"attribute", def.Name, "category", def.Category)
		return nil, true
	}
}

// ToVendorValue converts a canonical typed value into the vendor's
// representation. Dates travel as epoch milliseconds; big numbers as decimal
// strings; enums as the mapped vendor value.
func (c *AttributeCodec) ToVendorValue(value metabridge.PropertyValue, def metabridge.AttributeDef) (any, bool) {
	switch v := value.(type) {
	case metabridge.PrimitiveValue:
		out, err := vendorPrimitive(v)
		if err != nil {
			zap.S().Warnw("skipping property: canonical value not convertible",
				"attribute", def.Name, "category", v.Category, "error", err)
			return nil, true
		}
		return out, false

	case metabridge.EnumValue:
		enumType := v.TypeName
		if enumType == "" {
			enumType = def.EnumType
		}
		return c.enums.VendorElement(enumType, v.Symbol), false

	case metabridge.ArrayValue:
		out := make([]any, 0, len(v.Elements))
		for _, el := range v.Elements {
			converted, skipped := c.ToVendorValue(el, def)
			if skipped {
				continue
			}
			out = append(out, converted)
		}
		return out, false

	case metabridge.MapValue:
		out := make(map[string]any, len(v.Entries))
		for k, el := range v.Entries {
			converted, skipped := c.ToVendorValue(el, def)
			if skipped {
				continue
			}
			out[k] = converted
		}
		return out, false

	case nil:
		return nil, true

	default:
		zap.S().Warnw("skipping property: unknown canonical value variant",
			"attribute", def.Name, "type", fmt.Sprintf("%T", value))
		return nil, true
	}
}

// ValuesMatch reports whether a canonical value and a raw vendor value are
// equal after coercion.
func (c *AttributeCodec) ValuesMatch(value metabridge.PropertyValue, raw any) bool {
	switch v := value.(type) {
	case metabridge.PrimitiveValue:
		other, err := coercePrimitive(raw, v.Category)
		if err != nil {
			return false
		}
		return comparePrimitives(v, other) == 0
	case metabridge.EnumValue:
		str, ok := raw.(string)
		if !ok {
			return false
		}
		enumType := v.TypeName
		if symbol, _, known := c.enums.CanonicalElement(enumType, str); known {
			return symbol == v.Symbol
		}
		return str == v.Symbol
	default:
		return value != nil && value.String() == fmt.Sprintf("%v", raw)
	}
}

// Compare orders two canonical values. Values of incomparable variants fall
// back to their string forms so that sorting stays total.
func (c *AttributeCodec) Compare(a, b metabridge.PropertyValue) int {
	av, aOK := a.(metabridge.PrimitiveValue)
	bv, bOK := b.(metabridge.PrimitiveValue)
	if aOK && bOK && av.Category == bv.Category {
		return comparePrimitives(av, bv)
	}
	ae, aEnum := a.(metabridge.EnumValue)
	be, bEnum := b.(metabridge.EnumValue)
	if aEnum && bEnum {
		return compareOrdered(ae.Ordinal, be.Ordinal)
	}
	return strings.Compare(stringForm(a), stringForm(b))
}

func stringForm(v metabridge.PropertyValue) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// coercePrimitive converts a raw vendor value (JSON-decoded) into the typed
// canonical primitive for the target category.
func coercePrimitive(raw any, category metabridge.PrimitiveCategory) (metabridge.PrimitiveValue, error) {
	pv := metabridge.PrimitiveValue{Category: category}

	switch category {
	case metabridge.PrimitiveBoolean:
		switch v := raw.(type) {
		case bool:
			pv.Value = v
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return pv, fmt.Errorf("parse bool %q: %w", v, err)
			}
			pv.Value = b
		default:
			n, err := toInt64(raw)
			if err != nil {
				return pv, fmt.Errorf("cannot convert %T to bool", raw)
			}
			pv.Value = n != 0
		}

	case metabridge.PrimitiveByte:
		n, err := toInt64(raw)
		if err != nil {
			return pv, err
		}
		pv.Value = byte(n)

	case metabridge.PrimitiveChar:
		s, ok := raw.(string)
		if !ok || s == "" {
			return pv, fmt.Errorf("cannot convert %T to char", raw)
		}
		// Chars are kept as a one-rune string; rune is an alias of int32 and
		// would be indistinguishable from an int value.
		pv.Value = string([]rune(s)[0])

	case metabridge.PrimitiveShort:
		n, err := toInt64(raw)
		if err != nil {
			return pv, err
		}
		pv.Value = int16(n)

	case metabridge.PrimitiveInt:
		n, err := toInt64(raw)
		if err != nil {
			return pv, err
		}
		pv.Value = int32(n)

	case metabridge.PrimitiveLong:
		n, err := toInt64(raw)
		if err != nil {
			return pv, err
		}
		pv.Value = n

	case metabridge.PrimitiveFloat:
		f, err := toFloat64(raw)
		if err != nil {
			return pv, err
		}
		pv.Value = float32(f)

	case metabridge.PrimitiveDouble:
		f, err := toFloat64(raw)
		if err != nil {
			return pv, err
		}
		pv.Value = f

	case metabridge.PrimitiveBigInt:
		switch v := raw.(type) {
		case string:
			i, ok := new(big.Int).SetString(v, 10)
			if !ok {
				return pv, fmt.Errorf("parse big integer %q", v)
			}
			pv.Value = i
		case *big.Int:
			pv.Value = v
		default:
			n, err := toInt64(raw)
			if err != nil {
				return pv, err
			}
			pv.Value = big.NewInt(n)
		}

	case metabridge.PrimitiveBigDecimal:
		switch v := raw.(type) {
		case string:
			f, _, err := big.ParseFloat(v, 10, 128, big.ToNearestEven)
			if err != nil {
				return pv, fmt.Errorf("parse big decimal %q: %w", v, err)
			}
			pv.Value = f
		case *big.Float:
			pv.Value = v
		default:
			f, err := toFloat64(raw)
			if err != nil {
				return pv, err
			}
			pv.Value = big.NewFloat(f)
		}

	case metabridge.PrimitiveString:
		if s, ok := raw.(string); ok {
			pv.Value = s
		} else {
			pv.Value = fmt.Sprintf("%v", raw)
		}

	case metabridge.PrimitiveDate:
		switch v := raw.(type) {
		case time.Time:
			pv.Value = v
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return pv, fmt.Errorf("parse date %q: %w", v, err)
			}
			pv.Value = t
		default:
			millis, err := toInt64(raw)
			if err != nil {
				return pv, fmt.Errorf("cannot convert %T to date", raw)
			}
			pv.Value = time.UnixMilli(millis).UTC()
		}

	default:
		return pv, fmt.Errorf("unsupported primitive category: %s", category)
	}

	return pv, nil
}

// vendorPrimitive renders a canonical primitive into its vendor wire form.
func vendorPrimitive(v metabridge.PrimitiveValue) (any, error) {
	switch val := v.Value.(type) {
	case nil:
		return nil, fmt.Errorf("nil primitive value")
	case bool, string, int16, int32, int64, float32, float64, byte:
		return val, nil
	case time.Time:
		return val.UnixMilli(), nil
	case *big.Int:
		return val.String(), nil
	case *big.Float:
		return val.Text('f', -1), nil
	default:
		return nil, fmt.Errorf("unsupported primitive representation %T", v.Value)
	}
}

func comparePrimitives(a, b metabridge.PrimitiveValue) int {
	switch a.Category {
	case metabridge.PrimitiveBoolean:
		ab, _ := a.Value.(bool)
		bb, _ := b.Value.(bool)
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1

	case metabridge.PrimitiveByte, metabridge.PrimitiveShort, metabridge.PrimitiveInt, metabridge.PrimitiveLong:
		an, errA := toInt64(a.Value)
		bn, errB := toInt64(b.Value)
		if errA != nil || errB != nil {
			return strings.Compare(a.String(), b.String())
		}
		return compareOrdered(an, bn)

	case metabridge.PrimitiveFloat, metabridge.PrimitiveDouble:
		af, errA := toFloat64(a.Value)
		bf, errB := toFloat64(b.Value)
		if errA != nil || errB != nil {
			return strings.Compare(a.String(), b.String())
		}
		return compareOrdered(af, bf)

	case metabridge.PrimitiveBigInt:
		ai, aOK := a.Value.(*big.Int)
		bi, bOK := b.Value.(*big.Int)
		if !aOK || !bOK {
			return strings.Compare(a.String(), b.String())
		}
		return ai.Cmp(bi)

	case metabridge.PrimitiveBigDecimal:
		af, aOK := a.Value.(*big.Float)
		bf, bOK := b.Value.(*big.Float)
		if !aOK || !bOK {
			return strings.Compare(a.String(), b.String())
		}
		return af.Cmp(bf)

	case metabridge.PrimitiveDate:
		at, aOK := a.Value.(time.Time)
		bt, bOK := b.Value.(time.Time)
		if !aOK || !bOK {
			return strings.Compare(a.String(), b.String())
		}
		return at.Compare(bt)

	case metabridge.PrimitiveChar, metabridge.PrimitiveString:
		as, aOK := a.Value.(string)
		bs, bOK := b.Value.(string)
		if !aOK || !bOK {
			return strings.Compare(a.String(), b.String())
		}
		return strings.Compare(as, bs)

	default:
		return strings.Compare(a.String(), b.String())
	}
}

func compareOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// elementPrimitive resolves a collection element type name to a primitive
// category, defaulting to string for non-primitive element types.
func elementPrimitive(typeName string) metabridge.PrimitiveCategory {
	switch metabridge.PrimitiveCategory(typeName) {
	case metabridge.PrimitiveBoolean, metabridge.PrimitiveByte, metabridge.PrimitiveChar,
		metabridge.PrimitiveShort, metabridge.PrimitiveInt, metabridge.PrimitiveLong,
		metabridge.PrimitiveFloat, metabridge.PrimitiveDouble, metabridge.PrimitiveBigInt,
		metabridge.PrimitiveBigDecimal, metabridge.PrimitiveString, metabridge.PrimitiveDate:
		return metabridge.PrimitiveCategory(typeName)
	default:
		return metabridge.PrimitiveString
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case byte:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse integer %q: %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("parse float %q: %w", v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}
