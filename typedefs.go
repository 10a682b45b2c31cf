package metabridge

import (
	"time"
)

// TypeDefCategory discriminates the canonical type-definition variants.
type TypeDefCategory string

const (
	CategoryEntityDef         TypeDefCategory = "entity"
	CategoryRelationshipDef   TypeDefCategory = "relationship"
	CategoryClassificationDef TypeDefCategory = "classification"
	CategoryEnumDef           TypeDefCategory = "enum"
)

// PrimitiveCategory enumerates the canonical primitive attribute types.
type PrimitiveCategory string

const (
	PrimitiveBoolean    PrimitiveCategory = "boolean"
	PrimitiveByte       PrimitiveCategory = "byte"
	PrimitiveChar       PrimitiveCategory = "char"
	PrimitiveShort      PrimitiveCategory = "short"
	PrimitiveInt        PrimitiveCategory = "int"
	PrimitiveLong       PrimitiveCategory = "long"
	PrimitiveFloat      PrimitiveCategory = "float"
	PrimitiveDouble     PrimitiveCategory = "double"
	PrimitiveBigInt     PrimitiveCategory = "biginteger"
	PrimitiveBigDecimal PrimitiveCategory = "bigdecimal"
	PrimitiveString     PrimitiveCategory = "string"
	PrimitiveDate       PrimitiveCategory = "date"
	PrimitiveUnknown    PrimitiveCategory = "unknown"
)

// AttributeCategory is the structural category of a canonical attribute type.
type AttributeCategory string

const (
	AttributePrimitive AttributeCategory = "primitive"
	AttributeEnum      AttributeCategory = "enum"
	AttributeArray     AttributeCategory = "array"
	AttributeMap       AttributeCategory = "map"
	AttributeStruct    AttributeCategory = "struct"
	AttributeUnknown   AttributeCategory = "unknown"
)

// Cardinality is the canonical attribute/end cardinality model.
type Cardinality string

const (
	CardinalityAtMostOne          Cardinality = "at_most_one"
	CardinalityOneOnly            Cardinality = "one_only"
	CardinalityAnyNumberUnordered Cardinality = "any_number_unordered"
	CardinalityAtLeastOneOrdered  Cardinality = "at_least_one_ordered"
	CardinalityAnyNumberOrdered   Cardinality = "any_number_ordered"
	CardinalityUnknown            Cardinality = "unknown"
)

// Multi reports whether the cardinality permits more than one value.
func (c Cardinality) Multi() bool {
	switch c {
	case CardinalityAnyNumberUnordered, CardinalityAtLeastOneOrdered, CardinalityAnyNumberOrdered:
		return true
	}
	return false
}

// Ordered reports whether the cardinality is multi-valued and ordered.
func (c Cardinality) Ordered() bool {
	return c == CardinalityAtLeastOneOrdered || c == CardinalityAnyNumberOrdered
}

// PropagationRule controls how classifications propagate along a relationship.
type PropagationRule string

const (
	PropagateNone     PropagationRule = "none"
	PropagateBoth     PropagationRule = "both"
	PropagateOneToTwo PropagationRule = "one_to_two"
	PropagateTwoToOne PropagationRule = "two_to_one"
)

// AttributeDef describes one attribute of a canonical type definition.
type AttributeDef struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    AttributeCategory `json:"category"`
	Primitive   PrimitiveCategory `json:"primitive,omitempty"`
	EnumType    string            `json:"enumType,omitempty"`
	ElementType string            `json:"elementType,omitempty"`
	KeyType     string            `json:"keyType,omitempty"`
	ValueType   string            `json:"valueType,omitempty"`
	Cardinality Cardinality       `json:"cardinality"`
	Unique      bool              `json:"unique,omitempty"`
	Indexable   bool              `json:"indexable,omitempty"`
}

// TypeDefHeader carries the identity, audit and version fields shared by all
// canonical type-definition categories.
type TypeDefHeader struct {
	GUID        string    `json:"guid"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Version     int64     `json:"version"`
	VersionName string    `json:"versionName,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	UpdatedBy   string    `json:"updatedBy,omitempty"`
	CreateTime  time.Time `json:"createTime,omitzero"`
	UpdateTime  time.Time `json:"updateTime,omitzero"`
}

// TypeDef is the tagged-variant view over the four canonical type-definition
// categories. Implementations are *EntityDef, *RelationshipDef,
// *ClassificationDef and *EnumDef; consumers dispatch with a type switch.
type TypeDef interface {
	TypeDefHeaderRef() *TypeDefHeader
	TypeDefCategory() TypeDefCategory
}

// EntityDef defines a canonical entity type.
type EntityDef struct {
	TypeDefHeader
	SuperType  string         `json:"superType,omitempty"`
	Attributes []AttributeDef `json:"attributes,omitempty"`
}

func (d *EntityDef) TypeDefHeaderRef() *TypeDefHeader { return &d.TypeDefHeader }
func (d *EntityDef) TypeDefCategory() TypeDefCategory { return CategoryEntityDef }

// RelationshipEndDef describes one end of a canonical relationship type.
//
// AttributeFromOtherEnd, its description and cardinality belong to the
// attribute the OTHER end uses to refer to entities at this end. The vendor
// model stores each end's own outward-pointing attribute instead, so
// translation swaps ends explicitly. The field name carries the inversion so
// a future change cannot "fix" the swap by accident.
type RelationshipEndDef struct {
	EntityType            string      `json:"entityType"`
	AttributeFromOtherEnd string      `json:"attributeFromOtherEnd"`
	Description           string      `json:"description,omitempty"`
	Cardinality           Cardinality `json:"cardinality"`
}

// RelationshipDef defines a canonical relationship type.
type RelationshipDef struct {
	TypeDefHeader
	EndOne      RelationshipEndDef `json:"endOne"`
	EndTwo      RelationshipEndDef `json:"endTwo"`
	Propagation PropagationRule    `json:"propagation"`
	Attributes  []AttributeDef     `json:"attributes,omitempty"`
}

func (d *RelationshipDef) TypeDefHeaderRef() *TypeDefHeader { return &d.TypeDefHeader }
func (d *RelationshipDef) TypeDefCategory() TypeDefCategory { return CategoryRelationshipDef }

// ClassificationDef defines a canonical classification type.
type ClassificationDef struct {
	TypeDefHeader
	ValidEntityTypes []string       `json:"validEntityTypes,omitempty"`
	Propagatable     bool           `json:"propagatable,omitempty"`
	Attributes       []AttributeDef `json:"attributes,omitempty"`
}

func (d *ClassificationDef) TypeDefHeaderRef() *TypeDefHeader { return &d.TypeDefHeader }
func (d *ClassificationDef) TypeDefCategory() TypeDefCategory { return CategoryClassificationDef }

// EnumElementDef is one element of a canonical enumeration type.
type EnumElementDef struct {
	Symbol      string `json:"symbol"`
	Ordinal     int    `json:"ordinal"`
	Description string `json:"description,omitempty"`
}

// EnumDef defines a canonical enumeration type.
type EnumDef struct {
	TypeDefHeader
	Elements     []EnumElementDef `json:"elements"`
	DefaultValue string           `json:"defaultValue,omitempty"`
}

func (d *EnumDef) TypeDefHeaderRef() *TypeDefHeader { return &d.TypeDefHeader }
func (d *EnumDef) TypeDefCategory() TypeDefCategory { return CategoryEnumDef }
