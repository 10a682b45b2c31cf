package graph

// Type-definition categories used by the vendor.
const (
	TypeCategoryEntity         = "ENTITY"
	TypeCategoryRelationship   = "RELATIONSHIP"
	TypeCategoryClassification = "CLASSIFICATION"
	TypeCategoryEnum           = "ENUM"
	TypeCategoryStruct         = "STRUCT"
)

// Vendor attribute cardinalities.
const (
	CardinalitySingle = "SINGLE"
	CardinalitySet    = "SET"
	CardinalityList   = "LIST"
)

// Relationship categories.
const (
	RelationshipAssociation = "ASSOCIATION"
	RelationshipAggregation = "AGGREGATION"
	RelationshipComposition = "COMPOSITION"
)

// Tag-propagation modes.
const (
	PropagateNone     = "NONE"
	PropagateBoth     = "BOTH"
	PropagateOneToTwo = "ONE_TO_TWO"
	PropagateTwoToOne = "TWO_TO_ONE"
)

// BaseTypeDef carries the shared header fields of a vendor type definition.
type BaseTypeDef struct {
	Category    string `json:"category"`
	GUID        string `json:"guid,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TypeVersion string `json:"typeVersion,omitempty"`
	Version     int64  `json:"version,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
	UpdatedBy   string `json:"updatedBy,omitempty"`
	CreateTime  int64  `json:"createTime,omitempty"`
	UpdateTime  int64  `json:"updateTime,omitempty"`
}

// AttributeDef describes one attribute of a vendor type definition.
type AttributeDef struct {
	Name           string `json:"name"`
	TypeName       string `json:"typeName"`
	Description    string `json:"description,omitempty"`
	IsOptional     bool   `json:"isOptional"`
	Cardinality    string `json:"cardinality"`
	ValuesMinCount int    `json:"valuesMinCount"`
	ValuesMaxCount int    `json:"valuesMaxCount"`
	IsUnique       bool   `json:"isUnique,omitempty"`
	IsIndexable    bool   `json:"isIndexable,omitempty"`
}

// EntityDef defines a vendor entity type.
type EntityDef struct {
	BaseTypeDef
	SuperTypes    []string       `json:"superTypes,omitempty"`
	AttributeDefs []AttributeDef `json:"attributeDefs,omitempty"`
}

// ClassificationDef defines a vendor classification type.
type ClassificationDef struct {
	BaseTypeDef
	EntityTypes   []string       `json:"entityTypes,omitempty"`
	AttributeDefs []AttributeDef `json:"attributeDefs,omitempty"`
}

// RelationshipEndDef describes one end of a vendor relationship type. Name
// and Cardinality are the end's own outward-pointing relationship attribute
// as it appears on entities occupying this end.
type RelationshipEndDef struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsContainer bool   `json:"isContainer,omitempty"`
	Cardinality string `json:"cardinality"`
}

// RelationshipDef defines a vendor relationship type.
type RelationshipDef struct {
	BaseTypeDef
	RelationshipCategory string             `json:"relationshipCategory"`
	PropagateTags        string             `json:"propagateTags,omitempty"`
	EndDef1              RelationshipEndDef `json:"endDef1"`
	EndDef2              RelationshipEndDef `json:"endDef2"`
	AttributeDefs        []AttributeDef     `json:"attributeDefs,omitempty"`
}

// EnumElementDef is one value of a vendor enum type.
type EnumElementDef struct {
	Value       string `json:"value"`
	Ordinal     int    `json:"ordinal"`
	Description string `json:"description,omitempty"`
}

// EnumDef defines a vendor enum type.
type EnumDef struct {
	BaseTypeDef
	ElementDefs  []EnumElementDef `json:"elementDefs"`
	DefaultValue string           `json:"defaultValue,omitempty"`
}

// TypesDef is the batch container for vendor type creation and listing.
type TypesDef struct {
	EnumDefs           []EnumDef           `json:"enumDefs,omitempty"`
	EntityDefs         []EntityDef         `json:"entityDefs,omitempty"`
	ClassificationDefs []ClassificationDef `json:"classificationDefs,omitempty"`
	RelationshipDefs   []RelationshipDef   `json:"relationshipDefs,omitempty"`
}

// IsEmpty reports whether the container holds no definitions.
func (t *TypesDef) IsEmpty() bool {
	return t == nil ||
		len(t.EnumDefs)+len(t.EntityDefs)+len(t.ClassificationDefs)+len(t.RelationshipDefs) == 0
}
