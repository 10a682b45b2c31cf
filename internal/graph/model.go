// Package graph holds the vendor catalog's wire model and REST client. The
// vendor exposes typed vertices/edges with a flat attribute model; instances
// and type definitions are exchanged as JSON over its REST API.
package graph

import (
	"encoding/json"
	"fmt"
)

// Entity statuses used by the vendor.
const (
	StatusActive  = "ACTIVE"
	StatusDeleted = "DELETED"
)

// Entity is a vendor entity snapshot. CreateTime and UpdateTime are epoch
// milliseconds. RelationshipAttributes values are either a single related
// object or a list of them; they are kept raw and normalized on demand.
type Entity struct {
	TypeName               string                     `json:"typeName"`
	GUID                   string                     `json:"guid"`
	Status                 string                     `json:"status,omitempty"`
	CreatedBy              string                     `json:"createdBy,omitempty"`
	UpdatedBy              string                     `json:"updatedBy,omitempty"`
	CreateTime             int64                      `json:"createTime,omitempty"`
	UpdateTime             int64                      `json:"updateTime,omitempty"`
	Version                int64                      `json:"version,omitempty"`
	HomeID                 string                     `json:"homeId,omitempty"`
	IsProxy                bool                       `json:"isProxy,omitempty"`
	Attributes             map[string]any             `json:"attributes,omitempty"`
	RelationshipAttributes map[string]json.RawMessage `json:"relationshipAttributes,omitempty"`
	Classifications        []Classification           `json:"classifications,omitempty"`
}

// Classification is a vendor classification attached to an entity.
type Classification struct {
	TypeName   string         `json:"typeName"`
	EntityGUID string         `json:"entityGuid,omitempty"`
	Propagate  bool           `json:"propagate,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RelatedObject is one assignment inside an entity's relationship-typed
// attribute: a reference to the related entity plus the covering
// relationship's identity.
type RelatedObject struct {
	GUID                   string          `json:"guid"`
	TypeName               string          `json:"typeName"`
	EntityStatus           string          `json:"entityStatus,omitempty"`
	DisplayText            string          `json:"displayText,omitempty"`
	RelationshipType       string          `json:"relationshipType,omitempty"`
	RelationshipGUID       string          `json:"relationshipGuid,omitempty"`
	RelationshipStatus     string          `json:"relationshipStatus,omitempty"`
	RelationshipAttributes *StructSnapshot `json:"relationshipAttributes,omitempty"`
}

// StructSnapshot is a typed attribute bag, used for the attributes carried on
// a relationship assignment.
type StructSnapshot struct {
	TypeName   string         `json:"typeName,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NormalizeRelatedObjects decodes one relationship-attribute value into a
// list of assignments. A single assignment is promoted to a one-element list.
func NormalizeRelatedObjects(raw json.RawMessage) ([]RelatedObject, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []RelatedObject
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single RelatedObject
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("relationship attribute is neither an object nor a list: %w", err)
	}
	if single.GUID == "" && single.RelationshipGUID == "" {
		return nil, nil
	}
	return []RelatedObject{single}, nil
}

// ObjectID references an entity from a relationship end.
type ObjectID struct {
	GUID             string         `json:"guid"`
	TypeName         string         `json:"typeName"`
	UniqueAttributes map[string]any `json:"uniqueAttributes,omitempty"`
}

// Relationship is a vendor relationship snapshot.
type Relationship struct {
	TypeName   string         `json:"typeName"`
	GUID       string         `json:"guid"`
	Status     string         `json:"status,omitempty"`
	CreatedBy  string         `json:"createdBy,omitempty"`
	UpdatedBy  string         `json:"updatedBy,omitempty"`
	CreateTime int64          `json:"createTime,omitempty"`
	UpdateTime int64          `json:"updateTime,omitempty"`
	Version    int64          `json:"version,omitempty"`
	HomeID     string         `json:"homeId,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	End1       ObjectID       `json:"end1"`
	End2       ObjectID       `json:"end2"`
}

// Mutation response keys.
const (
	MutationCreate        = "CREATE"
	MutationUpdate        = "UPDATE"
	MutationPartialUpdate = "PARTIAL_UPDATE"
	MutationDelete        = "DELETE"
)

// EntityHeader is the minimal entity identity reported in mutation responses.
type EntityHeader struct {
	GUID     string `json:"guid"`
	TypeName string `json:"typeName"`
	Status   string `json:"status,omitempty"`
}

// MutationResponse reports which mutations the vendor actually applied,
// keyed by mutation kind.
type MutationResponse struct {
	MutatedEntities map[string][]EntityHeader `json:"mutatedEntities,omitempty"`
	GUIDAssignments map[string]string         `json:"guidAssignments,omitempty"`
}

// Applied returns the mutation kind recorded for the given GUID, or "".
func (m *MutationResponse) Applied(guid string) string {
	if m == nil {
		return ""
	}
	for _, kind := range []string{MutationCreate, MutationUpdate, MutationPartialUpdate, MutationDelete} {
		for _, h := range m.MutatedEntities[kind] {
			if h.GUID == guid {
				return kind
			}
		}
	}
	// Create responses key the new entity by a negative placeholder GUID;
	// check the assignment table before giving up.
	for placeholder, assigned := range m.GUIDAssignments {
		if assigned == guid {
			for _, h := range m.MutatedEntities[MutationCreate] {
				if h.GUID == placeholder || h.GUID == guid {
					return MutationCreate
				}
			}
		}
	}
	return ""
}

// SearchFilter is one attribute predicate in a basic search. Nested criteria
// combine under Condition ("AND"/"OR").
type SearchFilter struct {
	AttributeName  string         `json:"attributeName,omitempty"`
	Operator       string         `json:"operator,omitempty"`
	AttributeValue string         `json:"attributeValue,omitempty"`
	Condition      string         `json:"condition,omitempty"`
	Criterion      []SearchFilter `json:"criterion,omitempty"`
}

// SearchParameters drives the vendor's basic search endpoint.
type SearchParameters struct {
	TypeName              string        `json:"typeName,omitempty"`
	Classification        string        `json:"classification,omitempty"`
	Query                 string        `json:"query,omitempty"`
	ExcludeDeleted        bool          `json:"excludeDeletedEntities,omitempty"`
	EntityFilters         *SearchFilter `json:"entityFilters,omitempty"`
	Limit                 int           `json:"limit,omitempty"`
	Offset                int           `json:"offset,omitempty"`
	IncludeClassification bool          `json:"includeClassificationAttributes,omitempty"`
}

// SearchResult is the vendor's search response.
type SearchResult struct {
	Entities []Entity `json:"entities,omitempty"`
}

// Notification operation types.
const (
	OpEntityCreate         = "ENTITY_CREATE"
	OpEntityUpdate         = "ENTITY_UPDATE"
	OpEntityDelete         = "ENTITY_DELETE"
	OpClassificationAdd    = "CLASSIFICATION_ADD"
	OpClassificationUpdate = "CLASSIFICATION_UPDATE"
	OpClassificationDelete = "CLASSIFICATION_DELETE"
	OpRelationshipCreate   = "RELATIONSHIP_CREATE"
	OpRelationshipUpdate   = "RELATIONSHIP_UPDATE"
	OpRelationshipDelete   = "RELATIONSHIP_DELETE"
)

// Notification is one vendor change notification.
type Notification struct {
	OperationType string        `json:"operationType"`
	EventTime     int64         `json:"eventTime,omitempty"`
	Entity        *Entity       `json:"entity,omitempty"`
	Relationship  *Relationship `json:"relationship,omitempty"`
}
