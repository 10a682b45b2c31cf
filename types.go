package metabridge

import (
	"time"
)

// InstanceStatus is the lifecycle status of a canonical instance.
type InstanceStatus string

const (
	StatusActive  InstanceStatus = "ACTIVE"
	StatusDeleted InstanceStatus = "DELETED"
	StatusUnknown InstanceStatus = "UNKNOWN"
)

// ProvenanceType records where an instance is mastered.
type ProvenanceType string

const (
	ProvenanceLocal    ProvenanceType = "LOCAL"
	ProvenanceExternal ProvenanceType = "EXTERNAL"
	ProvenanceUnknown  ProvenanceType = "UNKNOWN"
)

// MatchCriteria controls how multiple property filters combine in find operations.
type MatchCriteria string

const (
	MatchAll  MatchCriteria = "all"
	MatchAny  MatchCriteria = "any"
	MatchNone MatchCriteria = "none"
)

// SequencingOrder selects how result lists are ordered.
type SequencingOrder string

const (
	SequencingAny           SequencingOrder = "any"
	SequencingGUID          SequencingOrder = "guid"
	SequencingCreatedRecent SequencingOrder = "created_recent"
	SequencingCreatedOldest SequencingOrder = "created_oldest"
	SequencingUpdatedRecent SequencingOrder = "updated_recent"
	SequencingUpdatedOldest SequencingOrder = "updated_oldest"
	SequencingPropertyAsc   SequencingOrder = "property_asc"
	SequencingPropertyDesc  SequencingOrder = "property_desc"
)

// PageRequest is a from/size window over an ordered result list.
type PageRequest struct {
	From int `json:"from"`
	Size int `json:"size"`
}

// InstanceHeader carries the identity, audit and provenance fields shared by
// every canonical instance category.
type InstanceHeader struct {
	TypeName         string         `json:"typeName"`
	ID               InstanceID     `json:"id"`
	HomeCollectionID string         `json:"homeCollectionId,omitempty"`
	Provenance       ProvenanceType `json:"provenance,omitempty"`
	Status           InstanceStatus `json:"status"`
	CreatedBy        string         `json:"createdBy,omitempty"`
	UpdatedBy        string         `json:"updatedBy,omitempty"`
	CreateTime       time.Time      `json:"createTime,omitzero"`
	UpdateTime       time.Time      `json:"updateTime,omitzero"`
	Version          int64          `json:"version"`
}

// Header exposes the embedded header; it lets entities and relationships share
// ordering and paging helpers without reflection.
func (h *InstanceHeader) Header() *InstanceHeader { return h }

// Classification is a canonical classification attached to an entity. The
// vendor model keeps no classification-level audit trail, so audit fields are
// copied from the owning instance at translation time.
type Classification struct {
	Name       string                   `json:"name"`
	Properties map[string]PropertyValue `json:"properties,omitempty"`
	CreatedBy  string                   `json:"createdBy,omitempty"`
	UpdatedBy  string                   `json:"updatedBy,omitempty"`
	CreateTime time.Time                `json:"createTime,omitzero"`
	UpdateTime time.Time                `json:"updateTime,omitzero"`
	Version    int64                    `json:"version"`
}

// EntitySummary is an entity header plus its classifications.
type EntitySummary struct {
	InstanceHeader
	Classifications []Classification `json:"classifications,omitempty"`
}

// EntityDetail is a full canonical entity: summary plus typed properties and
// the additional-properties fallback bag holding vendor attributes that have
// no canonical mapping (kept as strings rather than dropped).
type EntityDetail struct {
	EntitySummary
	Properties           map[string]PropertyValue `json:"properties,omitempty"`
	AdditionalProperties map[string]string        `json:"additionalProperties,omitempty"`
}

// Property returns the named typed property, or nil when absent.
func (e *EntityDetail) Property(name string) PropertyValue {
	if e == nil {
		return nil
	}
	return e.Properties[name]
}

// EntityProxy is the minimal stand-in for an entity used as a relationship
// endpoint.
type EntityProxy struct {
	InstanceHeader
	UniqueProperties map[string]PropertyValue `json:"uniqueProperties,omitempty"`
}

// Relationship is a canonical relationship instance between two entity
// proxies. EndOne and EndTwo are the logical canonical ends, not the vendor's
// physical ends; the mapping layer is responsible for the orientation.
type Relationship struct {
	InstanceHeader
	Properties map[string]PropertyValue `json:"properties,omitempty"`
	EndOne     *EntityProxy             `json:"endOne"`
	EndTwo     *EntityProxy             `json:"endTwo"`
}

// Property returns the named typed property, or nil when absent.
func (r *Relationship) Property(name string) PropertyValue {
	if r == nil {
		return nil
	}
	return r.Properties[name]
}

// OperationOutcome is the authoritative result of a reference-copy write, as
// reported by the vendor's mutation response rather than by local intent.
type OperationOutcome string

const (
	OutcomeCreated       OperationOutcome = "created"
	OutcomeUpdated       OperationOutcome = "updated"
	OutcomePartialUpdate OperationOutcome = "partial_update"
	OutcomeUnchanged     OperationOutcome = "unchanged"
)
