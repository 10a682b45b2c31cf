package metabridge

import (
	"time"
)

// InstanceEventType enumerates the canonical change events the adapter
// republishes onto the federation.
type InstanceEventType string

const (
	EventNewEntity           InstanceEventType = "new_entity"
	EventUpdatedEntity       InstanceEventType = "updated_entity"
	EventDeletedEntity       InstanceEventType = "deleted_entity"
	EventClassifiedEntity    InstanceEventType = "classified_entity"
	EventReclassifiedEntity  InstanceEventType = "reclassified_entity"
	EventDeclassifiedEntity  InstanceEventType = "declassified_entity"
	EventNewRelationship     InstanceEventType = "new_relationship"
	EventUpdatedRelationship InstanceEventType = "updated_relationship"
	EventDeletedRelationship InstanceEventType = "deleted_relationship"
)

// InstanceEvent is one canonical change event. Exactly one of Entity and
// Relationship is set, matching the event type.
type InstanceEvent struct {
	EventID      string            `json:"eventId"`
	Type         InstanceEventType `json:"type"`
	Time         time.Time         `json:"time"`
	Entity       *EntityDetail     `json:"entity,omitempty"`
	Relationship *Relationship     `json:"relationship,omitempty"`
}
