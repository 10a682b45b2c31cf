package metabridge

import (
	"context"
	"time"
)

// PropertyMatch is one property filter in a find operation.
type PropertyMatch struct {
	Name  string        `json:"name"`
	Value PropertyValue `json:"value"`
}

// Repository is the surface the adapter exposes to the surrounding connector
// framework. All methods are safe for concurrent use once the implementation
// has finished loading its registries.
type Repository interface {
	// GetEntityDetail returns the full canonical entity for a (possibly
	// tagged) identifier, or an ENTITY_NOT_FOUND error.
	GetEntityDetail(ctx context.Context, guid string) (*EntityDetail, error)

	// GetEntitySummary returns the entity header and classifications only.
	GetEntitySummary(ctx context.Context, guid string) (*EntitySummary, error)

	// GetRelationship returns a canonical relationship by identifier.
	GetRelationship(ctx context.Context, guid string) (*Relationship, error)

	// AddTypeDef publishes a canonical type definition to the vendor type
	// system. Incomplete coverage yields a TYPE_NOT_SUPPORTED error and the
	// type is tracked as unimplemented.
	AddTypeDef(ctx context.Context, def TypeDef) error

	// VerifyTypeDef reports whether the given type definition is already
	// implemented. Types the vendor cannot represent yield a
	// TYPE_NOT_SUPPORTED error.
	VerifyTypeDef(ctx context.Context, def TypeDef) (bool, error)

	// FindEntitiesByProperty searches entities of the given canonical type
	// matching the property filters under the match criteria.
	FindEntitiesByProperty(ctx context.Context, typeName string, matches []PropertyMatch, criteria MatchCriteria, page PageRequest, order SequencingOrder, sequencingProperty string) ([]*EntityDetail, error)

	// FindEntitiesByPropertyValue searches entities whose string properties
	// contain the given value.
	FindEntitiesByPropertyValue(ctx context.Context, typeName, value string, page PageRequest, order SequencingOrder, sequencingProperty string) ([]*EntityDetail, error)

	// FindEntitiesByClassification searches entities carrying the given
	// classification, optionally filtered on classification properties.
	FindEntitiesByClassification(ctx context.Context, typeName, classification string, matches []PropertyMatch, criteria MatchCriteria, page PageRequest, order SequencingOrder, sequencingProperty string) ([]*EntityDetail, error)

	// GetRelationshipsForEntity returns the canonical relationships around
	// an entity, including generated relationships that have no vendor-side
	// existence. A nil result means no relationships.
	GetRelationshipsForEntity(ctx context.Context, guid string, typeFilter []string, page PageRequest, order SequencingOrder, sequencingProperty string) ([]*Relationship, error)

	// SaveEntityReferenceCopy writes a reference copy of an entity homed in
	// another collection into the vendor store and returns the operation the
	// vendor actually applied.
	SaveEntityReferenceCopy(ctx context.Context, entity *EntityDetail) (OperationOutcome, error)

	// GetEntityDetailAsOfTime always fails with FUNCTION_NOT_SUPPORTED: the
	// vendor product retains no history.
	GetEntityDetailAsOfTime(ctx context.Context, guid string, asOf time.Time) (*EntityDetail, error)

	// GetRelationshipsForEntityAsOfTime always fails with
	// FUNCTION_NOT_SUPPORTED.
	GetRelationshipsForEntityAsOfTime(ctx context.Context, guid string, asOf time.Time) ([]*Relationship, error)
}
