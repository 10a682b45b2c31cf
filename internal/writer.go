package internal

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

// SaveEntityReferenceCopy persists a canonical entity mastered elsewhere into
// the vendor catalog. Unlike the read path this is strict: header validation
// is batched into one error, a cross-home existing instance is a conflict,
// and any property without a vendor mapping is a hard failure. The returned
// outcome is whatever the vendor reports it actually applied, not the
// adapter's create-or-update intent.
func (m *InstanceMapper) SaveEntityReferenceCopy(ctx context.Context, entity *metabridge.EntityDetail) (metabridge.OperationOutcome, error) {
	if entity == nil {
		return "", metabridge.NewInvalidInstanceError("", []string{"entity"})
	}

	var missing []string
	if entity.ID.IsZero() {
		missing = append(missing, "identifier")
	}
	if entity.Provenance == "" {
		missing = append(missing, "provenanceType")
	}
	if entity.HomeCollectionID == "" {
		missing = append(missing, "homeCollectionId")
	}
	if len(missing) > 0 {
		return "", metabridge.NewInvalidInstanceError(entity.ID.String(), missing)
	}

	if entity.ID.IsGenerated() {
		// Prefixed projections share one vendor instance with their base
		// entity; writing one would silently mutate the other.
		return "", metabridge.NewFunctionNotSupportedError("saveEntityReferenceCopy of a generated entity", m.collectionName)
	}

	vendorType := m.store.VendorTypeName(entity.TypeName, entity.ID.Tag)
	if vendorType == "" {
		return "", metabridge.NewTypeNotSupportedError(entity.TypeName, m.collectionName, []string{"no vendor mapping for type"})
	}

	existing, err := m.fetchExisting(ctx, entity.ID.Base)
	if err != nil {
		return "", err
	}
	if existing != nil {
		existingHome := existing.HomeID
		if existingHome == "" {
			existingHome = m.collectionID
		}
		if existingHome != entity.HomeCollectionID {
			return "", metabridge.NewHomeConflictError(entity.ID.String(), existingHome, entity.HomeCollectionID)
		}
	}

	vendor := &graph.Entity{
		TypeName:  vendorType,
		GUID:      entity.ID.Base,
		Status:    statusToVendor(entity.Status),
		CreatedBy: entity.CreatedBy,
		UpdatedBy: entity.UpdatedBy,
		Version:   entity.Version,
		HomeID:    entity.HomeCollectionID,
	}
	if !entity.CreateTime.IsZero() {
		vendor.CreateTime = entity.CreateTime.UnixMilli()
	}
	if !entity.UpdateTime.IsZero() {
		vendor.UpdateTime = entity.UpdateTime.UnixMilli()
	}

	vendor.Attributes, err = m.propertiesToVendor(entity.TypeName, entity.ID.Tag, entity.Properties)
	if err != nil {
		return "", err
	}
	vendor.Classifications, err = m.classificationsToVendor(entity)
	if err != nil {
		return "", err
	}

	var response *graph.MutationResponse
	if existing == nil {
		response, err = m.catalog.CreateEntity(ctx, vendor)
	} else {
		response, err = m.catalog.UpdateEntity(ctx, vendor)
	}
	if err != nil {
		return "", metabridge.NewRemoteFailureError("save entity reference copy", err)
	}

	switch response.Applied(entity.ID.Base) {
	case graph.MutationCreate:
		return metabridge.OutcomeCreated, nil
	case graph.MutationUpdate:
		return metabridge.OutcomeUpdated, nil
	case graph.MutationPartialUpdate:
		return metabridge.OutcomePartialUpdate, nil
	default:
		zap.S().Debugw("vendor reported no mutation for reference copy", "guid", entity.ID.Base)
		return metabridge.OutcomeUnchanged, nil
	}
}

func (m *InstanceMapper) fetchExisting(ctx context.Context, guid string) (*graph.Entity, error) {
	entity, err := m.catalog.GetEntityByGUID(ctx, guid, true, true)
	if err != nil {
		var remote *graph.RemoteError
		if errors.As(err, &remote) && remote.IsNotFound() {
			return nil, nil
		}
		return nil, metabridge.NewRemoteFailureError("get entity by guid", err)
	}
	return entity, nil
}

// propertiesToVendor maps every canonical property through the scoped
// attribute map. A property present on the instance with no vendor mapping
// or no convertible representation fails hard; dropping caller-supplied data
// on the authoritative side would be undetectable loss.
func (m *InstanceMapper) propertiesToVendor(canonicalType, prefix string, props map[string]metabridge.PropertyValue) (map[string]any, error) {
	if len(props) == 0 {
		return nil, nil
	}
	attrs := m.store.AttributesFor(canonicalType)
	out := make(map[string]any, len(props))
	for name, value := range props {
		if value == nil {
			continue
		}
		vendorName, ok := m.store.VendorAttributeName(canonicalType, prefix, name)
		if !ok {
			return nil, metabridge.NewPropertyNotKnownError(name, canonicalType)
		}
		def, known := attrs[name]
		if !known {
			return nil, metabridge.NewPropertyNotKnownError(name, canonicalType)
		}
		raw, skipped := m.codec.ToVendorValue(value, def)
		if skipped {
			return nil, metabridge.NewPropertyNotKnownError(name, canonicalType).
				WithDetail("reason", "value not representable in vendor model")
		}
		out[vendorName] = raw
	}
	return out, nil
}

func (m *InstanceMapper) classificationsToVendor(entity *metabridge.EntityDetail) ([]graph.Classification, error) {
	if len(entity.Classifications) == 0 {
		return nil, nil
	}
	out := make([]graph.Classification, 0, len(entity.Classifications))
	for _, cls := range entity.Classifications {
		vendorName := m.store.VendorTypeName(cls.Name, "")
		if vendorName == "" {
			// Classifications ride on the strict one-to-one name identity.
			vendorName = cls.Name
		}
		vc := graph.Classification{
			TypeName:   vendorName,
			EntityGUID: entity.ID.Base,
		}
		attributes, err := m.propertiesToVendor(cls.Name, "", cls.Properties)
		if err != nil {
			return nil, err
		}
		vc.Attributes = attributes
		out = append(out, vc)
	}
	return out, nil
}

func statusToVendor(status metabridge.InstanceStatus) string {
	if status == metabridge.StatusDeleted {
		return graph.StatusDeleted
	}
	return graph.StatusActive
}
