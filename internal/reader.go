package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

// InstanceMapper is the runtime translation engine between vendor snapshots
// and canonical instances. The read path is deliberately lossy-but-resilient:
// unmapped types translate to nothing, unconvertible properties are skipped
// with a warning, and unmatched vendor attributes land in the
// additional-properties bag instead of being dropped. The write path in
// writer.go takes the opposite stance.
type InstanceMapper struct {
	store   *TypeStore
	enums   *EnumRegistry
	codec   *AttributeCodec
	catalog graph.Catalog

	collectionID   string
	collectionName string
}

// NewInstanceMapper wires a mapper over the shared registries and the vendor
// client.
func NewInstanceMapper(store *TypeStore, enums *EnumRegistry, codec *AttributeCodec, catalog graph.Catalog, collectionID, collectionName string) *InstanceMapper {
	return &InstanceMapper{
		store:          store,
		enums:          enums,
		codec:          codec,
		catalog:        catalog,
		collectionID:   collectionID,
		collectionName: collectionName,
	}
}

// EntityDetailFromVendor translates one vendor entity snapshot under the
// given generation prefix. A vendor type with no canonical projection under
// that prefix returns nil: the caller logs and skips, it is not an error.
func (m *InstanceMapper) EntityDetailFromVendor(entity *graph.Entity, prefix string) *metabridge.EntityDetail {
	if entity == nil {
		return nil
	}
	canonicalType := m.store.CanonicalTypeName(entity.TypeName, prefix)
	if canonicalType == "" {
		zap.S().Debugw("vendor entity type has no canonical projection, skipping",
			"vendorType", entity.TypeName, "prefix", prefix, "guid", entity.GUID)
		return nil
	}

	detail := &metabridge.EntityDetail{
		EntitySummary: metabridge.EntitySummary{
			InstanceHeader: m.headerFromVendor(entity, canonicalType, prefix),
		},
	}
	detail.Properties, detail.AdditionalProperties = m.propertiesFromVendor(entity, canonicalType, prefix)
	detail.Classifications = m.classificationsFromVendor(entity, &detail.InstanceHeader)
	return detail
}

// EntitySummaryFromVendor translates the header and classifications only.
func (m *InstanceMapper) EntitySummaryFromVendor(entity *graph.Entity, prefix string) *metabridge.EntitySummary {
	if entity == nil {
		return nil
	}
	canonicalType := m.store.CanonicalTypeName(entity.TypeName, prefix)
	if canonicalType == "" {
		zap.S().Debugw("vendor entity type has no canonical projection, skipping",
			"vendorType", entity.TypeName, "prefix", prefix, "guid", entity.GUID)
		return nil
	}
	summary := &metabridge.EntitySummary{
		InstanceHeader: m.headerFromVendor(entity, canonicalType, prefix),
	}
	summary.Classifications = m.classificationsFromVendor(entity, &summary.InstanceHeader)
	return summary
}

// EntityProxyFromVendor builds the minimal endpoint stand-in for an entity,
// carrying only the canonical type's unique properties.
func (m *InstanceMapper) EntityProxyFromVendor(entity *graph.Entity, prefix string) *metabridge.EntityProxy {
	if entity == nil {
		return nil
	}
	canonicalType := m.store.CanonicalTypeName(entity.TypeName, prefix)
	if canonicalType == "" {
		return nil
	}
	proxy := &metabridge.EntityProxy{
		InstanceHeader: m.headerFromVendor(entity, canonicalType, prefix),
	}

	attrs := m.store.AttributesFor(canonicalType)
	for vendorName, raw := range entity.Attributes {
		canonicalName, ok := m.store.CanonicalAttributeName(canonicalType, prefix, vendorName)
		if !ok {
			continue
		}
		def, ok := attrs[canonicalName]
		if !ok || !def.Unique {
			continue
		}
		if value, skipped := m.codec.ToPropertyValue(raw, def); !skipped {
			if proxy.UniqueProperties == nil {
				proxy.UniqueProperties = make(map[string]metabridge.PropertyValue)
			}
			proxy.UniqueProperties[canonicalName] = value
		}
	}
	return proxy
}

// ProxyForGUID fetches the related entity's minimal snapshot and builds its
// endpoint proxy under the given prefix.
func (m *InstanceMapper) ProxyForGUID(ctx context.Context, guid, prefix string) (*metabridge.EntityProxy, error) {
	entity, err := m.catalog.GetEntityByGUID(ctx, guid, true, true)
	if err != nil {
		var remote *graph.RemoteError
		if errors.As(err, &remote) && remote.IsNotFound() {
			return nil, metabridge.NewEntityNotFoundError(guid).WithCause(err)
		}
		return nil, metabridge.NewRemoteFailureError("get entity by guid", err)
	}
	return m.EntityProxyFromVendor(entity, prefix), nil
}

func (m *InstanceMapper) headerFromVendor(entity *graph.Entity, canonicalType, prefix string) metabridge.InstanceHeader {
	header := metabridge.InstanceHeader{
		TypeName:         canonicalType,
		ID:               metabridge.InstanceID{Base: entity.GUID, Tag: prefix},
		HomeCollectionID: entity.HomeID,
		Provenance:       metabridge.ProvenanceLocal,
		Status:           m.statusFromVendor(entity.Status, entity.GUID),
		CreatedBy:        entity.CreatedBy,
		UpdatedBy:        entity.UpdatedBy,
		Version:          entity.Version,
	}
	if header.HomeCollectionID == "" {
		header.HomeCollectionID = m.collectionID
	}
	if entity.CreateTime != 0 {
		header.CreateTime = time.UnixMilli(entity.CreateTime).UTC()
	}
	if entity.UpdateTime != 0 {
		header.UpdateTime = time.UnixMilli(entity.UpdateTime).UTC()
	}
	return header
}

// statusFromVendor maps the vendor status enumeration. Unrecognized values
// default to active with a warning; a read never fails over status.
func (m *InstanceMapper) statusFromVendor(status, guid string) metabridge.InstanceStatus {
	switch status {
	case graph.StatusActive, "":
		return metabridge.StatusActive
	case graph.StatusDeleted:
		return metabridge.StatusDeleted
	default:
		zap.S().Warnw("unrecognized vendor status, defaulting to active", "status", status, "guid", guid)
		return metabridge.StatusActive
	}
}

// propertiesFromVendor applies the scoped attribute map. Matched attributes
// are converted through the codec; everything else is serialized into the
// additional-properties bag so unknown-but-present data survives the read.
func (m *InstanceMapper) propertiesFromVendor(entity *graph.Entity, canonicalType, prefix string) (map[string]metabridge.PropertyValue, map[string]string) {
	if len(entity.Attributes) == 0 {
		return nil, nil
	}
	attrs := m.store.AttributesFor(canonicalType)

	var props map[string]metabridge.PropertyValue
	var additional map[string]string
	for vendorName, raw := range entity.Attributes {
		if raw == nil {
			continue
		}
		canonicalName, ok := m.store.CanonicalAttributeName(canonicalType, prefix, vendorName)
		if ok {
			if def, known := attrs[canonicalName]; known {
				if value, skipped := m.codec.ToPropertyValue(raw, def); !skipped {
					if props == nil {
						props = make(map[string]metabridge.PropertyValue)
					}
					props[canonicalName] = value
				}
				continue
			}
		}
		if additional == nil {
			additional = make(map[string]string)
		}
		additional[vendorName] = stringifyVendorValue(raw)
	}
	return props, additional
}

// classificationsFromVendor translates attached classifications under the
// strict name-identity assumption. Unknown names are dropped with a warning;
// audit fields come from the owning instance.
func (m *InstanceMapper) classificationsFromVendor(entity *graph.Entity, owner *metabridge.InstanceHeader) []metabridge.Classification {
	if len(entity.Classifications) == 0 {
		return nil
	}
	out := make([]metabridge.Classification, 0, len(entity.Classifications))
	for _, vc := range entity.Classifications {
		canonicalType := m.store.CanonicalTypeName(vc.TypeName, "")
		if canonicalType == "" {
			zap.S().Warnw("unrecognized vendor classification, dropping",
				"classification", vc.TypeName, "guid", entity.GUID)
			continue
		}
		cls := metabridge.Classification{
			Name:       canonicalType,
			CreatedBy:  owner.CreatedBy,
			UpdatedBy:  owner.UpdatedBy,
			CreateTime: owner.CreateTime,
			UpdateTime: owner.UpdateTime,
			Version:    owner.Version,
		}
		attrs := m.store.AttributesFor(canonicalType)
		for vendorName, raw := range vc.Attributes {
			if raw == nil {
				continue
			}
			canonicalName, ok := m.store.CanonicalAttributeName(canonicalType, "", vendorName)
			if !ok {
				continue
			}
			def, known := attrs[canonicalName]
			if !known {
				continue
			}
			if value, skipped := m.codec.ToPropertyValue(raw, def); !skipped {
				if cls.Properties == nil {
					cls.Properties = make(map[string]metabridge.PropertyValue)
				}
				cls.Properties[canonicalName] = value
			}
		}
		out = append(out, cls)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// stringifyVendorValue renders an unmapped vendor attribute for the fallback
// bag. Strings pass through; structured values keep their JSON form.
func stringifyVendorValue(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]any, []any:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", raw)
}
