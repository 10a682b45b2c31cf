package internal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

// RelationshipsForEntity assembles every canonical relationship visible from
// one vendor entity translated under the given prefix. The vendor reports
// relationships as attributes on the entity, so discovery walks the
// relationship-attribute map, normalizes each value to a list of assignments
// and orients every assignment through the stored endpoint correspondences.
// Generated relationships for the entity's vendor type are appended last.
func (m *InstanceMapper) RelationshipsForEntity(ctx context.Context, entity *graph.Entity, prefix string) ([]*metabridge.Relationship, error) {
	if entity == nil {
		return nil, nil
	}
	selfProxy := m.EntityProxyFromVendor(entity, prefix)
	if selfProxy == nil {
		return nil, nil
	}

	var out []*metabridge.Relationship
	for attribute, raw := range entity.RelationshipAttributes {
		assignments, err := graph.NormalizeRelatedObjects(raw)
		if err != nil {
			zap.S().Warnw("malformed relationship attribute, skipping",
				"attribute", attribute, "guid", entity.GUID, "err", err)
			continue
		}
		for _, assignment := range assignments {
			rel, err := m.relationshipFromAssignment(ctx, entity, selfProxy, attribute, prefix, assignment)
			if err != nil {
				return nil, err
			}
			if rel != nil {
				out = append(out, rel)
			}
		}
	}

	generated, err := m.generatedRelationships(entity)
	if err != nil {
		return nil, err
	}
	out = append(out, generated...)
	return out, nil
}

// relationshipFromAssignment orients one assignment. A nil, nil return means
// the assignment belongs to a different prefix projection of the same vendor
// entity and must not leak into this translation.
func (m *InstanceMapper) relationshipFromAssignment(ctx context.Context, entity *graph.Entity, selfProxy *metabridge.EntityProxy, attribute, prefix string, assignment graph.RelatedObject) (*metabridge.Relationship, error) {
	mappings := m.store.EndpointMappingsFor(assignment.RelationshipType)
	if len(mappings) == 0 {
		if m.store.CanonicalTypeName(assignment.RelationshipType, "") == "" {
			zap.S().Debugw("vendor relationship type unmapped, skipping",
				"relationshipType", assignment.RelationshipType, "guid", entity.GUID)
			return nil, nil
		}
		// A mapped relationship type with no endpoint record cannot be
		// oriented; guessing would corrupt direction semantics.
		return nil, metabridge.NewMalformedEndsError(assignment.RelationshipType, attribute)
	}

	attributeKnown := false
	for _, ec := range mappings {
		if ec.Generated() {
			continue
		}
		if ec.One.VendorAttribute == attribute || ec.Two.VendorAttribute == attribute {
			attributeKnown = true
		}
		_, related, selfIsOne, ok := ec.Orient(attribute, prefix)
		if !ok {
			continue
		}

		relatedProxy, err := m.ProxyForGUID(ctx, assignment.GUID, related.Prefix)
		if err != nil {
			return nil, err
		}
		if relatedProxy == nil {
			zap.S().Debugw("related entity has no canonical projection, skipping",
				"relatedGuid", assignment.GUID, "prefix", related.Prefix)
			return nil, nil
		}

		rel := &metabridge.Relationship{
			InstanceHeader: m.relationshipHeader(ec, assignment.RelationshipGUID, assignment.RelationshipStatus, entity),
		}
		if selfIsOne {
			rel.EndOne, rel.EndTwo = selfProxy, relatedProxy
		} else {
			rel.EndOne, rel.EndTwo = relatedProxy, selfProxy
		}
		if assignment.RelationshipAttributes != nil {
			rel.Properties = m.relationshipProperties(ec, assignment.RelationshipAttributes.Attributes)
		}
		return rel, nil
	}

	if attributeKnown {
		// The attribute belongs to the relationship type, just not to this
		// prefix projection of the entity.
		return nil, nil
	}
	return nil, metabridge.NewMalformedEndsError(assignment.RelationshipType, attribute)
}

// generatedRelationships synthesizes the canonical relationships that exist
// only because this vendor entity expands into several canonical entities.
// Both proxies come from the same vendor entity under the mapping's two
// prefixes; the identifier is the vendor GUID tagged with the generation
// prefix, so it is deterministic and reversible.
func (m *InstanceMapper) generatedRelationships(entity *graph.Entity) ([]*metabridge.Relationship, error) {
	var out []*metabridge.Relationship
	for _, ec := range m.store.GeneratedMappingsForEntityType(entity.TypeName) {
		oneProxy := m.EntityProxyFromVendor(entity, ec.One.Prefix)
		twoProxy := m.EntityProxyFromVendor(entity, ec.Two.Prefix)
		if oneProxy == nil || twoProxy == nil {
			zap.S().Warnw("generated relationship end has no canonical projection, skipping",
				"canonicalType", ec.CanonicalType, "guid", entity.GUID)
			continue
		}
		rel := &metabridge.Relationship{
			InstanceHeader: m.relationshipHeader(ec, "", entity.Status, entity),
			EndOne:         oneProxy,
			EndTwo:         twoProxy,
		}
		rel.ID = metabridge.GeneratedInstanceID(ec.Prefix, entity.GUID)
		out = append(out, rel)
	}
	return out, nil
}

// RelationshipFromVendor translates a first-class vendor relationship
// snapshot. Only non-generated mappings apply here; generated relationships
// have no vendor-side object to fetch.
func (m *InstanceMapper) RelationshipFromVendor(ctx context.Context, rel *graph.Relationship) (*metabridge.Relationship, error) {
	if rel == nil {
		return nil, nil
	}
	ec := m.store.EndpointMapping(rel.TypeName, "")
	if ec == nil {
		return nil, nil
	}

	end1, end2 := rel.End1, rel.End2
	var onePhysical, twoPhysical graph.ObjectID
	switch {
	case ec.One.VendorEnd == VendorEndOne && ec.Two.VendorEnd == VendorEndTwo:
		onePhysical, twoPhysical = end1, end2
	case ec.One.VendorEnd == VendorEndTwo && ec.Two.VendorEnd == VendorEndOne:
		onePhysical, twoPhysical = end2, end1
	default:
		return nil, metabridge.NewMalformedEndsError(rel.TypeName, "")
	}

	oneProxy, err := m.ProxyForGUID(ctx, onePhysical.GUID, ec.One.Prefix)
	if err != nil {
		return nil, err
	}
	twoProxy, err := m.ProxyForGUID(ctx, twoPhysical.GUID, ec.Two.Prefix)
	if err != nil {
		return nil, err
	}
	if oneProxy == nil || twoProxy == nil {
		return nil, nil
	}

	out := &metabridge.Relationship{
		InstanceHeader: metabridge.InstanceHeader{
			TypeName:         ec.CanonicalType,
			ID:               metabridge.InstanceID{Base: rel.GUID},
			HomeCollectionID: rel.HomeID,
			Provenance:       metabridge.ProvenanceLocal,
			Status:           m.statusFromVendor(rel.Status, rel.GUID),
			CreatedBy:        rel.CreatedBy,
			UpdatedBy:        rel.UpdatedBy,
			Version:          rel.Version,
		},
		EndOne: oneProxy,
		EndTwo: twoProxy,
	}
	if out.HomeCollectionID == "" {
		out.HomeCollectionID = m.collectionID
	}
	if rel.CreateTime != 0 {
		out.CreateTime = time.UnixMilli(rel.CreateTime).UTC()
	}
	if rel.UpdateTime != 0 {
		out.UpdateTime = time.UnixMilli(rel.UpdateTime).UTC()
	}
	out.Properties = m.relationshipProperties(ec, rel.Attributes)
	return out, nil
}

func (m *InstanceMapper) relationshipHeader(ec *EndpointCorrespondence, relGUID, status string, owner *graph.Entity) metabridge.InstanceHeader {
	header := metabridge.InstanceHeader{
		TypeName:         ec.CanonicalType,
		ID:               metabridge.InstanceID{Base: relGUID, Tag: ec.Prefix},
		HomeCollectionID: owner.HomeID,
		Provenance:       metabridge.ProvenanceLocal,
		Status:           m.statusFromVendor(status, relGUID),
		CreatedBy:        owner.CreatedBy,
		UpdatedBy:        owner.UpdatedBy,
		Version:          owner.Version,
	}
	if header.HomeCollectionID == "" {
		header.HomeCollectionID = m.collectionID
	}
	if owner.CreateTime != 0 {
		header.CreateTime = time.UnixMilli(owner.CreateTime).UTC()
	}
	if owner.UpdateTime != 0 {
		header.UpdateTime = time.UnixMilli(owner.UpdateTime).UTC()
	}
	return header
}

// relationshipProperties translates the attribute bag carried on a vendor
// relationship, scoped to the mapping's canonical type and prefix.
func (m *InstanceMapper) relationshipProperties(ec *EndpointCorrespondence, attributes map[string]any) map[string]metabridge.PropertyValue {
	if len(attributes) == 0 {
		return nil
	}
	attrs := m.store.AttributesFor(ec.CanonicalType)
	var props map[string]metabridge.PropertyValue
	for vendorName, raw := range attributes {
		if raw == nil {
			continue
		}
		canonicalName, ok := m.store.CanonicalAttributeName(ec.CanonicalType, ec.Prefix, vendorName)
		if !ok {
			continue
		}
		def, known := attrs[canonicalName]
		if !known {
			continue
		}
		if value, skipped := m.codec.ToPropertyValue(raw, def); !skipped {
			if props == nil {
				props = make(map[string]metabridge.PropertyValue)
			}
			props[canonicalName] = value
		}
	}
	return props
}

// PageSlice applies the canonical page window: the whole list when the
// window covers it, otherwise sublist(from, min(from+size, len)). Empty
// results are nil, never an empty slice.
func PageSlice[T any](list []T, page metabridge.PageRequest) []T {
	if len(list) == 0 {
		return nil
	}
	from := page.From
	if from < 0 {
		from = 0
	}
	if from == 0 && (page.Size <= 0 || page.Size >= len(list)) {
		return list
	}
	if from >= len(list) {
		return nil
	}
	end := len(list)
	if page.Size > 0 && from+page.Size < end {
		end = from + page.Size
	}
	window := list[from:end]
	if len(window) == 0 {
		return nil
	}
	return window
}
