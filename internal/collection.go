package internal

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

// MetadataCollection is the adapter's repository facade: it implements the
// canonical repository surface on top of the vendor catalog, delegating
// type-level work to the publisher and instance-level work to the mapper.
type MetadataCollection struct {
	store     *TypeStore
	enums     *EnumRegistry
	codec     *AttributeCodec
	mapper    *InstanceMapper
	publisher *TypeDefPublisher
	catalog   graph.Catalog

	collectionID   string
	collectionName string
}

var _ metabridge.Repository = (*MetadataCollection)(nil)

// NewMetadataCollection assembles the full translation stack over a vendor
// client and a mapping artifact.
func NewMetadataCollection(cfg *metabridge.Config, catalog graph.Catalog, doc *MappingDocument) *MetadataCollection {
	store := NewTypeStore()
	enums := NewEnumRegistry()
	if doc != nil {
		doc.Populate(store, enums)
	}
	codec := NewAttributeCodec(enums)
	mapper := NewInstanceMapper(store, enums, codec, catalog, cfg.CollectionID, cfg.CollectionName)
	publisher := NewTypeDefPublisher(store, enums, catalog, cfg.CollectionName)

	return &MetadataCollection{
		store:          store,
		enums:          enums,
		codec:          codec,
		mapper:         mapper,
		publisher:      publisher,
		catalog:        catalog,
		collectionID:   cfg.CollectionID,
		collectionName: cfg.CollectionName,
	}
}

// TypeStore exposes the registry for event translation and startup priming.
func (c *MetadataCollection) TypeStore() *TypeStore { return c.store }

// Mapper exposes the instance mapper for event translation.
func (c *MetadataCollection) Mapper() *InstanceMapper { return c.mapper }

// Publisher exposes the type publisher so callers can attach a journal.
func (c *MetadataCollection) Publisher() *TypeDefPublisher { return c.publisher }

// PrimeTypeDef registers a canonical definition as already implemented
// without a vendor call. Used at startup for types whose vendor counterparts
// are known to exist.
func (c *MetadataCollection) PrimeTypeDef(def metabridge.TypeDef) {
	if enum, ok := def.(*metabridge.EnumDef); ok {
		c.enums.Register(enum)
	}
	c.store.Register(def)
}

func (c *MetadataCollection) GetEntityDetail(ctx context.Context, guid string) (*metabridge.EntityDetail, error) {
	id := metabridge.ParseInstanceID(guid)
	entity, err := c.fetchEntity(ctx, id.Base, false, true)
	if err != nil {
		return nil, err
	}
	detail := c.mapper.EntityDetailFromVendor(entity, id.Tag)
	if detail == nil {
		return nil, metabridge.NewEntityNotFoundError(guid)
	}
	return detail, nil
}

func (c *MetadataCollection) GetEntitySummary(ctx context.Context, guid string) (*metabridge.EntitySummary, error) {
	id := metabridge.ParseInstanceID(guid)
	entity, err := c.fetchEntity(ctx, id.Base, true, true)
	if err != nil {
		return nil, err
	}
	summary := c.mapper.EntitySummaryFromVendor(entity, id.Tag)
	if summary == nil {
		return nil, metabridge.NewEntityNotFoundError(guid)
	}
	return summary, nil
}

func (c *MetadataCollection) GetRelationship(ctx context.Context, guid string) (*metabridge.Relationship, error) {
	id := metabridge.ParseInstanceID(guid)

	if id.IsGenerated() {
		if ec := c.store.GeneratedMappingForPrefix(id.Tag); ec != nil {
			return c.getGeneratedRelationship(ctx, id, ec)
		}
	}

	rel, err := c.catalog.GetRelationshipByGUID(ctx, id.Base)
	if err != nil {
		var remote *graph.RemoteError
		if errors.As(err, &remote) && remote.IsNotFound() {
			return nil, metabridge.NewRelationshipNotFoundError(guid)
		}
		return nil, metabridge.NewRemoteFailureError("get relationship by guid", err)
	}
	out, err := c.mapper.RelationshipFromVendor(ctx, rel)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, metabridge.NewRelationshipNotFoundError(guid)
	}
	return out, nil
}

// getGeneratedRelationship re-synthesizes a generated relationship from its
// underlying vendor entity; there is no vendor object to fetch.
func (c *MetadataCollection) getGeneratedRelationship(ctx context.Context, id metabridge.InstanceID, ec *EndpointCorrespondence) (*metabridge.Relationship, error) {
	entity, err := c.fetchEntity(ctx, id.Base, true, true)
	if err != nil {
		if metabridge.IsNotFound(err) {
			return nil, metabridge.NewRelationshipNotFoundError(id.String())
		}
		return nil, err
	}
	if entity.TypeName != ec.VendorType {
		return nil, metabridge.NewRelationshipNotFoundError(id.String())
	}
	rels, err := c.mapper.generatedRelationships(entity)
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		if rel.ID == id {
			return rel, nil
		}
	}
	return nil, metabridge.NewRelationshipNotFoundError(id.String())
}

func (c *MetadataCollection) AddTypeDef(ctx context.Context, def metabridge.TypeDef) error {
	return c.publisher.Publish(ctx, def)
}

func (c *MetadataCollection) VerifyTypeDef(ctx context.Context, def metabridge.TypeDef) (bool, error) {
	return c.publisher.Verify(def)
}

func (c *MetadataCollection) FindEntitiesByProperty(ctx context.Context, typeName string, matches []metabridge.PropertyMatch, criteria metabridge.MatchCriteria, page metabridge.PageRequest, order metabridge.SequencingOrder, sequencingProperty string) ([]*metabridge.EntityDetail, error) {
	return c.findEntities(ctx, typeName, func(prefix, vendorType string) *graph.SearchParameters {
		params := &graph.SearchParameters{
			TypeName:              vendorType,
			IncludeClassification: true,
		}
		params.EntityFilters = c.pushDownFilters(typeName, prefix, matches, criteria)
		return params
	}, func(detail *metabridge.EntityDetail) bool {
		return c.matchEntityProperties(detail, matches, criteria)
	}, page, order, sequencingProperty)
}

func (c *MetadataCollection) FindEntitiesByPropertyValue(ctx context.Context, typeName, value string, page metabridge.PageRequest, order metabridge.SequencingOrder, sequencingProperty string) ([]*metabridge.EntityDetail, error) {
	return c.findEntities(ctx, typeName, func(prefix, vendorType string) *graph.SearchParameters {
		return &graph.SearchParameters{
			TypeName:              vendorType,
			Query:                 value,
			IncludeClassification: true,
		}
	}, nil, page, order, sequencingProperty)
}

func (c *MetadataCollection) FindEntitiesByClassification(ctx context.Context, typeName, classification string, matches []metabridge.PropertyMatch, criteria metabridge.MatchCriteria, page metabridge.PageRequest, order metabridge.SequencingOrder, sequencingProperty string) ([]*metabridge.EntityDetail, error) {
	vendorClassification := c.store.VendorTypeName(classification, "")
	if vendorClassification == "" {
		vendorClassification = classification
	}
	return c.findEntities(ctx, typeName, func(prefix, vendorType string) *graph.SearchParameters {
		return &graph.SearchParameters{
			TypeName:              vendorType,
			Classification:        vendorClassification,
			IncludeClassification: true,
		}
	}, func(detail *metabridge.EntityDetail) bool {
		return c.matchClassificationProperties(detail, classification, matches, criteria)
	}, page, order, sequencingProperty)
}

// findEntities runs one vendor search per prefix projection of the canonical
// type, translates and post-filters the hits, then sorts and pages the
// combined list. The vendor cannot order results itself, so ordering always
// happens here.
func (c *MetadataCollection) findEntities(ctx context.Context, typeName string, build func(prefix, vendorType string) *graph.SearchParameters, keep func(*metabridge.EntityDetail) bool, page metabridge.PageRequest, order metabridge.SequencingOrder, sequencingProperty string) ([]*metabridge.EntityDetail, error) {
	variants := c.store.AllVendorTypeNames(typeName)
	if len(variants) == 0 {
		zap.S().Debugw("find on type with no vendor projection", "type", typeName)
		return nil, nil
	}

	var results []*metabridge.EntityDetail
	for prefix, vendorType := range variants {
		found, err := c.catalog.SearchWithParameters(ctx, build(prefix, vendorType))
		if err != nil {
			return nil, metabridge.NewRemoteFailureError("search entities", err)
		}
		if found == nil {
			continue
		}
		for i := range found.Entities {
			detail := c.mapper.EntityDetailFromVendor(&found.Entities[i], prefix)
			if detail == nil {
				continue
			}
			if keep != nil && !keep(detail) {
				continue
			}
			results = append(results, detail)
		}
	}

	SortInstances(results, ComparatorFor[*metabridge.EntityDetail](c.codec, order, sequencingProperty))
	return PageSlice(results, page), nil
}

// pushDownFilters renders property matches as a vendor search filter when
// every match can be expressed there; otherwise nil and the post-filter does
// all the work.
func (c *MetadataCollection) pushDownFilters(typeName, prefix string, matches []metabridge.PropertyMatch, criteria metabridge.MatchCriteria) *graph.SearchFilter {
	if len(matches) == 0 || criteria == metabridge.MatchNone {
		return nil
	}
	condition := "AND"
	if criteria == metabridge.MatchAny {
		condition = "OR"
	}
	filter := &graph.SearchFilter{Condition: condition}
	for _, match := range matches {
		if match.Value == nil {
			return nil
		}
		vendorName, ok := c.store.VendorAttributeName(typeName, prefix, match.Name)
		if !ok {
			return nil
		}
		filter.Criterion = append(filter.Criterion, graph.SearchFilter{
			AttributeName:  vendorName,
			Operator:       "eq",
			AttributeValue: match.Value.String(),
		})
	}
	return filter
}

func (c *MetadataCollection) matchEntityProperties(detail *metabridge.EntityDetail, matches []metabridge.PropertyMatch, criteria metabridge.MatchCriteria) bool {
	if len(matches) == 0 {
		return true
	}
	hits := 0
	for _, match := range matches {
		prop := detail.Property(match.Name)
		if prop != nil && match.Value != nil && c.codec.Compare(prop, match.Value) == 0 {
			hits++
		}
	}
	return applyCriteria(criteria, hits, len(matches))
}

func (c *MetadataCollection) matchClassificationProperties(detail *metabridge.EntityDetail, classification string, matches []metabridge.PropertyMatch, criteria metabridge.MatchCriteria) bool {
	for _, cls := range detail.Classifications {
		if cls.Name != classification {
			continue
		}
		if len(matches) == 0 {
			return true
		}
		hits := 0
		for _, match := range matches {
			prop := cls.Properties[match.Name]
			if prop != nil && match.Value != nil && c.codec.Compare(prop, match.Value) == 0 {
				hits++
			}
		}
		if applyCriteria(criteria, hits, len(matches)) {
			return true
		}
	}
	return false
}

func applyCriteria(criteria metabridge.MatchCriteria, hits, total int) bool {
	switch criteria {
	case metabridge.MatchAny:
		return hits > 0
	case metabridge.MatchNone:
		return hits == 0
	default:
		return hits == total
	}
}

func (c *MetadataCollection) GetRelationshipsForEntity(ctx context.Context, guid string, typeFilter []string, page metabridge.PageRequest, order metabridge.SequencingOrder, sequencingProperty string) ([]*metabridge.Relationship, error) {
	id := metabridge.ParseInstanceID(guid)
	entity, err := c.fetchEntity(ctx, id.Base, false, false)
	if err != nil {
		return nil, err
	}

	rels, err := c.mapper.RelationshipsForEntity(ctx, entity, id.Tag)
	if err != nil {
		return nil, err
	}
	if len(typeFilter) > 0 {
		wanted := make(map[string]struct{}, len(typeFilter))
		for _, name := range typeFilter {
			wanted[name] = struct{}{}
		}
		filtered := rels[:0]
		for _, rel := range rels {
			if _, ok := wanted[rel.TypeName]; ok {
				filtered = append(filtered, rel)
			}
		}
		rels = filtered
	}

	SortInstances(rels, ComparatorFor[*metabridge.Relationship](c.codec, order, sequencingProperty))
	return PageSlice(rels, page), nil
}

func (c *MetadataCollection) SaveEntityReferenceCopy(ctx context.Context, entity *metabridge.EntityDetail) (metabridge.OperationOutcome, error) {
	return c.mapper.SaveEntityReferenceCopy(ctx, entity)
}

func (c *MetadataCollection) GetEntityDetailAsOfTime(ctx context.Context, guid string, asOf time.Time) (*metabridge.EntityDetail, error) {
	return nil, metabridge.NewFunctionNotSupportedError("getEntityDetailAsOfTime", c.collectionName)
}

func (c *MetadataCollection) GetRelationshipsForEntityAsOfTime(ctx context.Context, guid string, asOf time.Time) ([]*metabridge.Relationship, error) {
	return nil, metabridge.NewFunctionNotSupportedError("getRelationshipsForEntityAsOfTime", c.collectionName)
}

func (c *MetadataCollection) fetchEntity(ctx context.Context, guid string, minExtInfo, ignoreRelationships bool) (*graph.Entity, error) {
	entity, err := c.catalog.GetEntityByGUID(ctx, guid, minExtInfo, ignoreRelationships)
	if err != nil {
		var remote *graph.RemoteError
		if errors.As(err, &remote) && remote.IsNotFound() {
			return nil, metabridge.NewEntityNotFoundError(guid)
		}
		return nil, metabridge.NewRemoteFailureError("get entity by guid", err)
	}
	return entity, nil
}
