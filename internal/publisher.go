package internal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

// TypeDefPublisher translates canonical type definitions into vendor
// type-creation requests. Publication is all-or-nothing per type: the vendor
// call is issued only when every structural element of the definition has a
// vendor representation; otherwise the type is recorded as unimplemented and
// the caller gets a not-supported error naming the type and this adapter.
type TypeDefPublisher struct {
	store     *TypeStore
	enums     *EnumRegistry
	catalog   graph.Catalog
	adapterID string
	journal   *TypeJournal
}

// NewTypeDefPublisher wires a publisher over the shared registries and the
// vendor client.
func NewTypeDefPublisher(store *TypeStore, enums *EnumRegistry, catalog graph.Catalog, adapterID string) *TypeDefPublisher {
	return &TypeDefPublisher{store: store, enums: enums, catalog: catalog, adapterID: adapterID}
}

// SetJournal enables durable recording of publish decisions; nil disables it.
func (p *TypeDefPublisher) SetJournal(journal *TypeJournal) {
	p.journal = journal
}

func (p *TypeDefPublisher) record(ctx context.Context, def metabridge.TypeDef, implemented bool) {
	if p.journal != nil {
		p.journal.Record(ctx, def, implemented)
	}
}

// Publish translates def and creates it in the vendor catalog. A definition
// already recorded as implemented returns nil without a vendor call.
func (p *TypeDefPublisher) Publish(ctx context.Context, def metabridge.TypeDef) error {
	name := def.TypeDefHeaderRef().Name
	if p.store.IsImplemented(name) {
		return nil
	}

	var reasons []string
	types := &graph.TypesDef{}

	switch d := def.(type) {
	case *metabridge.EntityDef:
		types.EntityDefs = append(types.EntityDefs, p.translateEntityDef(d, &reasons))
	case *metabridge.RelationshipDef:
		types.RelationshipDefs = append(types.RelationshipDefs, p.translateRelationshipDef(d, &reasons))
	case *metabridge.ClassificationDef:
		types.ClassificationDefs = append(types.ClassificationDefs, p.translateClassificationDef(d, &reasons))
	case *metabridge.EnumDef:
		p.enums.Register(d)
		types.EnumDefs = append(types.EnumDefs, p.translateEnumDef(d))
	default:
		reasons = append(reasons, fmt.Sprintf("unrecognized type definition category %T", def))
	}

	if len(reasons) > 0 {
		p.store.RegisterUnimplemented(def)
		p.record(ctx, def, false)
		zap.S().Infow("type definition not coverable", "type", name, "reasons", reasons)
		return metabridge.NewTypeNotSupportedError(name, p.adapterID, reasons)
	}

	if _, err := p.catalog.CreateTypeDefs(ctx, types); err != nil {
		p.store.RegisterUnimplemented(def)
		p.record(ctx, def, false)
		return metabridge.NewTypeNotSupportedError(name, p.adapterID, []string{"vendor rejected type creation"}).
			WithCause(err)
	}

	p.store.Register(def)
	p.record(ctx, def, true)
	return nil
}

// Verify reports whether the canonical type is already usable through this
// adapter. Unknown types return (false, nil) so the caller can attempt
// Publish; types previously rejected return a not-supported error.
func (p *TypeDefPublisher) Verify(def metabridge.TypeDef) (bool, error) {
	name := def.TypeDefHeaderRef().Name
	if p.store.IsImplemented(name) {
		return true, nil
	}
	if record, _ := p.store.TypeDefByName(name); record != nil {
		return false, metabridge.NewTypeNotSupportedError(name, p.adapterID, []string{"previously rejected as not coverable"})
	}
	return false, nil
}

func (p *TypeDefPublisher) translateHeader(category string, header *metabridge.TypeDefHeader, vendorName string) graph.BaseTypeDef {
	base := graph.BaseTypeDef{
		Category:    category,
		GUID:        header.GUID,
		Name:        vendorName,
		Description: header.Description,
		Version:     header.Version,
		TypeVersion: header.VersionName,
		CreatedBy:   header.CreatedBy,
		UpdatedBy:   header.UpdatedBy,
	}
	if !header.CreateTime.IsZero() {
		base.CreateTime = header.CreateTime.UnixMilli()
	}
	if !header.UpdateTime.IsZero() {
		base.UpdateTime = header.UpdateTime.UnixMilli()
	}
	return base
}

func (p *TypeDefPublisher) translateEntityDef(def *metabridge.EntityDef, reasons *[]string) graph.EntityDef {
	vendorName := p.vendorNameForNewType(def.Name)
	out := graph.EntityDef{
		BaseTypeDef: p.translateHeader(graph.TypeCategoryEntity, &def.TypeDefHeader, vendorName),
	}
	if def.SuperType != "" {
		super := p.store.VendorTypeName(def.SuperType, "")
		if super == "" {
			*reasons = append(*reasons, fmt.Sprintf("supertype %s has no vendor mapping", def.SuperType))
		} else {
			out.SuperTypes = []string{super}
		}
	}
	out.AttributeDefs = p.translateAttributes(def.Name, def.Attributes, reasons)
	return out
}

func (p *TypeDefPublisher) translateClassificationDef(def *metabridge.ClassificationDef, reasons *[]string) graph.ClassificationDef {
	vendorName := p.vendorNameForNewType(def.Name)
	out := graph.ClassificationDef{
		BaseTypeDef: p.translateHeader(graph.TypeCategoryClassification, &def.TypeDefHeader, vendorName),
	}
	for _, entityType := range def.ValidEntityTypes {
		if vendor := p.store.VendorTypeName(entityType, ""); vendor != "" {
			out.EntityTypes = append(out.EntityTypes, vendor)
		} else {
			zap.S().Debugw("classification valid-entity type unmapped, dropping",
				"classification", def.Name, "entityType", entityType)
		}
	}
	if len(def.ValidEntityTypes) > 0 && len(out.EntityTypes) == 0 {
		*reasons = append(*reasons, "no valid entity type has a vendor mapping")
	}
	out.AttributeDefs = p.translateAttributes(def.Name, def.Attributes, reasons)
	return out
}

// translateRelationshipDef performs the explicit end swap: the vendor stores
// each end's own outward-pointing attribute, so vendor end N takes the
// canonical OTHER end's AttributeFromOtherEnd, description and cardinality,
// while the entity type stays with its own end.
func (p *TypeDefPublisher) translateRelationshipDef(def *metabridge.RelationshipDef, reasons *[]string) graph.RelationshipDef {
	vendorName := p.vendorNameForNewType(def.Name)
	out := graph.RelationshipDef{
		BaseTypeDef:          p.translateHeader(graph.TypeCategoryRelationship, &def.TypeDefHeader, vendorName),
		RelationshipCategory: graph.RelationshipAssociation,
		PropagateTags:        translatePropagation(def.Propagation),
	}

	out.EndDef1 = p.translateEnd(1, def.EndOne, def.EndTwo, reasons)
	out.EndDef2 = p.translateEnd(2, def.EndTwo, def.EndOne, reasons)

	// A single end referencing a multi end reads as containment: the single
	// side is the container.
	oneMulti := def.EndOne.Cardinality.Multi()
	twoMulti := def.EndTwo.Cardinality.Multi()
	if oneMulti != twoMulti {
		out.RelationshipCategory = graph.RelationshipAggregation
		if oneMulti {
			// End one's attribute (held by end-two entities) is multi-valued,
			// so an end-two entity contains many end-one entities.
			out.EndDef2.IsContainer = true
		} else {
			out.EndDef1.IsContainer = true
		}
	}

	out.AttributeDefs = p.translateAttributes(def.Name, def.Attributes, reasons)
	return out
}

func (p *TypeDefPublisher) translateEnd(n int, own, other metabridge.RelationshipEndDef, reasons *[]string) graph.RelationshipEndDef {
	end := graph.RelationshipEndDef{
		Type:        p.store.VendorTypeName(own.EntityType, ""),
		Name:        other.AttributeFromOtherEnd,
		Description: other.Description,
	}
	if end.Type == "" {
		*reasons = append(*reasons, fmt.Sprintf("end %d entity type %s has no vendor mapping", n, own.EntityType))
	}
	switch {
	case other.Cardinality == metabridge.CardinalityUnknown:
		*reasons = append(*reasons, fmt.Sprintf("end %d cardinality is unknown", n))
	case other.Cardinality.Multi():
		end.Cardinality = graph.CardinalitySet
	default:
		end.Cardinality = graph.CardinalitySingle
	}
	return end
}

func (p *TypeDefPublisher) translateEnumDef(def *metabridge.EnumDef) graph.EnumDef {
	vendorName := p.enums.VendorEnumName(def.Name)
	out := graph.EnumDef{
		BaseTypeDef: p.translateHeader(graph.TypeCategoryEnum, &def.TypeDefHeader, vendorName),
	}
	for _, element := range def.Elements {
		out.ElementDefs = append(out.ElementDefs, graph.EnumElementDef{
			Value:       p.enums.VendorElement(def.Name, element.Symbol),
			Ordinal:     element.Ordinal,
			Description: element.Description,
		})
	}
	if def.DefaultValue != "" {
		out.DefaultValue = p.enums.VendorElement(def.Name, def.DefaultValue)
	}
	return out
}

func (p *TypeDefPublisher) translateAttributes(typeName string, attrs []metabridge.AttributeDef, reasons *[]string) []graph.AttributeDef {
	corr := p.store.Correspondence(typeName, "")
	out := make([]graph.AttributeDef, 0, len(attrs))
	for _, attr := range attrs {
		name := attr.Name
		if corr != nil {
			if vendor, ok := corr.VendorAttribute(attr.Name); ok {
				name = vendor
			}
		}

		vendorType, ok := p.vendorAttributeTypeName(attr)
		if !ok {
			*reasons = append(*reasons, fmt.Sprintf("attribute %s has no vendor type representation", attr.Name))
			continue
		}

		def := graph.AttributeDef{
			Name:        name,
			TypeName:    vendorType,
			Description: attr.Description,
			IsUnique:    attr.Unique,
			IsIndexable: attr.Indexable,
		}
		switch {
		case attr.Cardinality == metabridge.CardinalityUnknown:
			*reasons = append(*reasons, fmt.Sprintf("attribute %s has unknown cardinality", attr.Name))
			continue
		case !attr.Cardinality.Multi():
			def.Cardinality = graph.CardinalitySingle
			def.IsOptional = attr.Cardinality != metabridge.CardinalityOneOnly
			if attr.Cardinality == metabridge.CardinalityOneOnly {
				def.ValuesMinCount = 1
			}
			def.ValuesMaxCount = 1
		case attr.Cardinality.Ordered():
			def.Cardinality = graph.CardinalityList
			def.IsOptional = attr.Cardinality != metabridge.CardinalityAtLeastOneOrdered
			if attr.Cardinality == metabridge.CardinalityAtLeastOneOrdered {
				def.ValuesMinCount = 1
			}
		default:
			def.Cardinality = graph.CardinalitySet
			def.IsOptional = true
		}
		out = append(out, def)
	}
	return out
}

// vendorAttributeTypeName renders a canonical attribute type as the vendor's
// type-name string: primitives by category name, enums through the registry,
// collections in the vendor's generic syntax.
func (p *TypeDefPublisher) vendorAttributeTypeName(attr metabridge.AttributeDef) (string, bool) {
	switch attr.Category {
	case metabridge.AttributePrimitive:
		if attr.Primitive == metabridge.PrimitiveUnknown || attr.Primitive == "" {
			return "", false
		}
		if attr.Primitive == metabridge.PrimitiveChar {
			return string(metabridge.PrimitiveString), true
		}
		return string(attr.Primitive), true
	case metabridge.AttributeEnum:
		if attr.EnumType == "" {
			return "", false
		}
		return p.enums.VendorEnumName(attr.EnumType), true
	case metabridge.AttributeArray:
		if attr.ElementType == "" {
			return "", false
		}
		return fmt.Sprintf("array<%s>", attr.ElementType), true
	case metabridge.AttributeMap:
		if attr.KeyType == "" || attr.ValueType == "" {
			return "", false
		}
		return fmt.Sprintf("map<%s,%s>", attr.KeyType, attr.ValueType), true
	case metabridge.AttributeStruct:
		if attr.ElementType == "" {
			return "", false
		}
		return attr.ElementType, true
	default:
		return "", false
	}
}

// vendorNameForNewType resolves the vendor-side name a new type is created
// under. Types with a declarative mapping keep their mapped vendor name;
// everything else is created under its canonical name.
func (p *TypeDefPublisher) vendorNameForNewType(canonicalName string) string {
	if tc := p.store.Correspondence(canonicalName, ""); tc != nil {
		return tc.VendorName
	}
	return canonicalName
}

func translatePropagation(rule metabridge.PropagationRule) string {
	switch rule {
	case metabridge.PropagateBoth:
		return graph.PropagateBoth
	case metabridge.PropagateOneToTwo:
		return graph.PropagateOneToTwo
	case metabridge.PropagateTwoToOne:
		return graph.PropagateTwoToOne
	default:
		return graph.PropagateNone
	}
}
