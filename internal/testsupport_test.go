package internal

import (
	"context"
	"net/http"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

// fakeCatalog is an in-memory graph.Catalog for tests.
type fakeCatalog struct {
	entities      map[string]*graph.Entity
	relationships map[string]*graph.Relationship
	searchResults map[string]*graph.SearchResult

	createdTypes    []*graph.TypesDef
	createTypesErr  error
	createdEntities []*graph.Entity
	updatedEntities []*graph.Entity
	mutations       map[string]*graph.MutationResponse
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		entities:      make(map[string]*graph.Entity),
		relationships: make(map[string]*graph.Relationship),
		searchResults: make(map[string]*graph.SearchResult),
		mutations:     make(map[string]*graph.MutationResponse),
	}
}

func notFound(endpoint string) error {
	return &graph.RemoteError{StatusCode: http.StatusNotFound, Endpoint: endpoint}
}

func (f *fakeCatalog) GetEntityByGUID(_ context.Context, guid string, _, _ bool) (*graph.Entity, error) {
	if e, ok := f.entities[guid]; ok {
		return e, nil
	}
	return nil, notFound("/entity/guid/" + guid)
}

func (f *fakeCatalog) GetRelationshipByGUID(_ context.Context, guid string) (*graph.Relationship, error) {
	if r, ok := f.relationships[guid]; ok {
		return r, nil
	}
	return nil, notFound("/relationship/guid/" + guid)
}

func (f *fakeCatalog) GetAllTypeDefs(context.Context) (*graph.TypesDef, error) {
	return &graph.TypesDef{}, nil
}

func (f *fakeCatalog) CreateTypeDefs(_ context.Context, defs *graph.TypesDef) (*graph.TypesDef, error) {
	if f.createTypesErr != nil {
		return nil, f.createTypesErr
	}
	f.createdTypes = append(f.createdTypes, defs)
	return defs, nil
}

func (f *fakeCatalog) CreateEntity(_ context.Context, entity *graph.Entity) (*graph.MutationResponse, error) {
	f.createdEntities = append(f.createdEntities, entity)
	if m, ok := f.mutations[entity.GUID]; ok {
		return m, nil
	}
	return &graph.MutationResponse{
		MutatedEntities: map[string][]graph.EntityHeader{
			graph.MutationCreate: {{GUID: entity.GUID, TypeName: entity.TypeName}},
		},
	}, nil
}

func (f *fakeCatalog) UpdateEntity(_ context.Context, entity *graph.Entity) (*graph.MutationResponse, error) {
	f.updatedEntities = append(f.updatedEntities, entity)
	if m, ok := f.mutations[entity.GUID]; ok {
		return m, nil
	}
	return &graph.MutationResponse{
		MutatedEntities: map[string][]graph.EntityHeader{
			graph.MutationUpdate: {{GUID: entity.GUID, TypeName: entity.TypeName}},
		},
	}, nil
}

func (f *fakeCatalog) SearchWithParameters(_ context.Context, params *graph.SearchParameters) (*graph.SearchResult, error) {
	if r, ok := f.searchResults[params.TypeName]; ok {
		return r, nil
	}
	return &graph.SearchResult{}, nil
}

func stringAttr(name string, unique bool) metabridge.AttributeDef {
	return metabridge.AttributeDef{
		Name:        name,
		Category:    metabridge.AttributePrimitive,
		Primitive:   metabridge.PrimitiveString,
		Cardinality: metabridge.CardinalityAtMostOne,
		Unique:      unique,
		Indexable:   true,
	}
}

// canonicalTypeDefs returns the definitions the default mapping artifact
// refers to, the way a startup archive would supply them.
func canonicalTypeDefs() []metabridge.TypeDef {
	return []metabridge.TypeDef{
		&metabridge.EntityDef{
			TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-glossary", Name: "Glossary", Version: 1},
			Attributes: []metabridge.AttributeDef{
				stringAttr("qualifiedName", true),
				stringAttr("displayName", false),
				stringAttr("description", false),
				stringAttr("language", false),
				stringAttr("usage", false),
			},
		},
		&metabridge.EntityDef{
			TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-term", Name: "GlossaryTerm", Version: 1},
			Attributes: []metabridge.AttributeDef{
				stringAttr("qualifiedName", true),
				stringAttr("displayName", false),
				stringAttr("summary", false),
				stringAttr("description", false),
				stringAttr("abbreviation", false),
				stringAttr("usage", false),
			},
		},
		&metabridge.EntityDef{
			TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-category", Name: "GlossaryCategory", Version: 1},
			Attributes: []metabridge.AttributeDef{
				stringAttr("qualifiedName", true),
				stringAttr("displayName", false),
				stringAttr("description", false),
			},
		},
		&metabridge.EntityDef{
			TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-table", Name: "RelationalTable", Version: 1},
			Attributes: []metabridge.AttributeDef{
				stringAttr("qualifiedName", true),
				stringAttr("displayName", false),
				stringAttr("description", false),
			},
		},
		&metabridge.EntityDef{
			TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-tabletype", Name: "RelationalTableType", Version: 1},
			Attributes: []metabridge.AttributeDef{
				stringAttr("qualifiedName", true),
				stringAttr("displayName", false),
				stringAttr("usage", false),
			},
		},
		&metabridge.RelationshipDef{
			TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-anchor", Name: "TermAnchor", Version: 1},
			EndOne: metabridge.RelationshipEndDef{
				EntityType:            "Glossary",
				AttributeFromOtherEnd: "anchor",
				Cardinality:           metabridge.CardinalityAtMostOne,
			},
			EndTwo: metabridge.RelationshipEndDef{
				EntityType:            "GlossaryTerm",
				AttributeFromOtherEnd: "terms",
				Cardinality:           metabridge.CardinalityAnyNumberUnordered,
			},
			Propagation: metabridge.PropagateNone,
		},
		&metabridge.RelationshipDef{
			TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-schemaattrtype", Name: "SchemaAttributeType", Version: 1},
			EndOne: metabridge.RelationshipEndDef{
				EntityType:            "RelationalTable",
				AttributeFromOtherEnd: "usedInSchemas",
				Cardinality:           metabridge.CardinalityAnyNumberUnordered,
			},
			EndTwo: metabridge.RelationshipEndDef{
				EntityType:            "RelationalTableType",
				AttributeFromOtherEnd: "type",
				Cardinality:           metabridge.CardinalityAtMostOne,
			},
			Propagation: metabridge.PropagateNone,
		},
		&metabridge.ClassificationDef{
			TypeDefHeader:    metabridge.TypeDefHeader{GUID: "t-confidentiality", Name: "Confidentiality", Version: 1},
			ValidEntityTypes: []string{"GlossaryTerm", "RelationalTable"},
			Attributes: []metabridge.AttributeDef{
				{
					Name:        "level",
					Category:    metabridge.AttributePrimitive,
					Primitive:   metabridge.PrimitiveInt,
					Cardinality: metabridge.CardinalityAtMostOne,
				},
				stringAttr("notes", false),
			},
		},
		&metabridge.EnumDef{
			TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-relstatus", Name: "TermRelationshipStatus", Version: 1},
			Elements: []metabridge.EnumElementDef{
				{Symbol: "DRAFT", Ordinal: 0},
				{Symbol: "ACTIVE", Ordinal: 1},
				{Symbol: "DEPRECATED", Ordinal: 2},
			},
			DefaultValue: "DRAFT",
		},
	}
}

// newTestCollection builds the full stack over a fake catalog, primed with
// the canonical definitions backing the embedded artifact.
func newTestCollection(catalog *fakeCatalog) *MetadataCollection {
	cfg := &metabridge.Config{CollectionID: "coll-local", CollectionName: "test-adapter"}
	collection := NewMetadataCollection(cfg, catalog, DefaultMappingDocument())
	for _, def := range canonicalTypeDefs() {
		collection.PrimeTypeDef(def)
	}
	return collection
}
