package internal

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestRelationshipsForEntityOrientsAssignments(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.entities["glossary-1"] = glossaryEntity()
	mapper := newTestMapper(t, catalog)

	term := &graph.Entity{
		TypeName: "AtlasGlossaryTerm",
		GUID:     "term-1",
		Attributes: map[string]any{
			"name":          "Revenue",
			"qualifiedName": "term.revenue",
		},
		RelationshipAttributes: map[string]json.RawMessage{
			// Single assignment, not a list: normalization promotes it.
			"anchor": rawJSON(t, graph.RelatedObject{
				GUID:             "glossary-1",
				TypeName:         "AtlasGlossary",
				RelationshipType: "AtlasGlossaryTermAnchor",
				RelationshipGUID: "rel-1",
			}),
		},
	}

	rels, err := mapper.RelationshipsForEntity(context.Background(), term, "")
	require.NoError(t, err)
	require.Len(t, rels, 1)

	rel := rels[0]
	assert.Equal(t, "TermAnchor", rel.TypeName)
	assert.Equal(t, "rel-1", rel.ID.String())
	// The term holds "anchor", which orients it to canonical end two.
	require.NotNil(t, rel.EndOne)
	require.NotNil(t, rel.EndTwo)
	assert.Equal(t, "glossary-1", rel.EndOne.ID.Base)
	assert.Equal(t, "Glossary", rel.EndOne.TypeName)
	assert.Equal(t, "term-1", rel.EndTwo.ID.Base)
	assert.Equal(t, "GlossaryTerm", rel.EndTwo.TypeName)
}

func TestRelationshipsForEntityFromOtherSide(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.entities["term-1"] = &graph.Entity{
		TypeName:   "AtlasGlossaryTerm",
		GUID:       "term-1",
		Attributes: map[string]any{"qualifiedName": "term.revenue"},
	}
	mapper := newTestMapper(t, catalog)

	glossary := glossaryEntity()
	glossary.RelationshipAttributes = map[string]json.RawMessage{
		"terms": rawJSON(t, []graph.RelatedObject{{
			GUID:             "term-1",
			TypeName:         "AtlasGlossaryTerm",
			RelationshipType: "AtlasGlossaryTermAnchor",
			RelationshipGUID: "rel-1",
		}}),
	}

	rels, err := mapper.RelationshipsForEntity(context.Background(), glossary, "")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "glossary-1", rels[0].EndOne.ID.Base, "same relationship, same orientation from either side")
	assert.Equal(t, "term-1", rels[0].EndTwo.ID.Base)
}

func TestRelationshipsForEntityUnmappedTypeSkips(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())

	term := &graph.Entity{
		TypeName:   "AtlasGlossaryTerm",
		GUID:       "term-1",
		Attributes: map[string]any{"qualifiedName": "term.revenue"},
		RelationshipAttributes: map[string]json.RawMessage{
			"inputs": rawJSON(t, graph.RelatedObject{
				GUID:             "proc-1",
				TypeName:         "hive_process",
				RelationshipType: "process_dataset_edge",
				RelationshipGUID: "rel-9",
			}),
		},
	}

	rels, err := mapper.RelationshipsForEntity(context.Background(), term, "")
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestRelationshipsForEntityMalformedEnds(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())

	// The relationship type is mapped but the assignment appears under an
	// attribute neither end declares.
	term := &graph.Entity{
		TypeName:   "AtlasGlossaryTerm",
		GUID:       "term-1",
		Attributes: map[string]any{"qualifiedName": "term.revenue"},
		RelationshipAttributes: map[string]json.RawMessage{
			"mystery": rawJSON(t, graph.RelatedObject{
				GUID:             "glossary-1",
				TypeName:         "AtlasGlossary",
				RelationshipType: "AtlasGlossaryTermAnchor",
				RelationshipGUID: "rel-1",
			}),
		},
	}

	_, err := mapper.RelationshipsForEntity(context.Background(), term, "")
	require.Error(t, err)
	assert.True(t, metabridge.HasErrorCode(err, metabridge.ErrCodeMalformedEnds))
}

func TestGeneratedRelationshipSynthesis(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())

	table := &graph.Entity{
		TypeName:   "rdbms_table",
		GUID:       "tbl-1",
		Attributes: map[string]any{"name": "orders", "qualifiedName": "db.orders"},
	}

	rels, err := mapper.RelationshipsForEntity(context.Background(), table, "")
	require.NoError(t, err)
	require.Len(t, rels, 1)

	rel := rels[0]
	assert.Equal(t, "SchemaAttributeType", rel.TypeName)
	assert.Equal(t, metabridge.GeneratedInstanceID("RDBST", "tbl-1"), rel.ID)
	assert.Equal(t, "RDBST!tbl-1", rel.ID.String())

	// Both ends are projections of the same vendor entity.
	assert.Equal(t, "RelationalTable", rel.EndOne.TypeName)
	assert.Equal(t, metabridge.InstanceID{Base: "tbl-1"}, rel.EndOne.ID)
	assert.Equal(t, "RelationalTableType", rel.EndTwo.TypeName)
	assert.Equal(t, metabridge.InstanceID{Base: "tbl-1", Tag: "RDBST"}, rel.EndTwo.ID)
}

func TestGeneratedRelationshipAppearsUnderEitherProjection(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())
	table := &graph.Entity{
		TypeName:   "rdbms_table",
		GUID:       "tbl-1",
		Attributes: map[string]any{"name": "orders"},
	}

	rels, err := mapper.RelationshipsForEntity(context.Background(), table, "RDBST")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "SchemaAttributeType", rels[0].TypeName)
}

func TestRelationshipFromVendor(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.entities["glossary-1"] = glossaryEntity()
	catalog.entities["term-1"] = &graph.Entity{
		TypeName:   "AtlasGlossaryTerm",
		GUID:       "term-1",
		Attributes: map[string]any{"qualifiedName": "term.revenue"},
	}
	mapper := newTestMapper(t, catalog)

	rel, err := mapper.RelationshipFromVendor(context.Background(), &graph.Relationship{
		TypeName:   "AtlasGlossaryTermAnchor",
		GUID:       "rel-1",
		Status:     graph.StatusActive,
		CreateTime: 1700000000000,
		Version:    2,
		End1:       graph.ObjectID{GUID: "glossary-1", TypeName: "AtlasGlossary"},
		End2:       graph.ObjectID{GUID: "term-1", TypeName: "AtlasGlossaryTerm"},
	})
	require.NoError(t, err)
	require.NotNil(t, rel)

	assert.Equal(t, "TermAnchor", rel.TypeName)
	assert.Equal(t, "rel-1", rel.ID.String())
	assert.Equal(t, "coll-local", rel.HomeCollectionID)
	assert.Equal(t, "glossary-1", rel.EndOne.ID.Base)
	assert.Equal(t, "term-1", rel.EndTwo.ID.Base)
	assert.Equal(t, int64(2), rel.Version)
}

func TestRelationshipFromVendorUnmappedType(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())
	rel, err := mapper.RelationshipFromVendor(context.Background(), &graph.Relationship{
		TypeName: "process_dataset_edge",
		GUID:     "rel-9",
	})
	require.NoError(t, err)
	assert.Nil(t, rel)
}

func TestPageSlice(t *testing.T) {
	list := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		list []int
		page metabridge.PageRequest
		want []int
	}{
		{name: "no window returns whole list", list: list, page: metabridge.PageRequest{}, want: list},
		{name: "first page", list: list, page: metabridge.PageRequest{From: 0, Size: 2}, want: []int{1, 2}},
		{name: "middle page", list: list, page: metabridge.PageRequest{From: 2, Size: 2}, want: []int{3, 4}},
		{name: "window past end is clamped", list: list, page: metabridge.PageRequest{From: 3, Size: 10}, want: []int{4, 5}},
		{name: "from past end", list: list, page: metabridge.PageRequest{From: 9, Size: 2}, want: nil},
		{name: "negative from treated as zero", list: list, page: metabridge.PageRequest{From: -1, Size: 2}, want: []int{1, 2}},
		{name: "empty list", list: nil, page: metabridge.PageRequest{From: 0, Size: 2}, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PageSlice(tc.list, tc.page))
		})
	}
}
