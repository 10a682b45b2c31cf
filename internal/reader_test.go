package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

func newTestMapper(t *testing.T, catalog *fakeCatalog) *InstanceMapper {
	t.Helper()
	store := NewTypeStore()
	enums := NewEnumRegistry()
	DefaultMappingDocument().Populate(store, enums)
	for _, def := range canonicalTypeDefs() {
		store.Register(def)
		if enum, ok := def.(*metabridge.EnumDef); ok {
			enums.Register(enum)
		}
	}
	codec := NewAttributeCodec(enums)
	return NewInstanceMapper(store, enums, codec, catalog, "coll-local", "test-adapter")
}

func glossaryEntity() *graph.Entity {
	return &graph.Entity{
		TypeName:   "AtlasGlossary",
		GUID:       "glossary-1",
		Status:     graph.StatusActive,
		CreatedBy:  "alice",
		UpdatedBy:  "bob",
		CreateTime: 1700000000000,
		UpdateTime: 1700000100000,
		Version:    3,
		Attributes: map[string]any{
			"name":            "Business Terms",
			"longDescription": "shared vocabulary",
			"qualifiedName":   "glossary.business",
			"reviewCycle":     map[string]any{"months": float64(6)},
		},
		Classifications: []graph.Classification{
			{TypeName: "Confidentiality", Attributes: map[string]any{"level": float64(3)}},
			{TypeName: "VendorOnlyTag"},
		},
	}
}

func TestEntityDetailFromVendor(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())

	detail := mapper.EntityDetailFromVendor(glossaryEntity(), "")
	require.NotNil(t, detail)

	assert.Equal(t, "Glossary", detail.TypeName)
	assert.Equal(t, metabridge.InstanceID{Base: "glossary-1"}, detail.ID)
	assert.Equal(t, metabridge.StatusActive, detail.Status)
	assert.Equal(t, metabridge.ProvenanceLocal, detail.Provenance)
	assert.Equal(t, "coll-local", detail.HomeCollectionID, "empty vendor home falls back to the local collection")
	assert.Equal(t, int64(3), detail.Version)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), detail.CreateTime)

	assert.Equal(t, "Business Terms", detail.Property("displayName").String())
	assert.Equal(t, "shared vocabulary", detail.Property("description").String())
	assert.Equal(t, "glossary.business", detail.Property("qualifiedName").String(),
		"declared-but-unmapped attributes resolve by identity")

	// Vendor attributes with no canonical counterpart survive as strings.
	require.Contains(t, detail.AdditionalProperties, "reviewCycle")
	assert.JSONEq(t, `{"months": 6}`, detail.AdditionalProperties["reviewCycle"])

	// Known classification translated, unknown one dropped.
	require.Len(t, detail.Classifications, 1)
	cls := detail.Classifications[0]
	assert.Equal(t, "Confidentiality", cls.Name)
	assert.Equal(t, int32(3), cls.Properties["level"].(metabridge.PrimitiveValue).Value)
	assert.Equal(t, "alice", cls.CreatedBy, "classification audit comes from the owning entity")
}

func TestEntityDetailFromVendorPrefixed(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())
	table := &graph.Entity{
		TypeName: "rdbms_table",
		GUID:     "tbl-1",
		Attributes: map[string]any{
			"name": "orders",
			"type": "fact",
		},
	}

	detail := mapper.EntityDetailFromVendor(table, "RDBST")
	require.NotNil(t, detail)
	assert.Equal(t, "RelationalTableType", detail.TypeName)
	assert.Equal(t, metabridge.InstanceID{Base: "tbl-1", Tag: "RDBST"}, detail.ID)
	assert.Equal(t, "RDBST!tbl-1", detail.ID.String())
	assert.Equal(t, "fact", detail.Property("usage").String())

	// The same snapshot under the default projection is a different
	// canonical entity.
	base := mapper.EntityDetailFromVendor(table, "")
	require.NotNil(t, base)
	assert.Equal(t, "RelationalTable", base.TypeName)
	assert.Equal(t, "tbl-1", base.ID.String())
}

func TestEntityDetailFromVendorUnmappedType(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())
	assert.Nil(t, mapper.EntityDetailFromVendor(&graph.Entity{TypeName: "hive_process", GUID: "p-1"}, ""))
	assert.Nil(t, mapper.EntityDetailFromVendor(&graph.Entity{TypeName: "AtlasGlossary", GUID: "g-1"}, "RDBST"),
		"a prefix the type does not project under yields nothing")
}

func TestStatusDefaultsToActive(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())

	entity := glossaryEntity()
	entity.Status = "PURGED"
	detail := mapper.EntityDetailFromVendor(entity, "")
	require.NotNil(t, detail)
	assert.Equal(t, metabridge.StatusActive, detail.Status)

	entity.Status = graph.StatusDeleted
	assert.Equal(t, metabridge.StatusDeleted, mapper.EntityDetailFromVendor(entity, "").Status)
}

func TestEntitySummaryFromVendor(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())

	summary := mapper.EntitySummaryFromVendor(glossaryEntity(), "")
	require.NotNil(t, summary)
	assert.Equal(t, "Glossary", summary.TypeName)
	require.Len(t, summary.Classifications, 1)
	assert.Equal(t, "Confidentiality", summary.Classifications[0].Name)
}

func TestEntityProxyCarriesUniquePropertiesOnly(t *testing.T) {
	mapper := newTestMapper(t, newFakeCatalog())

	proxy := mapper.EntityProxyFromVendor(glossaryEntity(), "")
	require.NotNil(t, proxy)
	assert.Equal(t, "Glossary", proxy.TypeName)
	require.Contains(t, proxy.UniqueProperties, "qualifiedName")
	assert.NotContains(t, proxy.UniqueProperties, "displayName")
}

func TestProxyForGUID(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.entities["glossary-1"] = glossaryEntity()
	mapper := newTestMapper(t, catalog)

	proxy, err := mapper.ProxyForGUID(context.Background(), "glossary-1", "")
	require.NoError(t, err)
	require.NotNil(t, proxy)
	assert.Equal(t, "glossary-1", proxy.ID.Base)

	_, err = mapper.ProxyForGUID(context.Background(), "missing", "")
	require.Error(t, err)
	assert.True(t, metabridge.IsNotFound(err))
	assert.True(t, metabridge.HasErrorCode(err, metabridge.ErrCodeEntityNotFound))
}
