package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metabridge/metabridge"
)

func TestEnumRegistryRegisterIdentity(t *testing.T) {
	enums := NewEnumRegistry()
	enums.Register(&metabridge.EnumDef{
		TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-crit", Name: "CriticalityLevel", Version: 1},
		Elements: []metabridge.EnumElementDef{
			{Symbol: "LOW", Ordinal: 0},
			{Symbol: "HIGH", Ordinal: 1},
		},
	})

	assert.Equal(t, "CriticalityLevel", enums.VendorEnumName("CriticalityLevel"))
	assert.Equal(t, "CriticalityLevel", enums.CanonicalEnumName("CriticalityLevel"))
	assert.Equal(t, "HIGH", enums.VendorElement("CriticalityLevel", "HIGH"))

	symbol, ordinal, ok := enums.CanonicalElement("CriticalityLevel", "LOW")
	require.True(t, ok)
	assert.Equal(t, "LOW", symbol)
	assert.Equal(t, 0, ordinal)
}

func TestEnumRegistryArtifactTakesPrecedence(t *testing.T) {
	enums := NewEnumRegistry()
	enums.AddMapping("TermRelationshipStatus", "AtlasTermRelationshipStatus",
		map[string]string{"DRAFT": "DRAFT"}, map[string]int{"DRAFT": 0})

	// A later runtime registration must not displace the artifact mapping.
	enums.Register(&metabridge.EnumDef{
		TypeDefHeader: metabridge.TypeDefHeader{GUID: "t-s", Name: "TermRelationshipStatus", Version: 1},
		Elements:      []metabridge.EnumElementDef{{Symbol: "DRAFT", Ordinal: 0}},
	})
	assert.Equal(t, "AtlasTermRelationshipStatus", enums.VendorEnumName("TermRelationshipStatus"))
}

func TestEnumRegistryPassThrough(t *testing.T) {
	enums := NewEnumRegistry()

	// An enum nobody registered resolves by name, and its elements pass
	// through untranslated.
	assert.Equal(t, "Mystery", enums.VendorEnumName("Mystery"))
	assert.Equal(t, "", enums.CanonicalEnumName("Mystery"))
	assert.Equal(t, "X", enums.VendorElement("Mystery", "X"))

	_, _, ok := enums.CanonicalElement("Mystery", "X")
	assert.False(t, ok, "unknown enum types are not resolvable")

	// A known enum passes unknown values through with ordinal -1.
	enums.AddMapping("Status", "VendorStatus", map[string]string{"A": "a"}, map[string]int{"A": 0})
	symbol, ordinal, ok := enums.CanonicalElement("Status", "z")
	require.True(t, ok)
	assert.Equal(t, "z", symbol)
	assert.Equal(t, -1, ordinal)

	// A known enum passes unknown symbols through on the way out too.
	assert.Equal(t, "B", enums.VendorElement("Status", "B"))
	assert.Equal(t, "a", enums.VendorElement("Status", "A"))
}
