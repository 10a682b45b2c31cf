package graph

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRelatedObjects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "empty", raw: "", want: 0},
		{name: "single object promoted", raw: `{"guid":"g-1","typeName":"AtlasGlossary"}`, want: 1},
		{name: "list", raw: `[{"guid":"g-1"},{"guid":"g-2"}]`, want: 2},
		{name: "empty object yields nothing", raw: `{}`, want: 0},
		{name: "null", raw: `null`, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeRelatedObjects(json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Len(t, got, tc.want)
		})
	}

	_, err := NormalizeRelatedObjects(json.RawMessage(`"just a string"`))
	assert.Error(t, err)
}

func TestNormalizeRelatedObjectsFields(t *testing.T) {
	raw := json.RawMessage(`{"guid":"g-1","typeName":"AtlasGlossaryTerm",
		"displayText":"Customer","relationshipGuid":"rel-1","relationshipStatus":"ACTIVE"}`)

	got, err := NormalizeRelatedObjects(raw)
	require.NoError(t, err)

	want := []RelatedObject{{
		GUID:               "g-1",
		TypeName:           "AtlasGlossaryTerm",
		DisplayText:        "Customer",
		RelationshipGUID:   "rel-1",
		RelationshipStatus: "ACTIVE",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("related object mismatch (-want +got):\n%s", diff)
	}
}

func TestMutationResponseApplied(t *testing.T) {
	resp := &MutationResponse{
		MutatedEntities: map[string][]EntityHeader{
			MutationCreate: {{GUID: "g-1", TypeName: "AtlasGlossary"}},
			MutationUpdate: {{GUID: "g-2", TypeName: "AtlasGlossary"}},
		},
	}

	assert.Equal(t, MutationCreate, resp.Applied("g-1"))
	assert.Equal(t, MutationUpdate, resp.Applied("g-2"))
	assert.Equal(t, "", resp.Applied("g-3"))

	var empty *MutationResponse
	assert.Equal(t, "", empty.Applied("g-1"))
}
