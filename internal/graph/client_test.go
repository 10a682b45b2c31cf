package graph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEntityByGUID(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"entity": Entity{TypeName: "AtlasGlossary", GUID: "g-1", Status: StatusActive},
		})
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "admin", "secret", time.Second)
	entity, err := client.GetEntityByGUID(context.Background(), "g-1", true, false)
	require.NoError(t, err)

	assert.Equal(t, "AtlasGlossary", entity.TypeName)
	assert.Equal(t, "/api/catalog/v2/entity/guid/g-1", gotPath)
	assert.Contains(t, gotQuery, "minExtInfo=true")
	assert.Contains(t, gotQuery, "ignoreRelationships=false")
	assert.Contains(t, gotAuth, "Basic ", "basic auth is sent when credentials are configured")
}

func TestGetEntityByGUIDNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorCode":"ATLAS-404"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	_, err := client.GetEntityByGUID(context.Background(), "ghost", false, false)
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.True(t, remote.IsNotFound())
	assert.Contains(t, remote.Body, "ATLAS-404")
}

func TestGetEntityByGUIDEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	_, err := client.GetEntityByGUID(context.Background(), "g-1", false, false)
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.True(t, remote.IsNotFound(), "an empty wrapper reads as not found")
}

func TestGetRelationshipByGUID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/catalog/v2/relationship/guid/rel-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"relationship": Relationship{TypeName: "AtlasGlossaryTermAnchor", GUID: "rel-1"},
		})
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	rel, err := client.GetRelationshipByGUID(context.Background(), "rel-1")
	require.NoError(t, err)
	assert.Equal(t, "rel-1", rel.GUID)
}

func TestCreateTypeDefs(t *testing.T) {
	var gotBody TypesDef
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/catalog/v2/types/typedefs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(gotBody)
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	created, err := client.CreateTypeDefs(context.Background(), &TypesDef{
		EntityDefs: []EntityDef{{BaseTypeDef: BaseTypeDef{Category: TypeCategoryEntity, Name: "widget"}}},
	})
	require.NoError(t, err)
	require.Len(t, gotBody.EntityDefs, 1)
	assert.Equal(t, "widget", gotBody.EntityDefs[0].Name)
	require.Len(t, created.EntityDefs, 1)
}

func TestMutateEntityWrapsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Entity *Entity `json:"entity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.NotNil(t, payload.Entity)
		json.NewEncoder(w).Encode(MutationResponse{
			MutatedEntities: map[string][]EntityHeader{
				MutationCreate: {{GUID: payload.Entity.GUID, TypeName: payload.Entity.TypeName}},
			},
		})
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	resp, err := client.CreateEntity(context.Background(), &Entity{TypeName: "AtlasGlossary", GUID: "g-1"})
	require.NoError(t, err)
	assert.Equal(t, MutationCreate, resp.Applied("g-1"))
}

func TestSearchWithParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/catalog/v2/search/basic", r.URL.Path)
		var params SearchParameters
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "AtlasGlossary", params.TypeName)
		json.NewEncoder(w).Encode(SearchResult{
			Entities: []Entity{{TypeName: "AtlasGlossary", GUID: "g-1"}},
		})
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	result, err := client.SearchWithParameters(context.Background(), &SearchParameters{TypeName: "AtlasGlossary"})
	require.NoError(t, err)
	require.Len(t, result.Entities, 1)
}

func TestServerErrorSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "type already exists", http.StatusConflict)
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "", "", time.Second)
	_, err := client.CreateTypeDefs(context.Background(), &TypesDef{})
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusConflict, remote.StatusCode)
	assert.Contains(t, remote.Body, "type already exists")
	assert.False(t, remote.IsNotFound())
}
