package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal"
)

// stubRepo overrides only the methods a test exercises. Anything else
// panics, which is what we want from an unexpected repository call.
type stubRepo struct {
	metabridge.Repository

	detail    *metabridge.EntityDetail
	detailErr error

	found     []*metabridge.EntityDetail
	foundType string
}

func (s *stubRepo) GetEntityDetail(ctx context.Context, guid string) (*metabridge.EntityDetail, error) {
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return s.detail, nil
}

func (s *stubRepo) FindEntitiesByPropertyValue(ctx context.Context, typeName, value string, page metabridge.PageRequest, order metabridge.SequencingOrder, sequencingProperty string) ([]*metabridge.EntityDetail, error) {
	s.foundType = typeName
	return s.found, nil
}

func TestServerGetEntity(t *testing.T) {
	repo := &stubRepo{detail: &metabridge.EntityDetail{
		EntitySummary: metabridge.EntitySummary{
			InstanceHeader: metabridge.InstanceHeader{TypeName: "Glossary", ID: metabridge.NewInstanceID("glossary-1")},
		},
	}}
	srv := NewServer(repo, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entities/glossary-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body metabridge.EntityDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "glossary-1", body.ID.Base)
	assert.Equal(t, "Glossary", body.TypeName)
}

func TestServerErrorStatusMapping(t *testing.T) {
	repo := &stubRepo{detailErr: metabridge.NewEntityNotFoundError("ghost")}
	srv := NewServer(repo, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entities/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghost")
}

func TestServerFindEntitiesRequiresType(t *testing.T) {
	srv := NewServer(&stubRepo{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entities?contains=customer", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerFindEntities(t *testing.T) {
	repo := &stubRepo{found: []*metabridge.EntityDetail{}}
	srv := NewServer(repo, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/entities?type=GlossaryTerm&contains=customer&from=5&pageSize=20&order=GUID", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GlossaryTerm", repo.foundType)
}

func TestServerHealth(t *testing.T) {
	srv := NewServer(&stubRepo{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerEventWebhook(t *testing.T) {
	source := internal.NewChannelSource(1)
	srv := NewServer(&stubRepo{}, source)

	payload := `{"operationType":"ENTITY_UPDATE","entity":{"typeName":"AtlasGlossary","guid":"glossary-1"}}`

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(payload)))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// Buffer of one is now full.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(payload)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServerEventWebhookMalformed(t *testing.T) {
	srv := NewServer(&stubRepo{}, internal.NewChannelSource(1))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader("not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerEventWebhookDisabled(t *testing.T) {
	srv := NewServer(&stubRepo{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events",
		strings.NewReader(`{"operationType":"ENTITY_UPDATE"}`)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
