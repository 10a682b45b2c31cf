package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal"
	"github.com/metabridge/metabridge/internal/graph"
)

// Server exposes the repository surface over HTTP plus the webhook that
// feeds vendor notifications into the consumer loop.
type Server struct {
	repo   metabridge.Repository
	source *internal.ChannelSource
	mux    *http.ServeMux
}

// NewServer wires the routes. source may be nil when events are disabled.
func NewServer(repo metabridge.Repository, source *internal.ChannelSource) *Server {
	s := &Server{repo: repo, source: source, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/entities", s.handleFindEntities)
	s.mux.HandleFunc("GET /api/v1/entities/{guid}", s.handleGetEntity)
	s.mux.HandleFunc("GET /api/v1/entities/{guid}/summary", s.handleGetEntitySummary)
	s.mux.HandleFunc("GET /api/v1/entities/{guid}/relationships", s.handleGetEntityRelationships)
	s.mux.HandleFunc("GET /api/v1/relationships/{guid}", s.handleGetRelationship)
	s.mux.HandleFunc("POST /api/v1/events", s.handleEventWebhook)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	detail, err := s.repo.GetEntityDetail(r.Context(), r.PathValue("guid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGetEntitySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.repo.GetEntitySummary(r.Context(), r.PathValue("guid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetEntityRelationships(w http.ResponseWriter, r *http.Request) {
	var typeFilter []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		typeFilter = strings.Split(raw, ",")
	}
	rels, err := s.repo.GetRelationshipsForEntity(r.Context(), r.PathValue("guid"),
		typeFilter, pageFromQuery(r), orderFromQuery(r), r.URL.Query().Get("sequencingProperty"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"relationships": rels})
}

func (s *Server) handleGetRelationship(w http.ResponseWriter, r *http.Request) {
	rel, err := s.repo.GetRelationship(r.Context(), r.PathValue("guid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

// handleFindEntities searches by contained string value:
// /api/v1/entities?type=GlossaryTerm&contains=customer&from=0&pageSize=20
func (s *Server) handleFindEntities(w http.ResponseWriter, r *http.Request) {
	typeName := r.URL.Query().Get("type")
	if typeName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type query parameter is required"})
		return
	}
	results, err := s.repo.FindEntitiesByPropertyValue(r.Context(), typeName,
		r.URL.Query().Get("contains"), pageFromQuery(r), orderFromQuery(r),
		r.URL.Query().Get("sequencingProperty"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": results})
}

func (s *Server) handleEventWebhook(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "event consumption is disabled"})
		return
	}
	var notification graph.Notification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed notification payload"})
		return
	}
	if notification.EventTime == 0 {
		notification.EventTime = time.Now().UnixMilli()
	}
	if !s.source.Push(notification) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "event buffer full"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func pageFromQuery(r *http.Request) metabridge.PageRequest {
	page := metabridge.PageRequest{}
	if from, err := strconv.Atoi(r.URL.Query().Get("from")); err == nil && from > 0 {
		page.From = from
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && size > 0 {
		page.Size = size
	}
	return page
}

func orderFromQuery(r *http.Request) metabridge.SequencingOrder {
	if order := r.URL.Query().Get("order"); order != "" {
		return metabridge.SequencingOrder(order)
	}
	return metabridge.SequencingAny
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.S().Warnw("response encoding failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case metabridge.IsNotFound(err):
		status = http.StatusNotFound
	case metabridge.IsConflict(err):
		status = http.StatusConflict
	case metabridge.IsFunctionNotSupported(err):
		status = http.StatusNotImplemented
	case metabridge.IsTypeNotSupported(err):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
