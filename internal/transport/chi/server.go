// Package chi exposes the vendor and traveler HTTP APIs.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
	healthuc "github.com/hyperlocal-cloud/bazaar/internal/usecase/health"
	ingestuc "github.com/hyperlocal-cloud/bazaar/internal/usecase/ingest"
	retrievaluc "github.com/hyperlocal-cloud/bazaar/internal/usecase/retrieval"
)

// Ingester runs the full ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req ingestuc.Request) (domain.Record, error)
}

// Retriever serves the traveler read path.
type Retriever interface {
	Search(ctx context.Context, userID, query, mode string) ([]domain.SearchHit, error)
	Recommend(ctx context.Context, userID string, limit int) (retrievaluc.Recommendation, error)
	Itinerary(ctx context.Context, ids []string, days int) (string, error)
	Message(ctx context.Context, userID, targetID, note string) (string, error)
}

// MetadataPatcher merges fields into a stored record.
type MetadataPatcher interface {
	Patch(ctx context.Context, collection, id string, update map[string]any) error
}

// Publisher emits bus events for out-of-pipeline updates.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server wires the HTTP routes to the use case services.
type Server struct {
	ingest    Ingester
	retrieval Retriever
	patcher   MetadataPatcher
	bus       Publisher
	health    HealthChecker
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingester,
	retrieval Retriever,
	patcher MetadataPatcher,
	bus Publisher,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingest:    ingest,
		retrieval: retrieval,
		patcher:   patcher,
		bus:       bus,
		health:    health,
		logger:    logger,
	}
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/agent/vendor", func(r chi.Router) {
		r.Post("/create-listing", s.createListing)
		r.Post("/create-event", s.createEvent)
		r.Post("/update-metadata", s.updateMetadata)
	})
	r.Route("/agent/traveler", func(r chi.Router) {
		r.Post("/search", s.search)
		r.Post("/recommend", s.recommend)
		r.Post("/itinerary", s.itinerary)
		r.Post("/message", s.message)
	})
	r.Get("/healthz", s.healthz)
	r.Get("/metrics", s.metrics)
}

type createListingRequest struct {
	VendorID   string   `json:"vendor_id"`
	Title      string   `json:"title"`
	Price      float64  `json:"price"`
	Location   string   `json:"location"`
	MediaFiles []string `json:"media_files"`
}

// createListing handles POST /agent/vendor/create-listing.
func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.VendorID == "" {
		writeError(w, http.StatusBadRequest, "vendor_id is required")
		return
	}

	rec, err := s.ingest.Ingest(r.Context(), ingestuc.Request{
		Type:       domain.RecordListing,
		OwnerID:    req.VendorID,
		Title:      req.Title,
		Price:      req.Price,
		Location:   req.Location,
		MediaPaths: req.MediaFiles,
	})
	s.writeIngestResult(w, rec, err, "listing")
}

type createEventRequest struct {
	AgencyID   string   `json:"agency_id"`
	Title      string   `json:"title"`
	DateTime   string   `json:"datetime"`
	Location   string   `json:"location"`
	Price      float64  `json:"price"`
	MediaFiles []string `json:"media_files"`
}

// createEvent handles POST /agent/vendor/create-event.
func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.AgencyID == "" {
		writeError(w, http.StatusBadRequest, "agency_id is required")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	rec, err := s.ingest.Ingest(r.Context(), ingestuc.Request{
		Type:        domain.RecordEvent,
		OwnerID:     req.AgencyID,
		Title:       req.Title,
		Price:       req.Price,
		Location:    req.Location,
		ScheduledAt: req.DateTime,
		MediaPaths:  req.MediaFiles,
	})
	s.writeIngestResult(w, rec, err, "event")
}

// writeIngestResult maps the ingestion outcome: hard failure, success, or
// success-with-warning when a late fan-out step failed.
func (s *Server) writeIngestResult(w http.ResponseWriter, rec domain.Record, err error, key string) {
	if err != nil && !errors.Is(err, domain.ErrPartialWrite) {
		s.handleDomainError(w, err)
		return
	}

	resp := map[string]any{"status": "ok", key: rec}
	if err != nil {
		s.logger.Warn("partial write", zap.String("id", rec.ID), zap.Error(err))
		resp["warning"] = "record stored but not fully indexed or announced"
	}
	writeJSON(w, http.StatusCreated, resp)
}

type updateMetadataRequest struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Update     map[string]any `json:"update"`
}

// updateMetadata handles POST /agent/vendor/update-metadata.
func (s *Server) updateMetadata(w http.ResponseWriter, r *http.Request) {
	var req updateMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Collection == "" || req.ID == "" {
		writeError(w, http.StatusBadRequest, "collection and id required")
		return
	}

	if err := s.patcher.Patch(r.Context(), req.Collection, req.ID, req.Update); err != nil {
		s.handleDomainError(w, err)
		return
	}

	if err := s.bus.Publish(r.Context(), "metadata.updated", map[string]any{
		"collection": req.Collection,
		"id":         req.ID,
		"update":     req.Update,
	}); err != nil {
		s.logger.Warn("metadata.updated publish failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type searchRequest struct {
	Query  string `json:"query"`
	Mode   string `json:"mode"` // "via_vendor" | "via_agency"
	UserID string `json:"user_id"`
}

// search handles POST /agent/traveler/search.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	hits, err := s.retrieval.Search(r.Context(), req.UserID, req.Query, req.Mode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

type recommendRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// recommend handles POST /agent/traveler/recommend.
func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	rec, err := s.retrieval.Recommend(r.Context(), req.UserID, req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

type itineraryRequest struct {
	UserID string   `json:"user_id"`
	Items  []string `json:"items"`
	Days   int      `json:"days"`
}

// itinerary handles POST /agent/traveler/itinerary.
func (s *Server) itinerary(w http.ResponseWriter, r *http.Request) {
	var req itineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Days < 1 {
		req.Days = 1
	}

	plan, err := s.retrieval.Itinerary(r.Context(), req.Items, req.Days)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"itinerary": plan})
}

type messageRequest struct {
	UserID   string `json:"user_id"`
	TargetID string `json:"target_id"`
	Context  string `json:"context"`
}

// message handles POST /agent/traveler/message.
func (s *Server) message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "target_id is required")
		return
	}

	msg, err := s.retrieval.Message(r.Context(), req.UserID, req.TargetID, req.Context)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

// healthz handles GET /healthz.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// metrics handles GET /metrics.
func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrUpstreamError):
		writeError(w, http.StatusBadGateway, "upstream service failed")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
