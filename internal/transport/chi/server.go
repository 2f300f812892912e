// Package chi exposes the discovery API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain"
	"github.com/encounterhq/discovery/internal/domain/experience"
	"github.com/encounterhq/discovery/internal/domain/search/facet"
	"github.com/encounterhq/discovery/internal/domain/search/query"
	"github.com/encounterhq/discovery/internal/domain/search/result"
	discoveryuc "github.com/encounterhq/discovery/internal/usecase/discovery"
)

// Error codes returned in JSON error payloads.
const (
	codeUnauthorized     = "unauthorized"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeRateLimited      = "rate_limited"
	codeProviderError    = "provider_error"
	codeDatastoreError   = "datastore_error"
	codeInternalError    = "internal_error"
)

// Searcher runs discovery searches.
type Searcher interface {
	Search(ctx context.Context, q *query.Query) (discoveryuc.Response, error)
}

// SimilarRanker ranks records similar to a source record.
type SimilarRanker interface {
	Rank(ctx context.Context, sourceID string, limit int) ([]result.Candidate, error)
}

// FacetCounter computes facet counts for a filter context.
type FacetCounter interface {
	Counts(ctx context.Context, filter db.Filter) (facet.Counts, error)
}

// Pinger reports datastore liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the discovery HTTP API.
type Server struct {
	discovery     Searcher
	similar       SimilarRanker
	facets        FacetCounter
	pinger        Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	discovery Searcher,
	similar SimilarRanker,
	facets FacetCounter,
	pinger Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		discovery: discovery,
		similar:   similar,
		facets:    facets,
		pinger:    pinger,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		rateLimitHandler,
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrDatastore, http.StatusServiceUnavailable, codeDatastoreError),
	}
	return s
}

// Routes mounts the API on router. Rate limit middleware per endpoint class
// comes from the caller so governors stay configurable.
func (s *Server) Routes(
	router chirouter.Router,
	searchLimit, discoveryLimit, facetsLimit func(http.Handler) http.Handler,
) {
	router.Get("/health", s.handleHealth)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chirouter.Router) {
		r.With(searchLimit).Post("/search", s.handleSearch)
		r.With(discoveryLimit).Get("/experiences/{id}/similar", s.handleSimilar)
		r.With(facetsLimit).Post("/facets", s.handleFacets)
	})
}

type searchRequest struct {
	Text         string   `json:"text"`
	Language     string   `json:"language,omitempty"`
	Category     string   `json:"category,omitempty"`
	VectorWeight *float64 `json:"vectorWeight,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Expand       bool     `json:"expand,omitempty"`
}

type authorPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type searchItem struct {
	ID          string             `json:"id"`
	Score       float64            `json:"score"`
	VectorRank  int                `json:"vectorRank,omitempty"`
	LexicalRank int                `json:"lexicalRank,omitempty"`
	Title       string             `json:"title,omitempty"`
	Category    string             `json:"category,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Location    string             `json:"location,omitempty"`
	OccurredAt  *time.Time         `json:"occurredAt,omitempty"`
	Author      *authorPayload     `json:"author,omitempty"`
	Reasons     []string           `json:"reasons,omitempty"`
	Factors     map[string]float64 `json:"factors,omitempty"`
}

type searchMeta struct {
	ExecutionTimeMs  int64    `json:"executionTimeMs"`
	VectorWeight     float64  `json:"vectorWeight"`
	LexicalWeight    float64  `json:"lexicalWeight"`
	SearchType       string   `json:"searchType"`
	IntentConfidence float64  `json:"intentConfidence"`
	Concepts         []string `json:"concepts,omitempty"`
	Degraded         bool     `json:"degraded,omitempty"`
	Expanded         bool     `json:"expanded,omitempty"`
}

type searchResponse struct {
	Items       []searchItem `json:"items"`
	Total       int          `json:"total"`
	Suggestions []string     `json:"suggestions,omitempty"`
	Meta        searchMeta   `json:"meta"`
}

// handleSearch handles POST /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body: "+err.Error())
		return
	}

	q, err := query.New(req.Text, req.Language, req.Category, req.VectorWeight, req.Limit, req.Expand)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.discovery.Search(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchItem, len(resp.Candidates))
	for i := range resp.Candidates {
		items[i] = itemFromCandidate(&resp.Candidates[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items:       items,
		Total:       len(items),
		Suggestions: resp.Suggestions,
		Meta: searchMeta{
			ExecutionTimeMs:  resp.Meta.ExecutionTimeMs,
			VectorWeight:     resp.Meta.VectorWeight,
			LexicalWeight:    resp.Meta.LexicalWeight,
			SearchType:       resp.Meta.SearchType,
			IntentConfidence: resp.Meta.IntentConfidence,
			Concepts:         resp.Meta.Concepts,
			Degraded:         resp.Meta.Degraded,
			Expanded:         resp.Meta.Expanded,
		},
	})
}

type similarResponse struct {
	Items []searchItem `json:"items"`
	Total int          `json:"total"`
}

// handleSimilar handles GET /api/v1/experiences/{id}/similar.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "experience id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	candidates, err := s.similar.Rank(r.Context(), id, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchItem, len(candidates))
	for i := range candidates {
		items[i] = itemFromCandidate(&candidates[i])
	}

	writeJSON(w, http.StatusOK, similarResponse{Items: items, Total: len(items)})
}

type facetsRequest struct {
	Category       string     `json:"category,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	OccurredAfter  *time.Time `json:"occurredAfter,omitempty"`
	OccurredBefore *time.Time `json:"occurredBefore,omitempty"`
}

type facetEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type facetsResponse struct {
	Categories  map[string]int `json:"categories"`
	Locations   []facetEntry   `json:"locations"`
	Tags        []facetEntry   `json:"tags"`
	Witnesses   witnessCounts  `json:"witnesses"`
	DateBuckets map[string]int `json:"dateBuckets"`
}

type witnessCounts struct {
	WithWitnesses int `json:"withWitnesses"`
	Alone         int `json:"alone"`
}

// handleFacets handles POST /api/v1/facets.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	var req facetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body: "+err.Error())
		return
	}

	filter := db.Filter{Category: req.Category, Tags: req.Tags}
	if req.OccurredAfter != nil {
		filter.OccurredAfter = req.OccurredAfter.UnixMilli()
	}
	if req.OccurredBefore != nil {
		filter.OccurredBefore = req.OccurredBefore.UnixMilli()
	}

	counts, err := s.facets.Counts(r.Context(), filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, facetsResponse{
		Categories:  counts.Categories,
		Locations:   entriesToPayload(counts.Locations),
		Tags:        entriesToPayload(counts.Tags),
		Witnesses:   witnessCounts(counts.Witnesses),
		DateBuckets: counts.DateBuckets,
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	checks := map[string]string{"datastore": "up"}

	if err := s.pinger.Ping(r.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
		checks["datastore"] = "down"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

func itemFromCandidate(c *result.Candidate) searchItem {
	item := searchItem{
		ID:          c.ID(),
		Score:       c.Score(),
		VectorRank:  c.VectorRank(),
		LexicalRank: c.LexicalRank(),
		Reasons:     c.Reasons(),
		Factors:     c.Factors(),
	}
	if rec := c.Record(); rec != nil {
		item.Title = rec.Title()
		item.Category = rec.Category()
		item.Tags = rec.Tags()
		item.Location = rec.Location()
		if at := rec.OccurredAt(); !at.IsZero() {
			item.OccurredAt = &at
		}
	}
	if author := c.Author(); author != nil {
		item.Author = profileToPayload(author)
	}
	return item
}

func profileToPayload(p *experience.Profile) *authorPayload {
	return &authorPayload{
		ID:          p.ID(),
		DisplayName: p.DisplayName(),
		AvatarURL:   p.AvatarURL(),
	}
}

func entriesToPayload(entries []facet.Entry) []facetEntry {
	out := make([]facetEntry, len(entries))
	for i, e := range entries {
		out[i] = facetEntry{Value: e.Value, Count: e.Count}
	}
	return out
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrProviderUnavailable,
		domain.ErrDatastore,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// rateLimitHandler handles RateLimitError with quota headers and extra fields.
func rateLimitHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	var rle *domain.RateLimitError
	if errors.As(err, &rle) {
		setRateLimitHeaders(w, rle.Limit, rle.Remaining, rle.ResetAt)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"code":      codeRateLimited,
			"message":   msg,
			"remaining": rle.Remaining,
			"resetAt":   rle.ResetAt.UTC().Format(time.RFC3339),
		})
		return true
	}
	writeError(w, http.StatusTooManyRequests, codeRateLimited, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
