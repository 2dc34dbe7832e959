// Package chi implements the HTTP API: request submission and status,
// report retrieval, and index administration.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/domain"
	healthuc "github.com/kailas-cloud/crossdex/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/crossdex/internal/usecase/indexer"
	requestuc "github.com/kailas-cloud/crossdex/internal/usecase/request"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error response codes.
const (
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeRequestNotFound    = "request_not_found"
	CodeRequestNotFinished = "request_not_finished"
	CodeIndexNotReady      = "index_not_ready"
	CodeInternalError      = "internal_error"
)

// Renderer formats an aggregated result for human consumption.
type Renderer interface {
	Render(res *domain.AggregatedResult) string
}

// IndexReader serves the index enumeration endpoints.
type IndexReader interface {
	Batches() []string
	Materials() []string
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the HTTP API.
type Server struct {
	requests      *requestuc.Service
	indexer       *indexeruc.Service
	health        *healthuc.Service
	renderer      Renderer
	index         IndexReader
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	requests *requestuc.Service,
	indexer *indexeruc.Service,
	health *healthuc.Service,
	renderer Renderer,
	index IndexReader,
	logger *zap.Logger,
) *Server {
	s := &Server{
		requests: requests,
		indexer:  indexer,
		health:   health,
		renderer: renderer,
		index:    index,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrRequestNotFound, http.StatusNotFound, CodeRequestNotFound),
		sentinelHandler(domain.ErrRequestNotDone, http.StatusConflict, CodeRequestNotFinished),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, CodeIndexNotReady),
		sentinelHandler(domain.ErrUnknownDomain, http.StatusBadRequest, CodeBadRequest),
	}
	return s
}

// Routes mounts every API route on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/requests", s.SubmitRequest)
		r.Get("/requests", s.ListRequests)
		r.Get("/requests/{id}", s.GetRequest)
		r.Get("/requests/{id}/report", s.GetReport)

		r.Post("/index/rebuild", s.RebuildIndex)
		r.Get("/index/inconsistencies", s.ListInconsistencies)
		r.Get("/index/batches", s.ListBatches)
		r.Get("/index/materials", s.ListMaterials)
	})
}

// SubmitRequest handles POST /v1/requests. The request runs to a terminal
// state before the response is written; the body carries the full task table.
func (s *Server) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "query is required")
		return
	}

	req, err := s.requests.Submit(r.Context(), body.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListRequests handles GET /v1/requests.
func (s *Server) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.requests.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if reqs == nil {
		reqs = []*domain.Request{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

// GetRequest handles GET /v1/requests/{id}.
func (s *Server) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.requests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetReport handles GET /v1/requests/{id}/report. JSON by default,
// text/markdown with ?format=markdown.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	res, err := s.requests.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s.renderer.Render(res)))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RebuildIndex handles POST /v1/index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	stats, err := s.indexer.Rebuild(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListInconsistencies handles GET /v1/index/inconsistencies.
func (s *Server) ListInconsistencies(w http.ResponseWriter, _ *http.Request) {
	incons := s.indexer.Inconsistencies()
	if incons == nil {
		incons = []domain.Inconsistency{}
	}
	writeJSON(w, http.StatusOK, incons)
}

// ListBatches handles GET /v1/index/batches.
func (s *Server) ListBatches(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"batches": s.index.Batches()})
}

// ListMaterials handles GET /v1/index/materials.
func (s *Server) ListMaterials(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"materials": s.index.Materials()})
}

// GetHealth handles GET /healthz. A degraded report answers 503 so load
// balancers stop routing, but the body still names the failing check.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns the sentinel text for known errors and hides
// everything else behind a generic message.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrRequestNotFound,
		domain.ErrRequestNotDone,
		domain.ErrIndexNotReady,
		domain.ErrUnknownDomain,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
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
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
