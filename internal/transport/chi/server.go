// Package chi exposes the concept store over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/conceptd/internal/domain"
	domconcept "github.com/kailas-cloud/conceptd/internal/domain/concept"
	"github.com/kailas-cloud/conceptd/internal/domain/concept/changeset"
	conceptuc "github.com/kailas-cloud/conceptd/internal/usecase/concept"
	healthuc "github.com/kailas-cloud/conceptd/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
// id is the raw identifier from the request path, "" when none.
type errorHandler func(w http.ResponseWriter, err error, id string) bool

// Server exposes the concept REST API.
type Server struct {
	concepts      *conceptuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(concepts *conceptuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		concepts: concepts,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID,
			func(id string) string { return fmt.Sprintf("Invalid concept ID format: %s", id) }),
		sentinelHandler(domain.ErrConceptNotFound, http.StatusNotFound, codeNotFound,
			func(id string) string { return fmt.Sprintf("Concept not found with id=%s", id) }),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingError,
			func(string) string { return "embedding provider unavailable" }),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Post("/concepts", s.createConcept)
	r.Get("/concepts", s.listConcepts)
	r.Get("/concepts/{id}", s.getConcept)
	r.Put("/concepts/{id}", s.updateConcept)
	r.Delete("/concepts/{id}", s.deleteConcept)
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metrics)
}

// createConcept handles POST /concepts.
func (s *Server) createConcept(w http.ResponseWriter, r *http.Request) {
	var req createConceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// req.ID is deliberately discarded: identifiers are store-assigned.
	c, err := domconcept.New(req.Name, req.Usage, req.NormalizedEmbedding)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	created, err := s.concepts.Create(r.Context(), c)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, conceptToResponse(&created))
}

// listConcepts handles GET /concepts. Results are capped at 1000 records.
func (s *Server) listConcepts(w http.ResponseWriter, r *http.Request) {
	concepts, err := s.concepts.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}

	items := make([]conceptResponse, len(concepts))
	for i := range concepts {
		items[i] = conceptToResponse(&concepts[i])
	}

	writeJSON(w, http.StatusOK, items)
}

// getConcept handles GET /concepts/{id}.
func (s *Server) getConcept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.concepts.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err, id)
		return
	}

	writeJSON(w, http.StatusOK, conceptToResponse(&c))
}

// updateConcept handles PUT /concepts/{id}.
func (s *Server) updateConcept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateConceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cs, err := changeset.New(req.Name, req.Usage)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	c, err := s.concepts.Update(r.Context(), id, cs)
	if err != nil {
		s.handleDomainError(w, err, id)
		return
	}

	writeJSON(w, http.StatusOK, conceptToResponse(&c))
}

// deleteConcept handles DELETE /concepts/{id}.
func (s *Server) deleteConcept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.concepts.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err, id)
		return
	}

	writeJSON(w, http.StatusOK, deleteConceptResponse{
		Message: fmt.Sprintf("Concept with id=%s deleted.", id),
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// metrics handles GET /metrics.
func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler matching a single sentinel error.
// message receives the offending id so every failure names its subject.
func sentinelHandler(
	sentinel error, status int, code errorCode, message func(id string) string,
) errorHandler {
	return func(w http.ResponseWriter, err error, id string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, message(id))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error, id string) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err, id) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
