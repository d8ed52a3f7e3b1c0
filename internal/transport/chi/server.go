package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/result"
	"github.com/kailas-cloud/entsearch/internal/logger"
	healthuc "github.com/kailas-cloud/entsearch/internal/usecase/health"
	"github.com/kailas-cloud/entsearch/internal/version"
)

// Request headers.
const (
	HeaderLanguageID  = "X-Language-Id"
	HeaderBypassIndex = "X-Bypass-Index"
)

const maxBodyBytes = 1 << 20

// Searcher runs entity searches.
type Searcher interface {
	Search(ctx context.Context, entity string, c criteria.Criteria, scope domain.Scope) (result.IDSearchResult, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// FlagAdmin switches the index path on or off per entity.
type FlagAdmin interface {
	SetEnabled(ctx context.Context, entity string, enabled bool) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API of the search service.
type Server struct {
	search        Searcher
	health        HealthChecker
	flags         FlagAdmin
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. flags can be nil.
func NewServer(search Searcher, health HealthChecker, flags FlagAdmin, logger *zap.Logger) *Server {
	s := &Server{
		search:   search,
		health:   health,
		flags:    flags,
		validate: validator.New(),
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		fieldErrorHandler,
		sentinelHandler(domain.ErrInvalidCriteria, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnknownEntity, http.StatusNotFound, codeUnknownEntity),
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusServiceUnavailable, codeEngineUnavailable),
		sentinelHandler(domain.ErrMalformedResponse, http.StatusBadGateway, codeMalformedResponse),
		sentinelHandler(domain.ErrFallbackFailed, http.StatusServiceUnavailable, codeFallbackFailed),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Post("/entities/{entity}/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	if s.flags != nil {
		r.Put("/flags/{entity}", s.SetFlag)
	}
}

// Search handles POST /entities/{entity}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	entity := gochi.URLParam(r, "entity")

	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	scope, err := scopeFromHeaders(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	c, err := criteriaFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ctx := logger.WithFields(r.Context(),
		zap.String("entity", entity),
		zap.String("language_id", scope.LanguageID),
		zap.Bool("bypass_index", scope.BypassIndex),
	)
	res, err := s.search.Search(ctx, entity, c, scope)
	if err != nil {
		s.handleDomainError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResultToResponse(res))
}

// SetFlag handles PUT /flags/{entity}. "*" addresses every entity.
func (s *Server) SetFlag(w http.ResponseWriter, r *http.Request) {
	entity := gochi.URLParam(r, "entity")

	var req flagRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	if err := s.flags.SetEnabled(r.Context(), entity, *req.Enabled); err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// degraded still serves searches through the fallback
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func scopeFromHeaders(r *http.Request) (domain.Scope, error) {
	scope := domain.NewScope(r.Header.Get(HeaderLanguageID))
	if v := r.Header.Get(HeaderBypassIndex); v != "" {
		bypass, err := strconv.ParseBool(v)
		if err != nil {
			return domain.Scope{}, fmt.Errorf("invalid %s header %q", HeaderBypassIndex, v)
		}
		if bypass {
			scope = scope.WithBypass()
		}
	}
	return scope, nil
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

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrFieldCompilation,
		domain.ErrInvalidCriteria,
		domain.ErrUnknownEntity,
		domain.ErrEngineUnavailable,
		domain.ErrMalformedResponse,
		domain.ErrFallbackFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// fieldErrorHandler reports the offending entity field of a compilation error.
func fieldErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrFieldCompilation) {
		return false
	}
	resp := errorResponse{Code: codeValidationFailed, Message: msg}
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		resp.Message = fe.Reason
		resp.Entity = fe.Entity
		resp.Field = fe.Field
	}
	writeJSON(w, http.StatusBadRequest, resp)
	return true
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
