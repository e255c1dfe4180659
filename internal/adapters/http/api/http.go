// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/sopmatch/internal/adapters/mq/queue"
	"github.com/okian/sopmatch/internal/adapters/repository"
	"github.com/okian/sopmatch/internal/domain/matching"
	"github.com/okian/sopmatch/pkg/logger"
	"github.com/okian/sopmatch/pkg/metrics"
)

// Request limits.
const (
	defaultMaxTopK     = 0 // no cap
	defaultTopK        = 5
	defaultMaxBatch    = 100
	maxRequestBodySize = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmissionDependencies
	MatchDependencies
	ReviewerDependencies
	AssignmentDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submissionsHandler *SubmissionsHandler
	matchesHandler     *MatchesHandler
	reviewersHandler   *ReviewersHandler
	assignmentsHandler *AssignmentsHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxTopK     int
	defaultTopK int
	maxBatch    int
	logger      logger.Logger
}

// WithMaxTopK caps the top_k a client may ask for. Zero leaves it uncapped;
// a top_k beyond the pool size then returns the whole pool.
func WithMaxTopK(n int) Option {
	return func(o *serverOptions) {
		if n >= 0 {
			o.maxTopK = n
		}
	}
}

// WithDefaultTopK sets the top_k used when a request omits it.
func WithDefaultTopK(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.defaultTopK = n
		}
	}
}

// WithMaxBatch caps the number of ids in a batch request.
func WithMaxBatch(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBatch = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{
		maxTopK:     defaultMaxTopK,
		defaultTopK: defaultTopK,
		maxBatch:    defaultMaxBatch,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxTopK > 0 && o.defaultTopK > o.maxTopK {
		o.defaultTopK = o.maxTopK
	}

	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		submissionsHandler: NewSubmissionsHandler(deps, o.logger),
		matchesHandler:     NewMatchesHandler(deps, o),
		reviewersHandler:   NewReviewersHandler(deps),
		assignmentsHandler: NewAssignmentsHandler(deps, o.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /submissions", MetricsMiddleware(s.submissionsHandler.HandlePut, "submissions"))
	mux.HandleFunc("GET /submissions/{id}", MetricsMiddleware(s.submissionsHandler.HandleGet, "submissions"))

	mux.HandleFunc("POST /matches", MetricsMiddleware(s.matchesHandler.HandlePost, "matches"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(s.matchesHandler.HandleGet, "matches"))
	mux.HandleFunc("POST /matches/batch", MetricsMiddleware(s.matchesHandler.HandleBatch, "matches_batch"))

	mux.HandleFunc("GET /reviewers", MetricsMiddleware(s.reviewersHandler.HandleList, "reviewers"))

	mux.HandleFunc("POST /assignments", MetricsMiddleware(s.assignmentsHandler.HandleAssign, "assignments"))
	mux.HandleFunc("DELETE /assignments/{id}", MetricsMiddleware(s.assignmentsHandler.HandleRelease, "assignments"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps service errors onto an API kind, status and code.
func classify(err error) (kind error, status int, code string) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return ErrLimitExceeded, http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, matching.ErrInvalidInput),
		errors.Is(err, repository.ErrEmptyText),
		errors.Is(err, repository.ErrInvalidID):
		return ErrBadRequest, http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return ErrNotFound, http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrCapacityExceeded), errors.Is(err, repository.ErrNoLoad):
		return ErrConflict, http.StatusConflict, "conflict"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		return ErrBackpressure, http.StatusTooManyRequests, "backpressure"
	default:
		return ErrInternal, http.StatusInternalServerError, "internal_error"
	}
}

// fail renders err with the status its kind maps to. Server errors are logged
// with the request id.
func fail(ctx context.Context, w http.ResponseWriter, l logger.Logger, op string, err error) {
	kind, status, code := classify(err)
	if status >= http.StatusInternalServerError {
		metrics.RecordErrorByComponent("api", code)
		l.Error(ctx, "request failed",
			logger.String("op", op),
			logger.String("request_id", RequestIDFromContext(ctx)),
			logger.Error(err),
		)
	}
	if errors.Is(err, kind) {
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeError(w, status, code, WrapKind(op, kind, err))
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// pathID returns the {id} path segment, rejecting blanks.
func pathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", fmt.Errorf("%w: missing id", ErrBadRequest)
	}
	return id, nil
}

// parseTopK reads an optional positive integer query parameter.
func parseTopK(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: top_k must be an integer", ErrBadRequest)
	}
	return n, nil
}
