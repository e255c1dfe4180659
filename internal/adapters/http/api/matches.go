package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
)

// MatchDependencies ranks reviewers for stored submissions.
type MatchDependencies interface {
	Match(ctx context.Context, id string, topK int) (types.MatchResult, error)
	MatchBatch(ctx context.Context, ids []string, topK int) ([]types.MatchResult, error)
}

// MatchesHandler handles match requests.
type MatchesHandler struct {
	deps        MatchDependencies
	maxTopK     int
	defaultTopK int
	maxBatch    int
	logger      logger.Logger
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies, o serverOptions) *MatchesHandler {
	return &MatchesHandler{
		deps:        deps,
		maxTopK:     o.maxTopK,
		defaultTopK: o.defaultTopK,
		maxBatch:    o.maxBatch,
		logger:      o.logger,
	}
}

type matchRequest struct {
	ID   string `json:"id"`
	TopK *int   `json:"top_k,omitempty"`
}

type batchRequest struct {
	IDs  []string `json:"ids"`
	TopK *int     `json:"top_k,omitempty"`
}

type batchResponse struct {
	Results []types.MatchResult `json:"results"`
}

// HandlePost handles POST /matches.
func (h *MatchesHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match"
	var req matchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	if req.ID == "" {
		fail(r.Context(), w, h.logger, op, fmt.Errorf("%w: missing id", ErrBadRequest))
		return
	}
	h.match(w, r, op, req.ID, h.topK(req.TopK))
}

// HandleGet handles GET /matches/{id}?top_k=N.
func (h *MatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	id, err := pathID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	topK, err := parseTopK(r.URL.Query().Get("top_k"), h.defaultTopK)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	h.match(w, r, op, id, topK)
}

// HandleBatch handles POST /matches/batch.
func (h *MatchesHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match_batch"
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	switch {
	case len(req.IDs) == 0:
		fail(r.Context(), w, h.logger, op, fmt.Errorf("%w: ids must not be empty", ErrBadRequest))
		return
	case len(req.IDs) > h.maxBatch:
		fail(r.Context(), w, h.logger, op, fmt.Errorf("%w: %d ids, at most %d allowed", ErrLimitExceeded, len(req.IDs), h.maxBatch))
		return
	}

	topK := h.topK(req.TopK)
	if err := h.checkTopK(topK); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	results, err := h.deps.MatchBatch(r.Context(), req.IDs, topK)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (h *MatchesHandler) match(w http.ResponseWriter, r *http.Request, op, id string, topK int) {
	if err := h.checkTopK(topK); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	res, err := h.deps.Match(r.Context(), id, topK)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MatchesHandler) topK(requested *int) int {
	if requested == nil {
		return h.defaultTopK
	}
	return *requested
}

func (h *MatchesHandler) checkTopK(topK int) error {
	switch {
	case topK <= 0:
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrBadRequest, topK)
	case h.maxTopK > 0 && topK > h.maxTopK:
		return fmt.Errorf("%w: top_k %d above max %d", ErrLimitExceeded, topK, h.maxTopK)
	}
	return nil
}
