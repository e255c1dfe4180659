package api

import (
	"context"
	"net/http"

	"github.com/okian/sopmatch/internal/domain/types"
)

// ReviewerDependencies exposes the reviewer registry.
type ReviewerDependencies interface {
	Reviewers(ctx context.Context) []types.Reviewer
}

// ReviewersHandler handles reviewer listing.
type ReviewersHandler struct {
	deps ReviewerDependencies
}

// NewReviewersHandler creates a new reviewers handler.
func NewReviewersHandler(deps ReviewerDependencies) *ReviewersHandler {
	return &ReviewersHandler{deps: deps}
}

type reviewersResponse struct {
	Reviewers []types.Reviewer `json:"reviewers"`
}

// HandleList handles GET /reviewers.
func (h *ReviewersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, reviewersResponse{Reviewers: h.deps.Reviewers(r.Context())})
}
