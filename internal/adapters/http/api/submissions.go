package api

import (
	"context"
	"net/http"

	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
)

// SubmissionDependencies stores and reads submissions.
type SubmissionDependencies interface {
	PutSubmission(ctx context.Context, s types.Submission) (types.Submission, bool, error)
	Submission(ctx context.Context, id string) (types.Submission, error)
}

// SubmissionsHandler handles submission requests.
type SubmissionsHandler struct {
	deps   SubmissionDependencies
	logger logger.Logger
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps SubmissionDependencies, l logger.Logger) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps, logger: l}
}

// submissionRequest mirrors the OpenAPI schema for POST /submissions.
type submissionRequest struct {
	ID          string             `json:"id"`
	Text        string             `json:"text"`
	Preferences *types.Preferences `json:"preferences,omitempty"`
}

// HandlePut handles POST /submissions. A new id answers 201, a replaced one 200.
func (h *SubmissionsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_submission"
	var req submissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}

	stored, created, err := h.deps.PutSubmission(r.Context(), types.Submission{
		ID:          req.ID,
		Text:        req.Text,
		Preferences: req.Preferences,
	})
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, stored)
}

// HandleGet handles GET /submissions/{id}.
func (h *SubmissionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_submission"
	id, err := pathID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	sub, err := h.deps.Submission(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
