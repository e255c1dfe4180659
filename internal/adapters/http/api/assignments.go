package api

import (
	"context"
	"net/http"

	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
)

// AssignmentDependencies mutates reviewer load through assignments.
type AssignmentDependencies interface {
	Assign(ctx context.Context, a types.Assignment) (types.Assignment, bool, error)
	Release(ctx context.Context, assignmentID string) (types.Assignment, error)
}

// AssignmentsHandler handles assignment requests.
type AssignmentsHandler struct {
	deps   AssignmentDependencies
	logger logger.Logger
}

// NewAssignmentsHandler creates a new assignments handler.
func NewAssignmentsHandler(deps AssignmentDependencies, l logger.Logger) *AssignmentsHandler {
	return &AssignmentsHandler{deps: deps, logger: l}
}

type assignmentRequest struct {
	AssignmentID string `json:"assignment_id"`
	ReviewerID   string `json:"reviewer_id"`
	SubmissionID string `json:"submission_id"`
}

type assignmentResponse struct {
	types.Assignment
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandleAssign handles POST /assignments. Repeating an assignment id answers
// 200 with status "duplicate".
func (h *AssignmentsHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assignment"
	var req assignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}

	a, duplicate, err := h.deps.Assign(r.Context(), types.Assignment{
		AssignmentID: req.AssignmentID,
		ReviewerID:   req.ReviewerID,
		SubmissionID: req.SubmissionID,
	})
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, assignmentResponse{Assignment: a, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, assignmentResponse{Assignment: a, Status: "assigned"})
}

// HandleRelease handles DELETE /assignments/{id}.
func (h *AssignmentsHandler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_assignment"
	id, err := pathID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	a, err := h.deps.Release(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentResponse{Assignment: a, Status: "released"})
}
