package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignmentService.GetAssignments(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get assignments")
		return
	}

	writeSuccess(w, assignments)
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.CreateAssignment(r.Context(), userID(r), &req)
	if err != nil {
		h.handleError(w, r, err, "create assignment")
		return
	}

	writeCreated(w, assignment)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.assignmentService.DeleteAssignment(r.Context(), userID(r), id); err != nil {
		h.handleError(w, r, err, "delete assignment")
		return
	}

	writeSuccess(w, map[string]string{"id": id})
}

// FinishAssignment answers 200 even when the streak write failed; the
// response then carries streak_error.
func (h *Handler) FinishAssignment(w http.ResponseWriter, r *http.Request) {
	resp, err := h.assignmentService.FinishAssignment(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err, "finish assignment")
		return
	}

	writeSuccess(w, resp)
}
