package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

func (h *Handler) GetExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.examService.GetExams(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get exams")
		return
	}

	writeSuccess(w, exams)
}

func (h *Handler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req models.CreateExamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	exam, err := h.examService.CreateExam(r.Context(), userID(r), &req)
	if err != nil {
		h.handleError(w, r, err, "create exam")
		return
	}

	writeCreated(w, exam)
}

func (h *Handler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.examService.DeleteExam(r.Context(), userID(r), id); err != nil {
		h.handleError(w, r, err, "delete exam")
		return
	}

	writeSuccess(w, map[string]string{"id": id})
}
