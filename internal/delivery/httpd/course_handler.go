package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

func (h *Handler) GetCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.GetCourses(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get courses")
		return
	}

	writeSuccess(w, courses)
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), userID(r), &req)
	if err != nil {
		h.handleError(w, r, err, "create course")
		return
	}

	writeCreated(w, course)
}

func (h *Handler) RenameCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	course, err := h.courseService.RenameCourse(r.Context(), userID(r), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		h.handleError(w, r, err, "rename course")
		return
	}

	writeSuccess(w, course)
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.courseService.DeleteCourse(r.Context(), userID(r), id); err != nil {
		h.handleError(w, r, err, "delete course")
		return
	}

	writeSuccess(w, map[string]string{"id": id})
}

func (h *Handler) AddTopic(w http.ResponseWriter, r *http.Request) {
	var req models.AddTopicRequest
	if !decodeBody(w, r, &req) {
		return
	}

	course, err := h.courseService.AddTopic(r.Context(), userID(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleError(w, r, err, "add topic")
		return
	}

	writeCreated(w, course)
}

func (h *Handler) SetTopicDone(w http.ResponseWriter, r *http.Request) {
	var req models.SetTopicDoneRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.courseService.SetTopicDone(r.Context(), userID(r), chi.URLParam(r, "id"), chi.URLParam(r, "topicId"), req.Done)
	if err != nil {
		h.handleError(w, r, err, "update topic")
		return
	}

	writeSuccess(w, resp)
}

func (h *Handler) RemoveTopic(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.RemoveTopic(r.Context(), userID(r), chi.URLParam(r, "id"), chi.URLParam(r, "topicId"))
	if err != nil {
		h.handleError(w, r, err, "remove topic")
		return
	}

	writeSuccess(w, course)
}
