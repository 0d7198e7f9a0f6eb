package httpd

import (
	"net/http"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetProfile(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get profile")
		return
	}

	writeSuccess(w, profile)
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := h.profileService.CreateProfile(r.Context(), userID(r), &req)
	if err != nil {
		h.handleError(w, r, err, "create profile")
		return
	}

	writeCreated(w, profile)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), userID(r), &req)
	if err != nil {
		h.handleError(w, r, err, "update profile")
		return
	}

	writeSuccess(w, profile)
}

func (h *Handler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	streak, err := h.profileService.RecordActivity(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "record activity")
		return
	}

	writeSuccess(w, streak)
}
