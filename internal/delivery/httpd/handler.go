package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/auth"
	"github.com/p-chth/KaoDuenMate-VER2/internal/feed"
	"github.com/p-chth/KaoDuenMate-VER2/internal/middleware"
	"github.com/p-chth/KaoDuenMate-VER2/internal/service"
)

const maxBodyBytes = 1 << 20

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	RequestTimeout time.Duration
	Heartbeat      time.Duration
}

type Handler struct {
	profileService    service.ProfileService
	assignmentService service.AssignmentService
	examService       service.ExamService
	courseService     service.CourseService
	dashboardService  service.DashboardService
	hub               *feed.Hub
	verifier          *auth.Verifier
	pinger            Pinger
	opts              Options
	logger            zerolog.Logger
}

func NewHandler(
	profileService service.ProfileService,
	assignmentService service.AssignmentService,
	examService service.ExamService,
	courseService service.CourseService,
	dashboardService service.DashboardService,
	hub *feed.Hub,
	verifier *auth.Verifier,
	pinger Pinger,
	opts Options,
	logger zerolog.Logger,
) *Handler {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 25 * time.Second
	}
	return &Handler{
		profileService:    profileService,
		assignmentService: assignmentService,
		examService:       examService,
		courseService:     courseService,
		dashboardService:  dashboardService,
		hub:               hub,
		verifier:          verifier,
		pinger:            pinger,
		opts:              opts,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Auth(h.verifier))

		// long-lived, so outside the request timeout
		api.Get("/feed", h.Feed)

		api.Group(func(api chi.Router) {
			if h.opts.RequestTimeout > 0 {
				api.Use(chimw.Timeout(h.opts.RequestTimeout))
			}

			api.Route("/profile", func(r chi.Router) {
				r.Get("/", h.GetProfile)
				r.Post("/", h.CreateProfile)
				r.Put("/", h.UpdateProfile)
				r.Post("/activity", h.RecordActivity)
			})

			api.Route("/assignments", func(r chi.Router) {
				r.Get("/", h.GetAssignments)
				r.Post("/", h.CreateAssignment)
				r.Delete("/{id}", h.DeleteAssignment)
				r.Post("/{id}/finish", h.FinishAssignment)
			})

			api.Route("/exams", func(r chi.Router) {
				r.Get("/", h.GetExams)
				r.Post("/", h.CreateExam)
				r.Delete("/{id}", h.DeleteExam)
			})

			api.Route("/courses", func(r chi.Router) {
				r.Get("/", h.GetCourses)
				r.Post("/", h.CreateCourse)
				r.Put("/{id}", h.RenameCourse)
				r.Delete("/{id}", h.DeleteCourse)
				r.Post("/{id}/topics", h.AddTopic)
				r.Put("/{id}/topics/{topicId}", h.SetTopicDone)
				r.Delete("/{id}/topics/{topicId}", h.RemoveTopic)
			})

			api.Route("/dashboard", func(r chi.Router) {
				r.Get("/", h.GetHome)
				r.Get("/deadlines", h.GetDeadlines)
				r.Get("/week", h.GetWeek)
				r.Get("/calendar", h.GetCalendar)
				r.Get("/progress", h.GetProgress)
				r.Get("/stats", h.GetStats)
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "kaoduen-mate",
		"timestamp": time.Now().UTC(),
	}

	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Health check failed")
			response["status"] = "unhealthy"
			response["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// userID is always set behind the auth middleware.
func userID(r *http.Request) string {
	id, _ := auth.UserIDFrom(r.Context())
	return id
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleError maps service errors to responses. Unknown errors are logged
// and reported as 500 with a generic message. Nothing is written for a
// cancelled or expired request context.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		h.logger.Debug().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("Request cancelled by client")
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("Request timed out while trying to " + action)
		// the timeout middleware answers 504 once the request deadline passed
		if r.Context().Err() == nil {
			writeError(w, http.StatusGatewayTimeout, "Timed out trying to "+action)
		}
	default:
		h.logger.Error().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("user_id", userID(r)).
			Msg("Failed to " + action)
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeStatus(w, http.StatusOK, data)
}

func writeCreated(w http.ResponseWriter, data interface{}) {
	writeStatus(w, http.StatusCreated, data)
}

func writeStatus(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, status, response)
}
