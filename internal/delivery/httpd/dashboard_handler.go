package httpd

import "net/http"

func (h *Handler) GetHome(w http.ResponseWriter, r *http.Request) {
	home, err := h.dashboardService.Home(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get dashboard")
		return
	}

	writeSuccess(w, home)
}

func (h *Handler) GetDeadlines(w http.ResponseWriter, r *http.Request) {
	deadlines, err := h.dashboardService.Deadlines(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get deadlines")
		return
	}

	writeSuccess(w, deadlines)
}

func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	week, err := h.dashboardService.Week(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get week")
		return
	}

	writeSuccess(w, week)
}

func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	events, err := h.dashboardService.Calendar(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get calendar")
		return
	}

	writeSuccess(w, events)
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.dashboardService.Progress(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get progress")
		return
	}

	writeSuccess(w, progress)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Stats(r.Context(), userID(r))
	if err != nil {
		h.handleError(w, r, err, "get stats")
		return
	}

	writeSuccess(w, stats)
}
