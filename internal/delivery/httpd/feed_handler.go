package httpd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

// Feed streams the caller's changes as server-sent events. The stream opens
// with a "snapshot" event, then one "change" event per write. A subscriber
// that fell behind gets a fresh snapshot instead of the lost events.
// ?collections=assignments,exams narrows the change events.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	collections, err := parseCollections(r.URL.Query().Get("collections"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	uid := userID(r)

	// subscribe first so nothing written during the snapshot is missed
	sub := h.hub.Subscribe(uid, collections...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := h.sendSnapshot(w, r, uid); err != nil {
		return
	}
	flusher.Flush()

	h.logger.Debug().Str("user_id", uid).Msg("Feed opened")

	heartbeat := time.NewTicker(h.opts.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().Str("user_id", uid).Msg("Feed closed by client")
			return

		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, "change", event.Timestamp, event); err != nil {
				return
			}

		case <-sub.Resync():
			// buffered changes predate the snapshot and would roll it back
			discarded := sub.Reset()
			h.logger.Debug().Str("user_id", uid).Int("discarded", discarded).Msg("Feed resync")
			if err := h.sendSnapshot(w, r, uid); err != nil {
				return
			}

		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		}

		flusher.Flush()
	}
}

func (h *Handler) sendSnapshot(w http.ResponseWriter, r *http.Request, uid string) error {
	snapshot, err := h.dashboardService.Snapshot(r.Context(), uid)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", uid).Msg("Failed to build feed snapshot")
		_ = writeEvent(w, "error", 0, map[string]string{"message": "failed to load snapshot"})
		return err
	}
	return writeEvent(w, "snapshot", time.Now().UnixMilli(), snapshot)
}

func writeEvent(w io.Writer, name string, id int64, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, body)
	return err
}

func parseCollections(raw string) ([]models.Collection, error) {
	if raw == "" {
		return nil, nil
	}

	var out []models.Collection
	for _, part := range strings.Split(raw, ",") {
		c := models.Collection(strings.TrimSpace(part))
		if c == "" {
			continue
		}
		if !c.Valid() {
			return nil, fmt.Errorf("unknown collection %q", c)
		}
		out = append(out, c)
	}
	return out, nil
}
