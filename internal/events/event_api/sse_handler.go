package event_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/models"
	"ms-events/internal/utils"
)

const keepAliveInterval = 15 * time.Second

// StreamAttendance pushes an "attendance" SSE event every time someone joins
// or leaves the event, until the client disconnects or the event is deleted.
func (h *Handler) StreamAttendance(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if h.Emitter == nil {
		utils.WriteMessage(w, http.StatusNotFound, "Live updates are disabled")
		return
	}

	summary, err := h.EventService.Attendance(r.Context(), eventID)
	if err != nil {
		h.writeError(w, "StreamAttendance", err)
		return
	}

	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	rc.SetWriteDeadline(time.Time{})

	setupSSEHeaders(w)
	ctx := r.Context()
	updates := h.Emitter.Subscribe(ctx, eventID)

	initial, _ := json.Marshal(summary)
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", initial)
	if err := rc.Flush(); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		return
	}
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to attendance stream for event: %s", eventID))

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			jsonData, err := json.Marshal(update)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize attendance update: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: attendance\ndata: %s\n\n", jsonData)
			rc.Flush()

			if update.Action == models.ActionDeleted {
				return
			}

		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			rc.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from attendance stream for: %s", eventID))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
