package event_api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/auth"
	"ms-events/internal/models"
	"ms-events/internal/utils"
)

// GetPass returns the caller's QR pass for an event they are attending.
func (h *Handler) GetPass(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	userID := auth.UserID(r.Context())
	if h.Passes == nil {
		utils.WriteMessage(w, http.StatusNotFound, "Passes are disabled")
		return
	}

	if _, err := h.EventService.Get(r.Context(), eventID); err != nil {
		h.writeError(w, "GetPass", err)
		return
	}

	attending, err := h.EventService.IsAttending(r.Context(), eventID, userID)
	if err != nil {
		h.writeError(w, "GetPass", err)
		return
	}
	if !attending {
		utils.WriteError(w, models.ErrForbidden)
		return
	}

	png, err := h.Passes.Generate(eventID, userID)
	if err != nil {
		h.writeError(w, "GetPass", fmt.Errorf("generate pass: %w", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
