package analytics_api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/analytics"
	"ms-events/internal/auth"
	"ms-events/internal/logger"
	"ms-events/internal/utils"
)

type AnalyticsService interface {
	GetOwnerAnalytics(ctx context.Context, ownerID string) (*analytics.OwnerAnalytics, error)
	GetEventAnalytics(ctx context.Context, actorID, eventID string) (*analytics.EventAnalytics, error)
}

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service AnalyticsService
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service AnalyticsService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/events", h.GetOwnerAnalytics)
		r.Get("/events/{eventId}", h.GetEventAnalytics)
	})
}

// GetOwnerAnalytics handles GET /analytics/events for the caller's own events
func (h *Handler) GetOwnerAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	result, err := h.Service.GetOwnerAnalytics(r.Context(), userID)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Owner analytics for %s failed: %v", userID, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// GetEventAnalytics handles GET /analytics/events/{eventId}
func (h *Handler) GetEventAnalytics(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())
	h.Logger.Debug("ANALYTICS", fmt.Sprintf("Event analytics requested for %s by %s", eventID, userID))

	result, err := h.Service.GetEventAnalytics(r.Context(), userID, eventID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}
