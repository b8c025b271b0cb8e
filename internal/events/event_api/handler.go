package event_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/auth"
	"ms-events/internal/logger"
	"ms-events/internal/media"
	"ms-events/internal/models"
	"ms-events/internal/sse"
	"ms-events/internal/utils"
)

type EventService interface {
	Create(ctx context.Context, ownerID string, req models.CreateEventRequest) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	Get(ctx context.Context, eventID string) (*models.Event, error)
	Update(ctx context.Context, actorID, eventID string, req models.UpdateEventRequest) (*models.Event, error)
	Delete(ctx context.Context, actorID, eventID string) error
	Join(ctx context.Context, eventID, userID string) (*models.Event, error)
	Leave(ctx context.Context, eventID, userID string) (*models.Event, error)
	Attendance(ctx context.Context, eventID string) (*models.AttendanceSummary, error)
	IsAttending(ctx context.Context, eventID, userID string) (bool, error)
}

type PassGenerator interface {
	Generate(eventID, userID string) ([]byte, error)
}

// Handler serves the event routes. Media, Passes and Emitter are optional;
// their routes answer 404 or skip the feature when unset.
type Handler struct {
	EventService EventService
	Media        media.Store
	Passes       PassGenerator
	Emitter      *sse.AttendanceEmitter
	Logger       *logger.Logger
	// MaxUploadBytes bounds multipart bodies on create.
	MaxUploadBytes int64
}

func NewHandler(eventService EventService, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Logger: log, MaxUploadBytes: media.DefaultMaxBytes}
}

type rsvpResponse struct {
	Message string        `json:"message"`
	Event   *models.Event `json:"event"`
}

// RegisterRoutes mounts the event routes on r. Mutations go through requireAuth.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.With(requireAuth).Post("/", h.CreateEvent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Get("/attendance", h.GetAttendance)
			r.Get("/stream", h.StreamAttendance)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Put("/", h.UpdateEvent)
				r.Delete("/", h.DeleteEvent)
				r.Post("/join", h.JoinEvent)
				r.Post("/leave", h.LeaveEvent)
				r.Get("/pass", h.GetPass)
			})
		})
	})
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "GetEvent", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.CreateEventRequest
	var err error
	if isMultipart(r) {
		req, err = h.parseMultipartCreate(r)
	} else {
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			err = models.NewValidationError("", "Invalid request body")
		}
	}
	if err != nil {
		h.writeError(w, "CreateEvent", err)
		return
	}

	event, err := h.EventService.Create(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, "CreateEvent", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	event, err := h.EventService.Update(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, "UpdateEvent", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.EventService.Delete(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "DeleteEvent", err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Event deleted")
}

func (h *Handler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.Join(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, "JoinEvent", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rsvpResponse{Message: "Joined event", Event: event})
}

func (h *Handler) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.Leave(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, "LeaveEvent", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rsvpResponse{Message: "Left event", Event: event})
}

func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.EventService.Attendance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "GetAttendance", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

// writeError logs server faults loudly and client faults quietly.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	if utils.StatusFor(err) == http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Debug("API", fmt.Sprintf("%s: %v", op, err))
	}
	utils.WriteError(w, err)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipartCreate reads the form fields and stores the optional "image" part.
func (h *Handler) parseMultipartCreate(r *http.Request) (models.CreateEventRequest, error) {
	var req models.CreateEventRequest

	// one extra MiB for the text fields
	r.Body = http.MaxBytesReader(nil, r.Body, h.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return req, models.NewValidationError("image", media.ErrTooLarge.Error())
		}
		return req, models.NewValidationError("", "Invalid multipart form")
	}

	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.Location = r.FormValue("location")
	req.DateTime = r.FormValue("dateTime")
	if raw := strings.TrimSpace(r.FormValue("capacity")); raw != "" {
		capacity, err := strconv.Atoi(raw)
		if err != nil {
			return req, models.NewValidationError("capacity", "must be a whole number")
		}
		req.Capacity = capacity
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, models.NewValidationError("image", "could not read upload")
	}
	defer file.Close()

	if h.Media == nil {
		return req, models.NewValidationError("image", "uploads are disabled")
	}
	url, err := h.Media.Save(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if errors.Is(err, media.ErrUnsupportedType) || errors.Is(err, media.ErrTooLarge) {
		return req, models.NewValidationError("image", err.Error())
	}
	if err != nil {
		return req, fmt.Errorf("save image: %w", err)
	}
	req.ImageURL = url
	return req, nil
}
