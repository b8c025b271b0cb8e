package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-events/internal/config"
	"ms-events/internal/events/access"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

type EventStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	UpdateOwnedEvent(ctx context.Context, event *models.Event) (bool, error)
	DeleteOwnedEvent(ctx context.Context, id, ownerID string) (bool, error)
}

type AttendanceEngine interface {
	Join(ctx context.Context, eventID, userID string) (*models.Event, error)
	Leave(ctx context.Context, eventID, userID string) (*models.Event, error)
	Attendance(ctx context.Context, eventID string) (*models.AttendanceSummary, error)
	IsAttending(ctx context.Context, eventID, userID string) (bool, error)
}

type ListCache interface {
	Get(ctx context.Context) ([]models.Event, bool, error)
	Set(ctx context.Context, events []models.Event) error
	Invalidate(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type Broadcaster interface {
	Emit(update models.AttendanceUpdate)
}

// EventService owns event CRUD and hands attendance changes to the engine.
// Cache, Publisher and Broadcaster are optional.
type EventService struct {
	Store       EventStore
	Engine      AttendanceEngine
	Cache       ListCache
	Publisher   Publisher
	Broadcaster Broadcaster
	Topics      config.TopicConfig
	Logger      *logger.Logger
}

func NewEventService(store EventStore, engine AttendanceEngine, log *logger.Logger) *EventService {
	return &EventService{Store: store, Engine: engine, Logger: log}
}

// ---------------- EVENTS ----------------

func (s *EventService) Create(ctx context.Context, ownerID string, req models.CreateEventRequest) (*models.Event, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthorized
	}

	fields, err := validateCreate(req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:          uuid.New().String(),
		Title:       fields.Title,
		Description: fields.Description,
		Location:    fields.Location,
		DateTime:    fields.DateTime,
		Capacity:    fields.Capacity,
		ImageURL:    req.ImageURL,
		CreatedBy:   ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Attendees:   []string{},
	}
	if err := s.Store.CreateEvent(ctx, event); err != nil {
		s.Logger.Error("EVENTS", fmt.Sprintf("Failed to create event: %v", err))
		return nil, err
	}

	s.Logger.Info("EVENTS", fmt.Sprintf("Event %s created by %s", event.ID, ownerID))
	s.afterChange(ctx, s.Topics.EventCreated, models.MessageEventCreated, event, ownerID)
	return event, nil
}

// List returns every event ordered by date, from the cache when it is warm.
func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	if s.Cache != nil {
		events, ok, err := s.Cache.Get(ctx)
		if err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Event list cache read failed: %v", err))
		} else if ok {
			return events, nil
		}
	}

	events, err := s.Store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, events); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Event list cache write failed: %v", err))
		}
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	return s.Store.GetEventByID(ctx, eventID)
}

// Update applies the non-nil fields of req. Only the creator may update, and
// capacity can never drop below the current attendee count.
func (s *EventService) Update(ctx context.Context, actorID, eventID string, req models.UpdateEventRequest) (*models.Event, error) {
	event, err := s.Store.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !access.Authorize(actorID, event) {
		s.Logger.LogSecurity("FORBIDDEN", fmt.Sprintf("user %s tried to update event %s", actorID, eventID))
		return nil, models.ErrForbidden
	}

	if err := applyUpdate(event, req); err != nil {
		return nil, err
	}
	if event.Capacity < event.AttendeeCount {
		return nil, models.ErrCapacityBelowAttendance
	}
	event.UpdatedAt = time.Now().UTC()

	ok, err := s.Store.UpdateOwnedEvent(ctx, event)
	if err != nil {
		s.Logger.Error("EVENTS", fmt.Sprintf("Failed to update event %s: %v", eventID, err))
		return nil, err
	}
	if !ok {
		// Something changed between the read and the write; find out what.
		current, err := s.Store.GetEventByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if !access.Authorize(actorID, current) {
			return nil, models.ErrForbidden
		}
		return nil, models.ErrCapacityBelowAttendance
	}

	updated, err := s.Store.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("Event %s updated by %s", eventID, actorID))
	s.afterChange(ctx, s.Topics.EventUpdated, models.MessageEventUpdated, updated, actorID)
	return updated, nil
}

// Delete removes the event and its attendees. Only the creator may delete.
func (s *EventService) Delete(ctx context.Context, actorID, eventID string) error {
	event, err := s.Store.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !access.Authorize(actorID, event) {
		s.Logger.LogSecurity("FORBIDDEN", fmt.Sprintf("user %s tried to delete event %s", actorID, eventID))
		return models.ErrForbidden
	}

	deleted, err := s.Store.DeleteOwnedEvent(ctx, eventID, actorID)
	if err != nil {
		s.Logger.Error("EVENTS", fmt.Sprintf("Failed to delete event %s: %v", eventID, err))
		return err
	}
	if !deleted {
		return models.ErrEventNotFound
	}

	s.Logger.Info("EVENTS", fmt.Sprintf("Event %s deleted by %s", eventID, actorID))
	event.AttendeeCount = 0
	s.afterChange(ctx, s.Topics.EventDeleted, models.MessageEventDeleted, event, actorID)
	s.broadcast(event, actorID, models.ActionDeleted)
	return nil
}

// ---------------- ATTENDANCE ----------------

func (s *EventService) Join(ctx context.Context, eventID, userID string) (*models.Event, error) {
	event, err := s.Engine.Join(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	s.afterChange(ctx, s.Topics.AttendeeJoined, models.MessageAttendeeJoined, event, userID)
	s.broadcast(event, userID, models.ActionJoined)
	return event, nil
}

// Leave returns a nil event when the event no longer exists and leave is lenient.
func (s *EventService) Leave(ctx context.Context, eventID, userID string) (*models.Event, error) {
	event, err := s.Engine.Leave(ctx, eventID, userID)
	if err != nil || event == nil {
		return event, err
	}
	s.afterChange(ctx, s.Topics.AttendeeLeft, models.MessageAttendeeLeft, event, userID)
	s.broadcast(event, userID, models.ActionLeft)
	return event, nil
}

func (s *EventService) Attendance(ctx context.Context, eventID string) (*models.AttendanceSummary, error) {
	return s.Engine.Attendance(ctx, eventID)
}

func (s *EventService) IsAttending(ctx context.Context, eventID, userID string) (bool, error) {
	return s.Engine.IsAttending(ctx, eventID, userID)
}

// ---------------- SIDE EFFECTS ----------------

// afterChange drops the cached list and publishes msgType. Neither failure is
// reported to the caller; the database write has already happened.
func (s *EventService) afterChange(ctx context.Context, topic, msgType string, event *models.Event, userID string) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Event list cache invalidation failed: %v", err))
		}
	}

	if s.Publisher == nil || topic == "" {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Publisher.Publish(pubCtx, topic, event.ID, models.NewEventMessage(msgType, event, userID)); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for event %s: %v", msgType, event.ID, err))
	}
}

func (s *EventService) broadcast(event *models.Event, userID, action string) {
	if s.Broadcaster == nil {
		return
	}
	s.Broadcaster.Emit(models.AttendanceUpdate{
		EventID:       event.ID,
		UserID:        userID,
		Action:        action,
		AttendeeCount: event.AttendeeCount,
		Capacity:      event.Capacity,
		At:            time.Now().UTC(),
	})
}
