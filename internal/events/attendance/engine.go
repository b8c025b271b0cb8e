package attendance

import (
	"context"
	"fmt"

	"ms-events/internal/logger"
	"ms-events/internal/models"
)

// Store is the part of the event store the engine needs. JoinEvent and
// LeaveEvent must apply their change atomically and report what happened.
type Store interface {
	JoinEvent(ctx context.Context, eventID, userID string) (models.JoinOutcome, *models.Event, error)
	LeaveEvent(ctx context.Context, eventID, userID string) (models.LeaveOutcome, *models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	IsAttendee(ctx context.Context, eventID, userID string) (bool, error)
}

// Engine turns store outcomes into RSVP results. It keeps no state of its own;
// every decision about capacity and duplicates is made by the store's
// conditional writes.
type Engine struct {
	Store Store
	// StrictLeave reports ErrNotFound when leaving an event that no longer exists.
	StrictLeave bool
	Logger      *logger.Logger
}

func NewEngine(store Store, strictLeave bool, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{Store: store, StrictLeave: strictLeave, Logger: log}
}

func (e *Engine) log() *logger.Logger {
	if e.Logger == nil {
		return logger.Discard()
	}
	return e.Logger
}

// Join adds userID to the event's attendees and returns the updated event.
func (e *Engine) Join(ctx context.Context, eventID, userID string) (*models.Event, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	if eventID == "" {
		return nil, models.ErrEventNotFound
	}

	outcome, event, err := e.Store.JoinEvent(ctx, eventID, userID)
	if err != nil {
		e.log().Error("RSVP", fmt.Sprintf("join event=%s user=%s failed: %v", eventID, userID, err))
		return nil, fmt.Errorf("join event: %w", err)
	}
	e.log().LogRSVP("join", eventID, userID, outcome.String())

	switch outcome {
	case models.JoinAccepted:
		return event, nil
	case models.JoinDuplicate:
		return nil, models.ErrAlreadyJoined
	case models.JoinFull:
		return nil, models.ErrEventFull
	case models.JoinEventMissing:
		return nil, models.ErrEventNotFound
	default:
		return nil, fmt.Errorf("join event: unexpected outcome %d", outcome)
	}
}

// Leave removes userID from the event. Leaving an event the user is not
// attending succeeds and changes nothing. A missing event yields (nil, nil)
// unless StrictLeave is set.
func (e *Engine) Leave(ctx context.Context, eventID, userID string) (*models.Event, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}

	outcome, event, err := e.Store.LeaveEvent(ctx, eventID, userID)
	if err != nil {
		e.log().Error("RSVP", fmt.Sprintf("leave event=%s user=%s failed: %v", eventID, userID, err))
		return nil, fmt.Errorf("leave event: %w", err)
	}
	e.log().LogRSVP("leave", eventID, userID, outcome.String())

	switch outcome {
	case models.LeaveRemoved, models.LeaveNotAttending:
		return event, nil
	case models.LeaveEventMissing:
		if e.StrictLeave {
			return nil, models.ErrEventNotFound
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("leave event: unexpected outcome %d", outcome)
	}
}

// Attendance reports capacity and the current attendee list of an event.
func (e *Engine) Attendance(ctx context.Context, eventID string) (*models.AttendanceSummary, error) {
	event, err := e.Store.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	summary := models.NewAttendanceSummary(event)
	return &summary, nil
}

// IsAttending reports whether userID currently holds a place on the event.
func (e *Engine) IsAttending(ctx context.Context, eventID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return e.Store.IsAttendee(ctx, eventID, userID)
}
