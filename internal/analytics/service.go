package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"ms-events/internal/events/access"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

type DBLayer interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetEventsByOwner(ctx context.Context, ownerID string) ([]models.Event, error)
	GetJoinTimesByEventID(ctx context.Context, eventID string) ([]time.Time, error)
}

// Service handles analytics operations
type Service struct {
	DB     DBLayer
	Logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new analytics service
func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log, now: time.Now}
}

// EventStats is the attendance snapshot of one event
type EventStats struct {
	EventID       string    `json:"eventId"`
	Title         string    `json:"title"`
	DateTime      time.Time `json:"dateTime"`
	Capacity      int       `json:"capacity"`
	AttendeeCount int       `json:"attendeeCount"`
	Remaining     int       `json:"remaining"`
	FillRate      float64   `json:"fillRate"`
	IsFull        bool      `json:"isFull"`
}

// OwnerAnalytics aggregates every event an organizer created
type OwnerAnalytics struct {
	OwnerID        string       `json:"ownerId"`
	TotalEvents    int          `json:"totalEvents"`
	UpcomingEvents int          `json:"upcomingEvents"`
	FullEvents     int          `json:"fullEvents"`
	TotalCapacity  int          `json:"totalCapacity"`
	TotalAttendees int          `json:"totalAttendees"`
	FillRate       float64      `json:"fillRate"`
	Events         []EventStats `json:"events"`
}

// DailyJoins counts the current attendees by the UTC day they joined
type DailyJoins struct {
	Date       string `json:"date"`
	Joins      int    `json:"joins"`
	Cumulative int    `json:"cumulative"`
}

// EventAnalytics is the per-event view with the join timeline
type EventAnalytics struct {
	EventStats
	DailyJoins []DailyJoins `json:"dailyJoins"`
}

// GetOwnerAnalytics summarises the attendance of every event ownerID created.
func (s *Service) GetOwnerAnalytics(ctx context.Context, ownerID string) (*OwnerAnalytics, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthorized
	}

	events, err := s.DB.GetEventsByOwner(ctx, ownerID)
	if err != nil {
		s.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to load events of %s: %v", ownerID, err))
		return nil, err
	}

	now := s.now()
	result := &OwnerAnalytics{
		OwnerID: ownerID,
		Events:  make([]EventStats, 0, len(events)),
	}
	for i := range events {
		stats := newEventStats(&events[i])
		result.Events = append(result.Events, stats)
		result.TotalEvents++
		result.TotalCapacity += stats.Capacity
		result.TotalAttendees += stats.AttendeeCount
		if stats.IsFull {
			result.FullEvents++
		}
		if stats.DateTime.After(now) {
			result.UpcomingEvents++
		}
	}
	result.FillRate = fillRate(result.TotalAttendees, result.TotalCapacity)
	return result, nil
}

// GetEventAnalytics returns the join timeline of one event. Only its creator may see it.
func (s *Service) GetEventAnalytics(ctx context.Context, actorID, eventID string) (*EventAnalytics, error) {
	event, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !access.Authorize(actorID, event) {
		s.Logger.LogSecurity("FORBIDDEN", fmt.Sprintf("user %s tried to read analytics of event %s", actorID, eventID))
		return nil, models.ErrForbidden
	}

	joinTimes, err := s.DB.GetJoinTimesByEventID(ctx, eventID)
	if err != nil {
		s.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to load join times of %s: %v", eventID, err))
		return nil, err
	}

	return &EventAnalytics{
		EventStats: newEventStats(event),
		DailyJoins: bucketByDay(joinTimes),
	}, nil
}

func newEventStats(e *models.Event) EventStats {
	return EventStats{
		EventID:       e.ID,
		Title:         e.Title,
		DateTime:      e.DateTime,
		Capacity:      e.Capacity,
		AttendeeCount: e.AttendeeCount,
		Remaining:     e.Remaining(),
		FillRate:      fillRate(e.AttendeeCount, e.Capacity),
		IsFull:        e.IsFull(),
	}
}

// fillRate is attendees/capacity rounded to two decimals; zero capacity yields 0.
func fillRate(attendees, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return math.Round(float64(attendees)/float64(capacity)*100) / 100
}

// bucketByDay expects times in ascending order.
func bucketByDay(times []time.Time) []DailyJoins {
	days := []DailyJoins{}
	total := 0
	for _, t := range times {
		date := t.UTC().Format("2006-01-02")
		total++
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Joins++
			days[n-1].Cumulative = total
			continue
		}
		days = append(days, DailyJoins{Date: date, Joins: 1, Cumulative: total})
	}
	return days
}
