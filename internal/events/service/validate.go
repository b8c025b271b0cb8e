package service

import (
	"strings"
	"time"

	"ms-events/internal/models"
)

const MaxCapacity = 100000

// Accepted dateTime layouts. The second is what HTML datetime-local inputs send.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

type eventFields struct {
	Title       string
	Description string
	Location    string
	DateTime    time.Time
	Capacity    int
}

func validateCreate(req models.CreateEventRequest) (eventFields, error) {
	var f eventFields
	var err error

	if f.Title, err = requireText("title", req.Title); err != nil {
		return f, err
	}
	if f.Description, err = requireText("description", req.Description); err != nil {
		return f, err
	}
	if f.Location, err = requireText("location", req.Location); err != nil {
		return f, err
	}
	if f.DateTime, err = parseDateTime(req.DateTime); err != nil {
		return f, err
	}
	if err = checkCapacity(req.Capacity); err != nil {
		return f, err
	}
	f.Capacity = req.Capacity
	return f, nil
}

// applyUpdate copies the set fields of req onto event. Ownership, attendees
// and the attendee count are never touched.
func applyUpdate(event *models.Event, req models.UpdateEventRequest) error {
	var err error
	if req.Title != nil {
		if event.Title, err = requireText("title", *req.Title); err != nil {
			return err
		}
	}
	if req.Description != nil {
		if event.Description, err = requireText("description", *req.Description); err != nil {
			return err
		}
	}
	if req.Location != nil {
		if event.Location, err = requireText("location", *req.Location); err != nil {
			return err
		}
	}
	if req.DateTime != nil {
		if event.DateTime, err = parseDateTime(*req.DateTime); err != nil {
			return err
		}
	}
	if req.Capacity != nil {
		if err = checkCapacity(*req.Capacity); err != nil {
			return err
		}
		event.Capacity = *req.Capacity
	}
	if req.ImageURL != nil {
		event.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	return nil
}

func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", models.NewValidationError(field, "is required")
	}
	return value, nil
}

func parseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, models.NewValidationError("dateTime", "is required")
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, models.NewValidationError("dateTime", "must be an RFC3339 timestamp")
}

func checkCapacity(capacity int) error {
	if capacity < 1 {
		return models.NewValidationError("capacity", "must be at least 1")
	}
	if capacity > MaxCapacity {
		return models.NewValidationError("capacity", "must be at most 100000")
	}
	return nil
}
