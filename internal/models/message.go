package models

import "time"

// Message types carried on Kafka.
const (
	MessageEventCreated   = "event.created"
	MessageEventUpdated   = "event.updated"
	MessageEventDeleted   = "event.deleted"
	MessageAttendeeJoined = "attendee.joined"
	MessageAttendeeLeft   = "attendee.left"
)

// EventMessage is the JSON value of every domain message. The Kafka key is EventID.
type EventMessage struct {
	Type          string    `json:"type"`
	EventID       string    `json:"eventId"`
	UserID        string    `json:"userId,omitempty"`
	Title         string    `json:"title,omitempty"`
	Capacity      int       `json:"capacity,omitempty"`
	AttendeeCount int       `json:"attendeeCount"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewEventMessage snapshots e for a message of the given type.
func NewEventMessage(msgType string, e *Event, userID string) EventMessage {
	return EventMessage{
		Type:          msgType,
		EventID:       e.ID,
		UserID:        userID,
		Title:         e.Title,
		Capacity:      e.Capacity,
		AttendeeCount: e.AttendeeCount,
		OccurredAt:    time.Now().UTC(),
	}
}
