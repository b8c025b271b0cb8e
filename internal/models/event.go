package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is a scheduled gathering with a fixed number of places.
// AttendeeCount mirrors the number of rows in event_attendees and is only
// changed inside the same transaction that inserts or deletes those rows.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID            string    `bun:"id,pk" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Description   string    `bun:"description,notnull" json:"description"`
	Location      string    `bun:"location,notnull" json:"location"`
	DateTime      time.Time `bun:"date_time,notnull" json:"dateTime"`
	Capacity      int       `bun:"capacity,notnull" json:"capacity"`
	AttendeeCount int       `bun:"attendee_count,notnull,default:0" json:"attendeeCount"`
	ImageURL      string    `bun:"image_url,nullzero" json:"imageUrl,omitempty"`
	CreatedBy     string    `bun:"created_by,notnull" json:"createdBy"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt"`

	Owner     *User    `bun:"rel:belongs-to,join:created_by=id" json:"owner,omitempty"`
	Attendees []string `bun:"-" json:"attendees"`
}

// Remaining returns the number of free places.
func (e *Event) Remaining() int {
	if e.AttendeeCount >= e.Capacity {
		return 0
	}
	return e.Capacity - e.AttendeeCount
}

// IsFull reports whether no places remain.
func (e *Event) IsFull() bool {
	return e.AttendeeCount >= e.Capacity
}

// HasAttendee reports whether userID is in the loaded attendee list.
func (e *Event) HasAttendee(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// EventAttendee is one RSVP. The composite primary key is what keeps a user
// from appearing twice on the same event.
type EventAttendee struct {
	bun.BaseModel `bun:"table:event_attendees,alias:ea"`

	EventID  string    `bun:"event_id,pk"`
	UserID   string    `bun:"user_id,pk"`
	JoinedAt time.Time `bun:"joined_at,notnull"`
}

// CreateEventRequest is the payload for POST /api/events.
type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	DateTime    string `json:"dateTime"`
	Capacity    int    `json:"capacity"`
	ImageURL    string `json:"-"`
}

// UpdateEventRequest is the payload for PUT /api/events/{id}.
// Nil fields are left unchanged. Ownership and attendees are not part of it.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	DateTime    *string `json:"dateTime,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}
