package models

import "time"

// JoinOutcome is what the store's atomic join reported.
type JoinOutcome int

const (
	JoinAccepted JoinOutcome = iota
	JoinDuplicate
	JoinFull
	JoinEventMissing
)

func (o JoinOutcome) String() string {
	switch o {
	case JoinAccepted:
		return "accepted"
	case JoinDuplicate:
		return "duplicate"
	case JoinFull:
		return "full"
	case JoinEventMissing:
		return "event_missing"
	default:
		return "unknown"
	}
}

// LeaveOutcome is what the store's leave reported.
type LeaveOutcome int

const (
	LeaveRemoved LeaveOutcome = iota
	LeaveNotAttending
	LeaveEventMissing
)

func (o LeaveOutcome) String() string {
	switch o {
	case LeaveRemoved:
		return "removed"
	case LeaveNotAttending:
		return "not_attending"
	case LeaveEventMissing:
		return "event_missing"
	default:
		return "unknown"
	}
}

// AttendanceSummary answers GET /api/events/{id}/attendance.
type AttendanceSummary struct {
	EventID       string   `json:"eventId"`
	Capacity      int      `json:"capacity"`
	AttendeeCount int      `json:"attendeeCount"`
	Remaining     int      `json:"remaining"`
	IsFull        bool     `json:"isFull"`
	Attendees     []string `json:"attendees"`
}

// NewAttendanceSummary builds a summary from a loaded event.
func NewAttendanceSummary(e *Event) AttendanceSummary {
	attendees := e.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return AttendanceSummary{
		EventID:       e.ID,
		Capacity:      e.Capacity,
		AttendeeCount: e.AttendeeCount,
		Remaining:     e.Remaining(),
		IsFull:        e.IsFull(),
		Attendees:     attendees,
	}
}

// AttendanceUpdate is pushed to live subscribers of an event.
type AttendanceUpdate struct {
	EventID       string    `json:"eventId"`
	UserID        string    `json:"userId"`
	Action        string    `json:"action"`
	AttendeeCount int       `json:"attendeeCount"`
	Capacity      int       `json:"capacity"`
	At            time.Time `json:"at"`
}

const (
	ActionJoined  = "joined"
	ActionLeft    = "left"
	ActionDeleted = "deleted"
)

// RSVPPass is the payload sealed inside an attendee's QR pass.
type RSVPPass struct {
	EventID  string    `json:"eventId"`
	UserID   string    `json:"userId"`
	IssuedAt time.Time `json:"issuedAt"`
}
