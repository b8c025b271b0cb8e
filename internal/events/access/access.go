package access

import "ms-events/internal/models"

// Authorize reports whether actorID may modify or delete the event.
// Only the creator may.
func Authorize(actorID string, event *models.Event) bool {
	if actorID == "" || event == nil {
		return false
	}
	return actorID == event.CreatedBy
}
