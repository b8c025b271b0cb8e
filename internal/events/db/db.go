package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-events/internal/models"
)

// errRollback aborts a transaction whose outcome has already been recorded.
var errRollback = errors.New("rollback")

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// ---------------- EVENTS ----------------

// CreateEvent inserts a new event with no attendees.
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	event.AttendeeCount = 0
	if _, err := d.Bun.NewInsert().Model(event).Exec(ctx); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEventByID loads one event with its owner and attendee ids.
func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	return getEvent(ctx, d.Bun, id)
}

// ListEvents returns every event ordered by date, each with its owner and attendees.
func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Relation("Owner").
		OrderExpr("e.date_time ASC").
		OrderExpr("e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		return []models.Event{}, nil
	}

	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}

	var rows []models.EventAttendee
	err = d.Bun.NewSelect().
		Model(&rows).
		Where("event_id IN (?)", bun.In(ids)).
		OrderExpr("joined_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}

	byEvent := make(map[string][]string, len(events))
	for _, row := range rows {
		byEvent[row.EventID] = append(byEvent[row.EventID], row.UserID)
	}
	for i := range events {
		events[i].Attendees = byEvent[events[i].ID]
		if events[i].Attendees == nil {
			events[i].Attendees = []string{}
		}
	}
	return events, nil
}

// UpdateOwnedEvent writes the editable fields of event. The row only changes
// while created_by still matches and the new capacity still covers the
// current attendee count; false means one of those predicates failed or the
// event is gone.
func (d *DB) UpdateOwnedEvent(ctx context.Context, event *models.Event) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model(event).
		Column("title", "description", "location", "date_time", "capacity", "image_url", "updated_at").
		Where("id = ?", event.ID).
		Where("created_by = ?", event.CreatedBy).
		Where("attendee_count <= ?", event.Capacity).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update event rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteOwnedEvent removes the event and all of its attendee rows in one
// transaction. The event row goes first so a join that is waiting on its lock
// finds nothing to increment. Returns false when no event with that id and
// owner exists.
func (d *DB) DeleteOwnedEvent(ctx context.Context, id, ownerID string) (bool, error) {
	deleted := false
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Where("created_by = ?", ownerID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("delete event rows affected: %w", err)
		} else if n == 0 {
			return nil
		}

		if _, err := tx.NewDelete().
			Model((*models.EventAttendee)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete attendees: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ---------------- ATTENDANCE ----------------

// JoinEvent adds userID to the event in a single transaction made of two
// conditional writes: the attendee insert is ignored on a primary key clash,
// and the counter only moves while it is below capacity. Nothing is read
// before those writes decide the outcome. The returned event is set only for
// JoinAccepted.
func (d *DB) JoinEvent(ctx context.Context, eventID, userID string) (models.JoinOutcome, *models.Event, error) {
	outcome := models.JoinAccepted
	var event *models.Event

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &models.EventAttendee{
			EventID:  eventID,
			UserID:   userID,
			JoinedAt: time.Now().UTC(),
		}
		res, err := tx.NewInsert().Model(row).Ignore().Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert attendee: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert attendee rows affected: %w", err)
		}
		if inserted == 0 {
			outcome = models.JoinDuplicate
			if exists, err := eventExists(ctx, tx, eventID); err != nil {
				return err
			} else if !exists {
				outcome = models.JoinEventMissing
			}
			return errRollback
		}

		res, err = tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("attendee_count = attendee_count + 1").
			Where("id = ?", eventID).
			Where("attendee_count < capacity").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("increment attendee count: %w", err)
		}
		updated, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("increment rows affected: %w", err)
		}
		if updated == 0 {
			// The predicate already rejected the join; this only names the reason.
			outcome = models.JoinFull
			if exists, err := eventExists(ctx, tx, eventID); err != nil {
				return err
			} else if !exists {
				outcome = models.JoinEventMissing
			}
			return errRollback
		}

		event, err = getEvent(ctx, tx, eventID)
		return err
	})
	if errors.Is(err, errRollback) {
		return outcome, nil, nil
	}
	if err != nil {
		return outcome, nil, err
	}
	return outcome, event, nil
}

// LeaveEvent removes userID from the event and decrements the counter in the
// same transaction. The returned event is nil only for LeaveEventMissing.
func (d *DB) LeaveEvent(ctx context.Context, eventID, userID string) (models.LeaveOutcome, *models.Event, error) {
	outcome := models.LeaveRemoved
	var event *models.Event

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.EventAttendee)(nil)).
			Where("event_id = ?", eventID).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete attendee: %w", err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete attendee rows affected: %w", err)
		}

		if removed == 0 {
			outcome = models.LeaveNotAttending
		} else {
			res, err = tx.NewUpdate().
				Model((*models.Event)(nil)).
				Set("attendee_count = attendee_count - 1").
				Where("id = ?", eventID).
				Where("attendee_count > 0").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("decrement attendee count: %w", err)
			}
			if _, err := res.RowsAffected(); err != nil {
				return fmt.Errorf("decrement rows affected: %w", err)
			}
		}

		event, err = getEvent(ctx, tx, eventID)
		if errors.Is(err, models.ErrNotFound) {
			outcome = models.LeaveEventMissing
			event = nil
			return nil
		}
		return err
	})
	if err != nil {
		return outcome, nil, err
	}
	return outcome, event, nil
}

// ListAttendees returns the user ids attending eventID in join order.
func (d *DB) ListAttendees(ctx context.Context, eventID string) ([]string, error) {
	return listAttendees(ctx, d.Bun, eventID)
}

// IsAttendee reports whether userID holds a place on eventID.
func (d *DB) IsAttendee(ctx context.Context, eventID, userID string) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.EventAttendee)(nil)).
		Where("event_id = ?", eventID).
		Where("user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check attendee: %w", err)
	}
	return exists, nil
}

// ---------------- HELPERS ----------------

func getEvent(ctx context.Context, idb bun.IDB, id string) (*models.Event, error) {
	var event models.Event
	err := idb.NewSelect().
		Model(&event).
		Relation("Owner").
		Where("e.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	event.Attendees, err = listAttendees(ctx, idb, id)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func listAttendees(ctx context.Context, idb bun.IDB, eventID string) ([]string, error) {
	var userIDs []string
	err := idb.NewSelect().
		Model((*models.EventAttendee)(nil)).
		Column("user_id").
		Where("event_id = ?", eventID).
		OrderExpr("joined_at ASC").
		Scan(ctx, &userIDs)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	if userIDs == nil {
		userIDs = []string{}
	}
	return userIDs, nil
}

func eventExists(ctx context.Context, idb bun.IDB, id string) (bool, error) {
	exists, err := idb.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check event: %w", err)
	}
	return exists, nil
}
