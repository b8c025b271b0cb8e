package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-events/internal/models"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// GetEvent loads the bare event row, without owner or attendees.
func (db *DB) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := db.bun.NewSelect().
		Model(&event).
		Where("e.id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// GetEventsByOwner retrieves every event created by ownerID ordered by date
func (db *DB) GetEventsByOwner(ctx context.Context, ownerID string) ([]models.Event, error) {
	var events []models.Event
	err := db.bun.NewSelect().
		Model(&events).
		Where("e.created_by = ?", ownerID).
		OrderExpr("e.date_time ASC").
		OrderExpr("e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list owner events: %w", err)
	}
	return events, nil
}

// GetJoinTimesByEventID returns when each current attendee joined, oldest first.
// Bucketing happens in Go so the query is the same on every dialect.
func (db *DB) GetJoinTimesByEventID(ctx context.Context, eventID string) ([]time.Time, error) {
	var joinedAt []time.Time
	err := db.bun.NewSelect().
		Model((*models.EventAttendee)(nil)).
		Column("joined_at").
		Where("event_id = ?", eventID).
		OrderExpr("joined_at ASC").
		Scan(ctx, &joinedAt)
	if err != nil {
		return nil, fmt.Errorf("list join times: %w", err)
	}
	return joinedAt, nil
}
