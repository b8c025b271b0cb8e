package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-events/internal/models"
)

var tables = []interface{}{
	(*models.User)(nil),
	(*models.Event)(nil),
	(*models.EventAttendee)(nil),
}

// CreateSchema creates every table and index the service needs. It is safe to
// run on every start.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS.
	if IsMySQL(db) {
		return nil
	}

	if _, err := db.NewCreateIndex().
		Model((*models.Event)(nil)).
		Index("idx_events_date_time").
		Column("date_time").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create events date index: %w", err)
	}

	if _, err := db.NewCreateIndex().
		Model((*models.EventAttendee)(nil)).
		Index("idx_event_attendees_user").
		Column("user_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create attendee user index: %w", err)
	}
	return nil
}

// DropSchema removes every table. Tests use it between runs against a shared
// database.
func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", tables[i], err)
		}
	}
	return nil
}
