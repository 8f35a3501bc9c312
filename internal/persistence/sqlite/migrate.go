package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; the schema version is tracked in
// PRAGMA user_version so re-opening an existing database is a no-op.
var migrations = []string{
	`CREATE TABLE users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		department    TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('faculty', 'hod', 'principal')),
		disabled      INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE TABLE resources (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		type       TEXT NOT NULL,
		capacity   INTEGER NOT NULL CHECK (capacity > 0),
		department TEXT NOT NULL,
		shared     INTEGER NOT NULL DEFAULT 0,
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE timetable_entries (
		id          TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id),
		day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL CHECK (start_time < end_time),
		course      TEXT NOT NULL,
		instructor  TEXT NOT NULL,
		department  TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX idx_timetable_resource_day ON timetable_entries(resource_id, day_of_week);

	CREATE TABLE booking_requests (
		id                   TEXT PRIMARY KEY,
		requester_id         TEXT NOT NULL REFERENCES users(id),
		requester_department TEXT NOT NULL,
		resource_id          TEXT NOT NULL REFERENCES resources(id),
		target_department    TEXT NOT NULL,
		day_of_week          INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		date                 TEXT,
		start_time           TEXT NOT NULL,
		end_time             TEXT NOT NULL CHECK (start_time < end_time),
		purpose              TEXT NOT NULL,
		attendance           INTEGER NOT NULL DEFAULT 0,
		status               TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled')),
		approver_id          TEXT,
		decided_at           TEXT,
		notes                TEXT,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	);
	CREATE INDEX idx_booking_resource_day ON booking_requests(resource_id, day_of_week);
	CREATE INDEX idx_booking_status ON booking_requests(status);

	CREATE TABLE sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	);`,
}

// Migrate applies any migrations newer than the database's recorded schema
// version.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	var version int
	if err := cp.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		statement := migrations[i]
		next := i + 1
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(statement); err != nil {
				return fmt.Errorf("migration %d failed: %w", next, err)
			}
			if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", next)); err != nil {
				return fmt.Errorf("failed to record schema version %d: %w", next, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
