package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Users     persistence.UserRepository
	Resources persistence.ResourceRepository
	Timetable persistence.TimetableRepository
	Bookings  persistence.BookingRepository
	Sessions  persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness on a temporary database file
// that is migrated automatically. A cleanup callback is registered with the
// provided testing.TB; Close may also be called explicitly.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "campus.db")
	pool, err := sqlite.Open(context.Background(), "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	harness := &SQLiteHarness{
		Users:     sqlite.NewUserRepository(pool),
		Resources: sqlite.NewResourceRepository(pool),
		Timetable: sqlite.NewTimetableRepository(pool),
		Bookings:  sqlite.NewBookingRepository(pool),
		Sessions:  sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
