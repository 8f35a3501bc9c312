package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// TimetableRepository implements persistence.TimetableRepository using SQLite.
type TimetableRepository struct {
	pool *ConnectionPool
}

// NewTimetableRepository creates a new SQLite timetable repository.
func NewTimetableRepository(pool *ConnectionPool) *TimetableRepository {
	return &TimetableRepository{pool: pool}
}

// CreateEntry inserts a standing weekly class session.
func (r *TimetableRepository) CreateEntry(ctx context.Context, entry persistence.TimetableEntry) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO timetable_entries (id, resource_id, day_of_week, start_time, end_time, course, instructor, department, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		entry.ID,
		entry.ResourceID,
		entry.DayOfWeek,
		entry.StartTime,
		entry.EndTime,
		entry.Course,
		entry.Instructor,
		entry.Department,
		entry.CreatedAt.UTC().Format(time.RFC3339),
		entry.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetEntry retrieves a timetable entry by ID.
func (r *TimetableRepository) GetEntry(ctx context.Context, id string) (persistence.TimetableEntry, error) {
	if id == "" {
		return persistence.TimetableEntry{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, resource_id, day_of_week, start_time, end_time, course, instructor, department, created_at, updated_at
		FROM timetable_entries
		WHERE id = ?
	`

	entry, err := scanTimetableEntry(r.pool.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.TimetableEntry{}, mapError(err)
	}
	return entry, nil
}

// ListEntries returns entries matching the filter ordered by day then start
// time.
func (r *TimetableRepository) ListEntries(ctx context.Context, filter persistence.TimetableFilter) ([]persistence.TimetableEntry, error) {
	query := `
		SELECT id, resource_id, day_of_week, start_time, end_time, course, instructor, department, created_at, updated_at
		FROM timetable_entries
	`

	var conditions []string
	var args []any
	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, "day_of_week = ?")
		args = append(args, *filter.DayOfWeek)
	}
	if filter.Department != "" {
		conditions = append(conditions, "department = ?")
		args = append(args, filter.Department)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY day_of_week, start_time, id"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.TimetableEntry
	for rows.Next() {
		entry, err := scanTimetableEntry(rows)
		if err != nil {
			return nil, mapError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// DeleteEntry removes a timetable entry.
func (r *TimetableRepository) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM timetable_entries WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanTimetableEntry(row rowScanner) (persistence.TimetableEntry, error) {
	var entry persistence.TimetableEntry
	var createdAt, updatedAt string

	if err := row.Scan(
		&entry.ID,
		&entry.ResourceID,
		&entry.DayOfWeek,
		&entry.StartTime,
		&entry.EndTime,
		&entry.Course,
		&entry.Instructor,
		&entry.Department,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.TimetableEntry{}, err
	}

	var err error
	if entry.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.TimetableEntry{}, err
	}
	if entry.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.TimetableEntry{}, err
	}
	return entry, nil
}
