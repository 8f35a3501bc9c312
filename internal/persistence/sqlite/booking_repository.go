package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// CreateRequest inserts a booking request.
func (r *BookingRepository) CreateRequest(ctx context.Context, request persistence.BookingRequest) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO booking_requests (
			id, requester_id, requester_department, resource_id, target_department,
			day_of_week, date, start_time, end_time, purpose, attendance,
			status, approver_id, decided_at, notes, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		request.ID,
		request.RequesterID,
		request.RequesterDepartment,
		request.ResourceID,
		request.TargetDepartment,
		request.DayOfWeek,
		nullTimestamp(request.Date),
		request.StartTime,
		request.EndTime,
		request.Purpose,
		request.Attendance,
		request.Status,
		nullString(request.ApproverID),
		nullTimestamp(request.DecidedAt),
		nullString(request.Notes),
		request.CreatedAt.UTC().Format(time.RFC3339),
		request.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetRequest retrieves a booking request by ID.
func (r *BookingRepository) GetRequest(ctx context.Context, id string) (persistence.BookingRequest, error) {
	if id == "" {
		return persistence.BookingRequest{}, persistence.ErrNotFound
	}

	request, err := scanBookingRequest(r.pool.db.QueryRowContext(ctx, selectBooking+" WHERE id = ?", id))
	if err != nil {
		return persistence.BookingRequest{}, mapError(err)
	}
	return request, nil
}

// ListRequests returns requests matching the filter, newest first.
func (r *BookingRepository) ListRequests(ctx context.Context, filter persistence.BookingFilter) ([]persistence.BookingRequest, error) {
	query := selectBooking

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
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.TargetDepartment != "" {
		conditions = append(conditions, "target_department = ?")
		args = append(args, filter.TargetDepartment)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var requests []persistence.BookingRequest
	for rows.Next() {
		request, err := scanBookingRequest(rows)
		if err != nil {
			return nil, mapError(err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return requests, nil
}

// TransitionRequest applies a guarded status change inside a transaction.
// The UPDATE is conditioned on the stored status still matching the expected
// source state, so the second of two racing approvals observes zero affected
// rows and receives ErrStaleTransition instead of silently double-booking.
func (r *BookingRepository) TransitionRequest(ctx context.Context, transition persistence.BookingTransition) (persistence.BookingRequest, error) {
	if transition.RequestID == "" {
		return persistence.BookingRequest{}, persistence.ErrNotFound
	}

	var updated persistence.BookingRequest
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var decidedAt sql.NullString
		if transition.DecidedAt != nil {
			decidedAt = sql.NullString{String: transition.DecidedAt.UTC().Format(time.RFC3339), Valid: true}
		}

		updatedAt := time.Now().UTC()
		if transition.DecidedAt != nil {
			updatedAt = transition.DecidedAt.UTC()
		}

		result, err := tx.Exec(`
			UPDATE booking_requests
			SET status = ?, approver_id = ?, decided_at = ?, notes = COALESCE(?, notes), updated_at = ?
			WHERE id = ? AND status = ?
		`,
			transition.To,
			nullString(transition.ApproverID),
			decidedAt,
			nullString(transition.Notes),
			updatedAt.Format(time.RFC3339),
			transition.RequestID,
			transition.From,
		)
		if err != nil {
			return mapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Distinguish a missing record from a lost race.
			var exists int
			if err := tx.QueryRow("SELECT COUNT(1) FROM booking_requests WHERE id = ?", transition.RequestID).Scan(&exists); err != nil {
				return mapError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
			return persistence.ErrStaleTransition
		}

		updated, err = scanBookingRequest(tx.QueryRow(selectBooking+" WHERE id = ?", transition.RequestID))
		return mapError(err)
	})
	if err != nil {
		return persistence.BookingRequest{}, err
	}
	return updated, nil
}

const selectBooking = `
	SELECT id, requester_id, requester_department, resource_id, target_department,
	       day_of_week, date, start_time, end_time, purpose, attendance,
	       status, approver_id, decided_at, notes, created_at, updated_at
	FROM booking_requests
`

func scanBookingRequest(row rowScanner) (persistence.BookingRequest, error) {
	var request persistence.BookingRequest
	var date, approverID, decidedAt, notes sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(
		&request.ID,
		&request.RequesterID,
		&request.RequesterDepartment,
		&request.ResourceID,
		&request.TargetDepartment,
		&request.DayOfWeek,
		&date,
		&request.StartTime,
		&request.EndTime,
		&request.Purpose,
		&request.Attendance,
		&request.Status,
		&approverID,
		&decidedAt,
		&notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.BookingRequest{}, err
	}

	request.ApproverID = stringPtr(approverID)
	request.Notes = stringPtr(notes)

	var err error
	if request.Date, err = parseNullTimestamp(date); err != nil {
		return persistence.BookingRequest{}, err
	}
	if request.DecidedAt, err = parseNullTimestamp(decidedAt); err != nil {
		return persistence.BookingRequest{}, err
	}
	if request.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.BookingRequest{}, err
	}
	if request.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.BookingRequest{}, err
	}
	return request, nil
}

func nullTimestamp(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(time.RFC3339), Valid: true}
}
