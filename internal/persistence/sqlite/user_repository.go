package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new staff account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO users (id, email, display_name, password_hash, department, role, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		user.ID,
		strings.ToLower(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.Department,
		user.Role,
		boolToInt(user.Disabled),
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateUser updates an existing staff account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE users
		SET email = ?, display_name = ?, password_hash = ?, department = ?, role = ?, disabled = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		strings.ToLower(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.Department,
		user.Role,
		boolToInt(user.Disabled),
		user.UpdatedAt.UTC().Format(time.RFC3339),
		user.ID,
	)
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

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	user, err := scanUser(r.pool.db.QueryRowContext(ctx, selectUser+" WHERE id = ?", id))
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	user, err := scanUser(r.pool.db.QueryRowContext(ctx, selectUser+" WHERE email = ?", email))
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// ListUsers returns all users ordered by department then display name.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, selectUser+" ORDER BY department, display_name, id")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

const selectUser = `
	SELECT id, email, display_name, password_hash, department, role, disabled, created_at, updated_at
	FROM users
`

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var disabled int
	var createdAt, updatedAt string

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Department,
		&user.Role,
		&disabled,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.User{}, err
	}

	user.Disabled = disabled != 0

	var err error
	if user.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
