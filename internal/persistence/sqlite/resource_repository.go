package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository using SQLite.
type ResourceRepository struct {
	pool *ConnectionPool
}

// NewResourceRepository creates a new SQLite resource repository.
func NewResourceRepository(pool *ConnectionPool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

// CreateResource inserts a new resource into the catalog.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" || resource.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO resources (id, name, type, capacity, department, shared, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		resource.ID,
		resource.Name,
		resource.Type,
		resource.Capacity,
		resource.Department,
		boolToInt(resource.Shared),
		boolToInt(resource.Active),
		resource.CreatedAt.UTC().Format(time.RFC3339),
		resource.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateResource updates an existing resource.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" || resource.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE resources
		SET name = ?, type = ?, capacity = ?, department = ?, shared = ?, active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		resource.Name,
		resource.Type,
		resource.Capacity,
		resource.Department,
		boolToInt(resource.Shared),
		boolToInt(resource.Active),
		resource.UpdatedAt.UTC().Format(time.RFC3339),
		resource.ID,
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

// GetResource retrieves a resource by ID.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, type, capacity, department, shared, active, created_at, updated_at
		FROM resources
		WHERE id = ?
	`

	row := r.pool.db.QueryRowContext(ctx, query, id)
	resource, err := scanResource(row)
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}
	return resource, nil
}

// ListResources returns catalog entries matching the filter, ordered by
// department then name.
func (r *ResourceRepository) ListResources(ctx context.Context, filter persistence.ResourceFilter) ([]persistence.Resource, error) {
	query := `
		SELECT id, name, type, capacity, department, shared, active, created_at, updated_at
		FROM resources
	`

	var conditions []string
	var args []any
	if filter.Department != "" {
		conditions = append(conditions, "department = ?")
		args = append(args, filter.Department)
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Shared != nil {
		conditions = append(conditions, "shared = ?")
		args = append(args, boolToInt(*filter.Shared))
	}
	if filter.Active != nil {
		conditions = append(conditions, "active = ?")
		args = append(args, boolToInt(*filter.Active))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY department, name, id"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, mapError(err)
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return resources, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (persistence.Resource, error) {
	var resource persistence.Resource
	var shared, active int
	var createdAt, updatedAt string

	if err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.Type,
		&resource.Capacity,
		&resource.Department,
		&shared,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Resource{}, err
	}

	resource.Shared = shared != 0
	resource.Active = active != 0

	var err error
	if resource.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Resource{}, err
	}
	if resource.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Resource{}, err
	}
	return resource, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", value, err)
	}
	return parsed, nil
}

func parseNullTimestamp(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := parseTimestamp(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
