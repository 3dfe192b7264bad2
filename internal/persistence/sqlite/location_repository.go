package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/facility-planner/internal/persistence"
)

// LocationRepository implements persistence.LocationRepository using SQLite.
type LocationRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewLocationRepository creates a new SQLite location repository.
func NewLocationRepository(pool *ConnectionPool) *LocationRepository {
	return &LocationRepository{pool: pool, mapper: NewErrorMapper()}
}

const locationColumns = `id, name, floor_area_m2, description, created_at, updated_at`

// CreateLocation inserts a new location.
func (r *LocationRepository) CreateLocation(ctx context.Context, location persistence.Location) error {
	if location.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO locations (`+locationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		location.ID,
		location.Name,
		location.FloorAreaM2,
		nullString(location.Description),
		formatTimestamp(location.CreatedAt),
		formatTimestamp(location.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateLocation updates an existing location.
func (r *LocationRepository) UpdateLocation(ctx context.Context, location persistence.Location) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE locations
		SET name = ?, floor_area_m2 = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		location.Name,
		location.FloorAreaM2,
		nullString(location.Description),
		formatTimestamp(location.UpdatedAt),
		location.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

// GetLocation retrieves a location by ID.
func (r *LocationRepository) GetLocation(ctx context.Context, id string) (persistence.Location, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id)
	location, err := scanLocation(row)
	if err != nil {
		return persistence.Location{}, r.mapper.MapError(err)
	}
	return location, nil
}

// ListLocations returns all locations ordered by name then ID.
func (r *LocationRepository) ListLocations(ctx context.Context) ([]persistence.Location, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var locations []persistence.Location
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return locations, nil
}

// DeleteLocation removes a location. Locations referenced by templates or
// occurrences cannot be deleted.
func (r *LocationRepository) DeleteLocation(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

func scanLocation(row rowScanner) (persistence.Location, error) {
	var (
		location             persistence.Location
		description          sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&location.ID, &location.Name, &location.FloorAreaM2, &description, &createdAt, &updatedAt); err != nil {
		return persistence.Location{}, err
	}
	location.Description = stringPtr(description)

	var err error
	if location.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Location{}, err
	}
	if location.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Location{}, err
	}
	return location, nil
}
