package sqlite

import (
	"context"

	"github.com/example/facility-planner/internal/persistence"
)

// ActivityRepository implements persistence.ActivityRepository using SQLite.
type ActivityRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewActivityRepository creates a new SQLite activity repository.
func NewActivityRepository(pool *ConnectionPool) *ActivityRepository {
	return &ActivityRepository{pool: pool, mapper: NewErrorMapper()}
}

const activityColumns = `id, name, fixed_minutes, minutes_per_m2, required_tools, created_at, updated_at`

// CreateActivity inserts a new activity definition.
func (r *ActivityRepository) CreateActivity(ctx context.Context, activity persistence.Activity) error {
	if activity.ID == "" {
		return persistence.ErrConstraintViolation
	}
	tools, err := encodeStrings(activity.RequiredTools)
	if err != nil {
		return err
	}

	_, err = r.pool.DB().ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.Name,
		activity.FixedMinutes,
		activity.MinutesPerM2,
		tools,
		formatTimestamp(activity.CreatedAt),
		formatTimestamp(activity.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateActivity updates an existing activity definition.
func (r *ActivityRepository) UpdateActivity(ctx context.Context, activity persistence.Activity) error {
	tools, err := encodeStrings(activity.RequiredTools)
	if err != nil {
		return err
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE activities
		SET name = ?, fixed_minutes = ?, minutes_per_m2 = ?, required_tools = ?, updated_at = ?
		WHERE id = ?`,
		activity.Name,
		activity.FixedMinutes,
		activity.MinutesPerM2,
		tools,
		formatTimestamp(activity.UpdatedAt),
		activity.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

// GetActivity retrieves an activity by ID.
func (r *ActivityRepository) GetActivity(ctx context.Context, id string) (persistence.Activity, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	activity, err := scanActivity(row)
	if err != nil {
		return persistence.Activity{}, r.mapper.MapError(err)
	}
	return activity, nil
}

// ListActivities returns all activities ordered by name then ID.
func (r *ActivityRepository) ListActivities(ctx context.Context) ([]persistence.Activity, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var activities []persistence.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return activities, nil
}

// DeleteActivity removes an activity that no template references.
func (r *ActivityRepository) DeleteActivity(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

func scanActivity(row rowScanner) (persistence.Activity, error) {
	var (
		activity             persistence.Activity
		tools                string
		createdAt, updatedAt string
	)
	if err := row.Scan(&activity.ID, &activity.Name, &activity.FixedMinutes, &activity.MinutesPerM2, &tools, &createdAt, &updatedAt); err != nil {
		return persistence.Activity{}, err
	}

	var err error
	if activity.RequiredTools, err = decodeStrings(tools); err != nil {
		return persistence.Activity{}, err
	}
	if activity.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Activity{}, err
	}
	if activity.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Activity{}, err
	}
	return activity, nil
}
