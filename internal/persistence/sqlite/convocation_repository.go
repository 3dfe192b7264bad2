package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/facility-planner/internal/persistence"
)

// ConvocationRepository implements persistence.ConvocationRepository using SQLite.
type ConvocationRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewConvocationRepository creates a new SQLite convocation repository.
func NewConvocationRepository(pool *ConnectionPool) *ConvocationRepository {
	return &ConvocationRepository{pool: pool, mapper: NewErrorMapper()}
}

const convocationColumns = `id, schedule_id, shift_id, staff_id, shift_date, shift_start_time, shift_end_time,
	sent_at, deadline_at, responded_at, status, justification, rejection_reason`

// CreateConvocations stores a batch of convocations in one transaction.
func (r *ConvocationRepository) CreateConvocations(ctx context.Context, convocations []persistence.Convocation) error {
	if len(convocations) == 0 {
		return nil
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, c := range convocations {
			if c.ID == "" {
				return persistence.ErrConstraintViolation
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO convocations (`+convocationColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID,
				c.ScheduleID,
				c.ShiftID,
				c.StaffID,
				formatDate(c.ShiftDate),
				c.ShiftStartTime,
				c.ShiftEndTime,
				formatTimestamp(c.SentAt),
				formatTimestamp(c.DeadlineAt),
				nullTimestamp(c.RespondedAt),
				c.Status,
				c.Justification,
				nullString(c.RejectionReason),
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetConvocation retrieves a convocation by ID.
func (r *ConvocationRepository) GetConvocation(ctx context.Context, id string) (persistence.Convocation, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+convocationColumns+` FROM convocations WHERE id = ?`, id)
	c, err := scanConvocation(row)
	if err != nil {
		return persistence.Convocation{}, r.mapper.MapError(err)
	}
	return c, nil
}

// UpdateConvocation stores the response fields of a convocation.
func (r *ConvocationRepository) UpdateConvocation(ctx context.Context, c persistence.Convocation) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE convocations
		SET status = ?, responded_at = ?, rejection_reason = ?
		WHERE id = ?`,
		c.Status,
		nullTimestamp(c.RespondedAt),
		nullString(c.RejectionReason),
		c.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

// ListConvocations returns the schedule's convocations ordered by shift date then staff.
func (r *ConvocationRepository) ListConvocations(ctx context.Context, scheduleID string) ([]persistence.Convocation, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT `+convocationColumns+` FROM convocations
		WHERE schedule_id = ? ORDER BY shift_date ASC, staff_id ASC, id ASC`, scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var list []persistence.Convocation
	for rows.Next() {
		c, err := scanConvocation(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return list, nil
}

func scanConvocation(row rowScanner) (persistence.Convocation, error) {
	var (
		c                         persistence.Convocation
		shiftDate, sent, deadline string
		responded, reason         sql.NullString
	)
	if err := row.Scan(
		&c.ID,
		&c.ScheduleID,
		&c.ShiftID,
		&c.StaffID,
		&shiftDate,
		&c.ShiftStartTime,
		&c.ShiftEndTime,
		&sent,
		&deadline,
		&responded,
		&c.Status,
		&c.Justification,
		&reason,
	); err != nil {
		return persistence.Convocation{}, err
	}
	c.RejectionReason = stringPtr(reason)

	var err error
	if c.ShiftDate, err = parseDate(shiftDate); err != nil {
		return persistence.Convocation{}, err
	}
	if c.SentAt, err = parseTimestamp(sent); err != nil {
		return persistence.Convocation{}, err
	}
	if c.DeadlineAt, err = parseTimestamp(deadline); err != nil {
		return persistence.Convocation{}, err
	}
	if c.RespondedAt, err = timestampPtr(responded); err != nil {
		return persistence.Convocation{}, err
	}
	return c, nil
}
