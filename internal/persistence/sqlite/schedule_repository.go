package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/facility-planner/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite.
type ScheduleRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewScheduleRepository creates a new SQLite schedule repository.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool, mapper: NewErrorMapper()}
}

const shiftColumns = `id, schedule_id, staff_id, date, start_time, end_time, break_minutes, net_hours, created_at, updated_at`

// GetScheduleByWeek returns the schedule of the week starting on weekStart.
func (r *ScheduleRepository) GetScheduleByWeek(ctx context.Context, weekStart time.Time) (persistence.WeeklySchedule, error) {
	var (
		schedule                persistence.WeeklySchedule
		start, created, updated string
	)
	err := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, week_start, sector, created_at, updated_at
		FROM weekly_schedules WHERE week_start = ?`, formatDate(weekStart),
	).Scan(&schedule.ID, &start, &schedule.Sector, &created, &updated)
	if err != nil {
		return persistence.WeeklySchedule{}, r.mapper.MapError(err)
	}
	if schedule.WeekStart, err = parseDate(start); err != nil {
		return persistence.WeeklySchedule{}, err
	}
	if schedule.CreatedAt, err = parseTimestamp(created); err != nil {
		return persistence.WeeklySchedule{}, err
	}
	if schedule.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return persistence.WeeklySchedule{}, err
	}
	return schedule, nil
}

// CreateSchedule inserts an empty schedule header.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.WeeklySchedule) error {
	return r.insertSchedule(ctx, r.pool.DB(), schedule)
}

// ReplaceSchedule swaps the week's schedule for schedule and shifts atomically.
func (r *ScheduleRepository) ReplaceSchedule(ctx context.Context, schedule persistence.WeeklySchedule, shifts []persistence.ShiftAssignment) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_schedules WHERE week_start = ?`, formatDate(schedule.WeekStart)); err != nil {
			return r.mapper.MapError(err)
		}
		if err := r.insertSchedule(ctx, tx, schedule); err != nil {
			return err
		}
		for _, shift := range shifts {
			shift.ScheduleID = schedule.ID
			if err := r.upsertShift(ctx, tx, shift); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListShifts returns the schedule's shifts ordered by date then staff.
func (r *ScheduleRepository) ListShifts(ctx context.Context, scheduleID string) ([]persistence.ShiftAssignment, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT `+shiftColumns+` FROM shift_assignments
		WHERE schedule_id = ? ORDER BY date ASC, staff_id ASC`, scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var shifts []persistence.ShiftAssignment
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return shifts, nil
}

// GetShift retrieves a shift by ID.
func (r *ScheduleRepository) GetShift(ctx context.Context, id string) (persistence.ShiftAssignment, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shift_assignments WHERE id = ?`, id)
	shift, err := scanShift(row)
	if err != nil {
		return persistence.ShiftAssignment{}, r.mapper.MapError(err)
	}
	return shift, nil
}

// UpsertShift inserts the shift or, when the staff member already has a shift
// on that date in the schedule, overwrites its times.
func (r *ScheduleRepository) UpsertShift(ctx context.Context, shift persistence.ShiftAssignment) error {
	return r.upsertShift(ctx, r.pool.DB(), shift)
}

// DeleteShift removes a shift. Its convocation is removed by cascade.
func (r *ScheduleRepository) DeleteShift(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM shift_assignments WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

// ShiftConvoked reports whether a convocation references the shift.
func (r *ScheduleRepository) ShiftConvoked(ctx context.Context, shiftID string) (bool, error) {
	var exists int
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM convocations WHERE shift_id = ?)`, shiftID,
	).Scan(&exists)
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	return exists == 1, nil
}

func (r *ScheduleRepository) insertSchedule(ctx context.Context, db execer, schedule persistence.WeeklySchedule) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO weekly_schedules (id, week_start, sector, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		schedule.ID,
		formatDate(schedule.WeekStart),
		schedule.Sector,
		formatTimestamp(schedule.CreatedAt),
		formatTimestamp(schedule.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

func (r *ScheduleRepository) upsertShift(ctx context.Context, db execer, shift persistence.ShiftAssignment) error {
	if shift.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO shift_assignments (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (schedule_id, staff_id, date) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			break_minutes = excluded.break_minutes,
			net_hours = excluded.net_hours,
			updated_at = excluded.updated_at`,
		shift.ID,
		shift.ScheduleID,
		shift.StaffID,
		formatDate(shift.Date),
		nullIfEmpty(shift.StartTime),
		nullIfEmpty(shift.EndTime),
		shift.BreakMinutes,
		shift.NetHours,
		formatTimestamp(shift.CreatedAt),
		formatTimestamp(shift.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

func scanShift(row rowScanner) (persistence.ShiftAssignment, error) {
	var (
		shift                persistence.ShiftAssignment
		date                 string
		start, end           sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&shift.ID,
		&shift.ScheduleID,
		&shift.StaffID,
		&date,
		&start,
		&end,
		&shift.BreakMinutes,
		&shift.NetHours,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.ShiftAssignment{}, err
	}
	shift.StartTime = start.String
	shift.EndTime = end.String

	var err error
	if shift.Date, err = parseDate(date); err != nil {
		return persistence.ShiftAssignment{}, err
	}
	if shift.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.ShiftAssignment{}, err
	}
	if shift.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.ShiftAssignment{}, err
	}
	return shift, nil
}
