package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/facility-planner/internal/persistence"
)

// GovernanceRepository implements persistence.GovernanceRepository using SQLite.
type GovernanceRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewGovernanceRepository creates a new SQLite governance repository.
func NewGovernanceRepository(pool *ConnectionPool) *GovernanceRepository {
	return &GovernanceRepository{pool: pool, mapper: NewErrorMapper()}
}

const parameterColumns = `speed_vacant_dirty_minutes, speed_stay_minutes, holiday_demand_multiplier,
	holiday_eve_demand_multiplier, efficiency_target_percent, standard_shift_hours, total_room_capacity,
	intermittent_min_weekly_hours, intermittent_max_weekly_hours, max_consecutive_days, mandatory_rest_hours,
	prefer_effective_on_holidays, allow_intermittent_on_holidays, updated_at`

const dayColumns = `date, day_type, vacant_dirty, stay, occupancy_percent, total_minutes, adjusted_minutes,
	required_hours, required_hours_with_efficiency, required_staff_count`

// GetParameters returns the stored parameters row or persistence.ErrNotFound
// when none was ever saved.
func (r *GovernanceRepository) GetParameters(ctx context.Context) (persistence.GovernanceParameters, error) {
	var (
		params        persistence.GovernanceParameters
		prefer, allow int
		updatedAt     string
	)
	err := r.pool.DB().QueryRowContext(ctx, `SELECT `+parameterColumns+` FROM governance_parameters WHERE id = 1`).Scan(
		&params.SpeedVacantDirtyMinutes,
		&params.SpeedStayMinutes,
		&params.HolidayDemandMultiplier,
		&params.HolidayEveDemandMultiplier,
		&params.EfficiencyTargetPercent,
		&params.StandardShiftHours,
		&params.TotalRoomCapacity,
		&params.IntermittentMinWeeklyHours,
		&params.IntermittentMaxWeeklyHours,
		&params.MaxConsecutiveDays,
		&params.MandatoryRestHours,
		&prefer,
		&allow,
		&updatedAt,
	)
	if err != nil {
		return persistence.GovernanceParameters{}, r.mapper.MapError(err)
	}
	params.PreferEffectiveOnHolidays = prefer != 0
	params.AllowIntermittentOnHolidays = allow != 0
	if params.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.GovernanceParameters{}, err
	}
	return params, nil
}

// SaveParameters inserts or replaces the single parameters row.
func (r *GovernanceRepository) SaveParameters(ctx context.Context, params persistence.GovernanceParameters) error {
	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO governance_parameters (id, `+parameterColumns+`)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			speed_vacant_dirty_minutes = excluded.speed_vacant_dirty_minutes,
			speed_stay_minutes = excluded.speed_stay_minutes,
			holiday_demand_multiplier = excluded.holiday_demand_multiplier,
			holiday_eve_demand_multiplier = excluded.holiday_eve_demand_multiplier,
			efficiency_target_percent = excluded.efficiency_target_percent,
			standard_shift_hours = excluded.standard_shift_hours,
			total_room_capacity = excluded.total_room_capacity,
			intermittent_min_weekly_hours = excluded.intermittent_min_weekly_hours,
			intermittent_max_weekly_hours = excluded.intermittent_max_weekly_hours,
			max_consecutive_days = excluded.max_consecutive_days,
			mandatory_rest_hours = excluded.mandatory_rest_hours,
			prefer_effective_on_holidays = excluded.prefer_effective_on_holidays,
			allow_intermittent_on_holidays = excluded.allow_intermittent_on_holidays,
			updated_at = excluded.updated_at`,
		params.SpeedVacantDirtyMinutes,
		params.SpeedStayMinutes,
		params.HolidayDemandMultiplier,
		params.HolidayEveDemandMultiplier,
		params.EfficiencyTargetPercent,
		params.StandardShiftHours,
		params.TotalRoomCapacity,
		params.IntermittentMinWeeklyHours,
		params.IntermittentMaxWeeklyHours,
		params.MaxConsecutiveDays,
		params.MandatoryRestHours,
		boolToInt(params.PreferEffectiveOnHolidays),
		boolToInt(params.AllowIntermittentOnHolidays),
		formatTimestamp(params.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetWeekPlan returns the plan whose week starts on weekStart with its days in date order.
func (r *GovernanceRepository) GetWeekPlan(ctx context.Context, weekStart time.Time) (persistence.WeekPlan, error) {
	var (
		plan                         persistence.WeekPlan
		start, end, created, updated string
	)
	err := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, week_start, week_end, maintenance_rooms, created_at, updated_at
		FROM week_plans WHERE week_start = ?`, formatDate(weekStart),
	).Scan(&plan.ID, &start, &end, &plan.MaintenanceRooms, &created, &updated)
	if err != nil {
		return persistence.WeekPlan{}, r.mapper.MapError(err)
	}
	if plan.WeekStart, err = parseDate(start); err != nil {
		return persistence.WeekPlan{}, err
	}
	if plan.WeekEnd, err = parseDate(end); err != nil {
		return persistence.WeekPlan{}, err
	}
	if plan.CreatedAt, err = parseTimestamp(created); err != nil {
		return persistence.WeekPlan{}, err
	}
	if plan.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return persistence.WeekPlan{}, err
	}

	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+dayColumns+` FROM week_plan_days WHERE plan_id = ? ORDER BY date ASC`, plan.ID)
	if err != nil {
		return persistence.WeekPlan{}, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day  persistence.DayPlan
			date string
		)
		if err := rows.Scan(
			&date,
			&day.DayType,
			&day.VacantDirty,
			&day.Stay,
			&day.OccupancyPercent,
			&day.TotalMinutes,
			&day.AdjustedMinutes,
			&day.RequiredHours,
			&day.RequiredHoursWithEfficiency,
			&day.RequiredStaffCount,
		); err != nil {
			return persistence.WeekPlan{}, r.mapper.MapError(err)
		}
		if day.Date, err = parseDate(date); err != nil {
			return persistence.WeekPlan{}, err
		}
		plan.Days = append(plan.Days, day)
	}
	if err := rows.Err(); err != nil {
		return persistence.WeekPlan{}, r.mapper.MapError(err)
	}
	return plan, nil
}

// SaveWeekPlan upserts the plan keyed by its week start and replaces its days.
// The stored plan keeps its original ID and creation time.
func (r *GovernanceRepository) SaveWeekPlan(ctx context.Context, plan persistence.WeekPlan) error {
	if plan.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO week_plans (id, week_start, week_end, maintenance_rooms, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (week_start) DO UPDATE SET
				week_end = excluded.week_end,
				maintenance_rooms = excluded.maintenance_rooms,
				updated_at = excluded.updated_at`,
			plan.ID,
			formatDate(plan.WeekStart),
			formatDate(plan.WeekEnd),
			plan.MaintenanceRooms,
			formatTimestamp(plan.CreatedAt),
			formatTimestamp(plan.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		var planID string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM week_plans WHERE week_start = ?`, formatDate(plan.WeekStart)).Scan(&planID); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM week_plan_days WHERE plan_id = ?`, planID); err != nil {
			return r.mapper.MapError(err)
		}

		for _, day := range plan.Days {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO week_plan_days (plan_id, `+dayColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				planID,
				formatDate(day.Date),
				day.DayType,
				day.VacantDirty,
				day.Stay,
				day.OccupancyPercent,
				day.TotalMinutes,
				day.AdjustedMinutes,
				day.RequiredHours,
				day.RequiredHoursWithEfficiency,
				day.RequiredStaffCount,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}
