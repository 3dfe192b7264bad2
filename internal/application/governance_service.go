package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/governance"
	"github.com/example/facility-planner/internal/persistence"
)

// GovernanceService turns weekly occupancy plans into staffing demand and
// shift schedules.
type GovernanceService struct {
	governance  persistence.GovernanceRepository
	schedules   persistence.ScheduleRepository
	staff       persistence.StaffRepository
	location    *time.Location
	shiftStart  string
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// GovernanceOptions carries the process settings the service needs.
type GovernanceOptions struct {
	Location   *time.Location
	ShiftStart string
}

// NewGovernanceServiceWithLogger constructs a governance service.
func NewGovernanceServiceWithLogger(
	params persistence.GovernanceRepository,
	schedules persistence.ScheduleRepository,
	staff persistence.StaffRepository,
	opts GovernanceOptions,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *GovernanceService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ShiftStart == "" {
		opts.ShiftStart = governance.DefaultShiftStart
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &GovernanceService{
		governance:  params,
		schedules:   schedules,
		staff:       staff,
		location:    opts.Location,
		shiftStart:  opts.ShiftStart,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *GovernanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "GovernanceService", operation, attrs...)
}

// GetParameters returns the stored parameters, or the default snapshot when
// none were ever saved.
func (s *GovernanceService) GetParameters(ctx context.Context) (governance.Parameters, error) {
	stored, err := s.governance.GetParameters(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return governance.DefaultParameters(), nil
		}
		return governance.Parameters{}, err
	}
	return parametersFromRecord(stored), nil
}

// SaveParameters validates and stores params.
func (s *GovernanceService) SaveParameters(ctx context.Context, params governance.Parameters) (saved governance.Parameters, err error) {
	logger := s.loggerWith(ctx, "SaveParameters")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save parameters", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "parameters saved")
	}()

	if problems := params.Problems(); len(problems) > 0 {
		err = &ValidationError{FieldErrors: problems}
		return
	}
	if err = s.governance.SaveParameters(ctx, parametersToRecord(params, s.now())); err != nil {
		return
	}
	saved = params
	return
}

// ResetParameters stores the default snapshot.
func (s *GovernanceService) ResetParameters(ctx context.Context) (governance.Parameters, error) {
	return s.SaveParameters(ctx, governance.DefaultParameters())
}

// SaveWeekPlan clamps the inputs, recalculates demand and stores the plan.
func (s *GovernanceService) SaveWeekPlan(ctx context.Context, input WeekPlanInput) (plan WeekPlan, err error) {
	logger := s.loggerWith(ctx, "SaveWeekPlan", "week_start", input.WeekStart.Format(time.DateOnly))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save week plan", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("plan_id", plan.ID).InfoContext(ctx, "week plan saved")
	}()

	weekStart := localDate(input.WeekStart, time.UTC)
	inputs, vErr := validateWeekPlanInput(weekStart, input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	maintenance := input.MaintenanceRooms
	if maintenance < 0 {
		maintenance = 0
	}

	var params governance.Parameters
	params, err = s.GetParameters(ctx)
	if err != nil {
		return
	}

	var demand []governance.DailyDemand
	demand, err = governance.CalculateWeeklyDemand(inputs, maintenance, params)
	if err != nil {
		err = mapGovernanceError(err)
		return
	}

	now := s.now()
	record := persistence.WeekPlan{
		ID:               s.idGenerator(),
		WeekStart:        weekStart,
		WeekEnd:          weekStart.AddDate(0, 0, governance.DaysPerWeek-1),
		MaintenanceRooms: maintenance,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for i, d := range demand {
		record.Days = append(record.Days, persistence.DayPlan{
			Date:                        d.Date,
			DayType:                     string(d.DayType),
			VacantDirty:                 inputs[i].VacantDirty,
			Stay:                        inputs[i].Stay,
			OccupancyPercent:            d.OccupancyPercent,
			TotalMinutes:                d.TotalMinutes,
			AdjustedMinutes:             d.AdjustedMinutes,
			RequiredHours:               d.RequiredHours,
			RequiredHoursWithEfficiency: d.RequiredHoursWithEfficiency,
			RequiredStaffCount:          d.RequiredStaffCount,
		})
	}
	if err = s.governance.SaveWeekPlan(ctx, record); err != nil {
		err = mapGovernanceRepoError(err)
		return
	}

	var stored persistence.WeekPlan
	stored, err = s.governance.GetWeekPlan(ctx, weekStart)
	if err != nil {
		err = mapGovernanceRepoError(err)
		return
	}
	plan = weekPlanFromRecord(stored)
	return
}

// GetWeekPlan returns the stored plan of the week starting on weekStart.
func (s *GovernanceService) GetWeekPlan(ctx context.Context, weekStart time.Time) (WeekPlan, error) {
	if vErr := validateWeekStart(weekStart); vErr.HasErrors() {
		return WeekPlan{}, vErr
	}
	stored, err := s.governance.GetWeekPlan(ctx, weekStart)
	if err != nil {
		return WeekPlan{}, mapGovernanceRepoError(err)
	}
	return weekPlanFromRecord(stored), nil
}

// SuggestSchedule runs the allocator over the week's stored demand and the
// active staff of params.Sector and stores the draft as the week's schedule.
// The sector is required.
func (s *GovernanceService) SuggestSchedule(ctx context.Context, params SuggestParams) (schedule Schedule, err error) {
	logger := s.loggerWith(ctx, "SuggestSchedule",
		"week_start", params.WeekStart.Format(time.DateOnly),
		"sector", params.Sector,
		"overwrite", params.Overwrite,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to suggest schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule suggested",
			"schedule_id", schedule.ID, "shifts", len(schedule.Shifts), "gap_days", len(schedule.Gaps))
	}()

	vErr := validateWeekStart(params.WeekStart)
	if strings.TrimSpace(params.Sector) == "" {
		vErr.add("sector", "sector is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var stored persistence.WeekPlan
	stored, err = s.governance.GetWeekPlan(ctx, params.WeekStart)
	if err != nil {
		err = mapGovernanceRepoError(err)
		return
	}

	_, getErr := s.schedules.GetScheduleByWeek(ctx, params.WeekStart)
	switch {
	case getErr == nil && !params.Overwrite:
		err = fmt.Errorf("%w: week already has a schedule", ErrConflict)
		return
	case getErr != nil && !errors.Is(getErr, persistence.ErrNotFound):
		err = getErr
		return
	}

	var gp governance.Parameters
	gp, err = s.GetParameters(ctx)
	if err != nil {
		return
	}

	var roster []persistence.StaffMember
	roster, err = s.staff.ListStaff(ctx)
	if err != nil {
		return
	}
	eligible := eligibleRoster(sortRoster(roster), params.Sector)

	plan := weekPlanFromRecord(stored)
	demand := make([]governance.DailyDemand, 0, len(plan.Days))
	for _, d := range plan.Days {
		demand = append(demand, d.Demand)
	}

	var suggestion governance.Suggestion
	suggestion, err = governance.Suggest(demand, toGovernanceStaff(eligible), gp, governance.SuggestOptions{ShiftStart: s.shiftStart})
	if err != nil {
		err = mapGovernanceError(err)
		return
	}

	now := s.now()
	header := persistence.WeeklySchedule{
		ID:        s.idGenerator(),
		WeekStart: localDate(params.WeekStart, time.UTC),
		Sector:    params.Sector,
		CreatedAt: now,
		UpdatedAt: now,
	}
	shifts := make([]persistence.ShiftAssignment, 0, len(suggestion.Assignments))
	for _, a := range suggestion.Assignments {
		shifts = append(shifts, persistence.ShiftAssignment{
			ID:           s.idGenerator(),
			ScheduleID:   header.ID,
			StaffID:      a.StaffID,
			Date:         a.Date,
			StartTime:    a.StartTime,
			EndTime:      a.EndTime,
			BreakMinutes: a.BreakMinutes,
			NetHours:     a.NetHours,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err = s.schedules.ReplaceSchedule(ctx, header, shifts); err != nil {
		err = mapGovernanceRepoError(err)
		return
	}

	schedule = s.buildSchedule(header, shifts, gp)
	schedule.Gaps = suggestion.Gaps
	return
}

// SetShiftTime applies a manual edit to one staff member's shift. Clearing
// both times deletes the shift together with its convocation.
func (s *GovernanceService) SetShiftTime(ctx context.Context, edit ShiftEdit) (schedule Schedule, err error) {
	logger := s.loggerWith(ctx, "SetShiftTime",
		"week_start", edit.WeekStart.Format(time.DateOnly),
		"staff_id", edit.StaffID,
		"date", edit.Date.Format(time.DateOnly),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set shift time", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "shift time set", "warnings", len(schedule.Warnings))
	}()

	vErr := validateWeekStart(edit.WeekStart)
	if edit.StaffID == "" {
		vErr.add("staff_id", "staff is required")
	}
	if edit.Date.IsZero() {
		vErr.add("date", "date is required")
	} else if !edit.WeekStart.IsZero() && !inWeek(edit.Date, edit.WeekStart) {
		vErr.add("date", "date must fall within the week")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if _, getErr := s.staff.GetStaff(ctx, edit.StaffID); getErr != nil {
		if errors.Is(getErr, persistence.ErrNotFound) {
			err = fieldError("staff_id", "staff member does not exist")
			return
		}
		err = getErr
		return
	}

	now := s.now()
	var header persistence.WeeklySchedule
	header, err = s.schedules.GetScheduleByWeek(ctx, edit.WeekStart)
	if errors.Is(err, persistence.ErrNotFound) {
		header = persistence.WeeklySchedule{ID: s.idGenerator(), WeekStart: localDate(edit.WeekStart, time.UTC), CreatedAt: now, UpdatedAt: now}
		err = s.schedules.CreateSchedule(ctx, header)
	}
	if err != nil {
		err = mapGovernanceRepoError(err)
		return
	}

	var shifts []persistence.ShiftAssignment
	shifts, err = s.schedules.ListShifts(ctx, header.ID)
	if err != nil {
		return
	}

	current := persistence.ShiftAssignment{
		ID:         s.idGenerator(),
		ScheduleID: header.ID,
		StaffID:    edit.StaffID,
		Date:       localDate(edit.Date, time.UTC),
		CreatedAt:  now,
	}
	found := false
	for _, shift := range shifts {
		if shift.StaffID == edit.StaffID && sameDay(shift.Date, edit.Date) {
			current = shift
			found = true
			break
		}
	}

	draft := governance.ShiftAssignment{StaffID: current.StaffID, Date: current.Date}
	if setErr := draft.SetTimes(edit.StartTime, edit.EndTime); setErr != nil {
		err = fieldError("times", setErr.Error())
		return
	}

	if found && !draft.Cleared() && (draft.StartTime != current.StartTime || draft.EndTime != current.EndTime) {
		var convoked bool
		convoked, err = s.schedules.ShiftConvoked(ctx, current.ID)
		if err != nil {
			err = mapGovernanceRepoError(err)
			return
		}
		if convoked {
			err = fmt.Errorf("%w: shift already has a convocation; clear it to reschedule", ErrConflict)
			return
		}
	}

	switch {
	case draft.Cleared() && found:
		err = s.schedules.DeleteShift(ctx, current.ID)
	case draft.Cleared():
	default:
		current.StartTime = draft.StartTime
		current.EndTime = draft.EndTime
		current.BreakMinutes = draft.BreakMinutes
		current.NetHours = draft.NetHours
		current.UpdatedAt = now
		err = s.schedules.UpsertShift(ctx, current)
	}
	if err != nil {
		err = mapGovernanceRepoError(err)
		return
	}

	schedule, err = s.loadSchedule(ctx, header)
	if err != nil {
		return
	}
	schedule.Warnings = warningsFor(schedule.Warnings, edit.StaffID)
	return
}

// GetSchedule returns the week's shifts with per-staff totals and rest warnings.
func (s *GovernanceService) GetSchedule(ctx context.Context, weekStart time.Time) (Schedule, error) {
	if vErr := validateWeekStart(weekStart); vErr.HasErrors() {
		return Schedule{}, vErr
	}
	header, err := s.schedules.GetScheduleByWeek(ctx, weekStart)
	if err != nil {
		return Schedule{}, mapGovernanceRepoError(err)
	}
	return s.loadSchedule(ctx, header)
}

func (s *GovernanceService) loadSchedule(ctx context.Context, header persistence.WeeklySchedule) (Schedule, error) {
	shifts, err := s.schedules.ListShifts(ctx, header.ID)
	if err != nil {
		return Schedule{}, mapGovernanceRepoError(err)
	}
	params, err := s.GetParameters(ctx)
	if err != nil {
		return Schedule{}, err
	}
	return s.buildSchedule(header, shifts, params), nil
}

func (s *GovernanceService) buildSchedule(header persistence.WeeklySchedule, shifts []persistence.ShiftAssignment, params governance.Parameters) Schedule {
	sorted := make([]persistence.ShiftAssignment, len(shifts))
	copy(sorted, shifts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sameDay(sorted[i].Date, sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].StaffID < sorted[j].StaffID
	})

	totals := make(map[string]float64)
	engineShifts := make([]governance.ShiftAssignment, 0, len(sorted))
	for _, shift := range sorted {
		gs := governance.ShiftAssignment{
			StaffID:      shift.StaffID,
			Date:         shift.Date,
			StartTime:    shift.StartTime,
			EndTime:      shift.EndTime,
			BreakMinutes: shift.BreakMinutes,
			NetHours:     shift.NetHours,
		}
		if gs.Complete() {
			totals[shift.StaffID] = roundHours(totals[shift.StaffID] + shift.NetHours)
		}
		engineShifts = append(engineShifts, gs)
	}

	return Schedule{
		ID:        header.ID,
		WeekStart: header.WeekStart,
		Sector:    header.Sector,
		Shifts:    sorted,
		Totals:    totals,
		Warnings:  governance.RestWarnings(engineShifts, params.MandatoryRestHours, s.location),
	}
}

func warningsFor(warnings []governance.RestWarning, staffID string) []governance.RestWarning {
	var out []governance.RestWarning
	for _, w := range warnings {
		if w.StaffID == staffID {
			out = append(out, w)
		}
	}
	return out
}

func validateWeekPlanInput(weekStart time.Time, input WeekPlanInput) ([]governance.DailyInput, *ValidationError) {
	vErr := validateWeekStart(input.WeekStart)
	if len(input.Days) != governance.DaysPerWeek {
		vErr.add("days", fmt.Sprintf("a week plan needs exactly %d days", governance.DaysPerWeek))
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	days := make([]DayInput, len(input.Days))
	copy(days, input.Days)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	inputs := make([]governance.DailyInput, 0, len(days))
	for i, d := range days {
		expected := weekStart.AddDate(0, 0, i)
		if !sameDay(d.Date, expected) {
			vErr.add(fmt.Sprintf("days[%d].date", i), fmt.Sprintf("expected %s", expected.Format(time.DateOnly)))
			continue
		}
		dayType, ok := governance.ParseDayType(d.DayType)
		if !ok {
			vErr.add(fmt.Sprintf("days[%d].day_type", i), "day type must be normal, holiday or holiday_eve")
			continue
		}
		in := governance.DailyInput{Date: expected, VacantDirty: d.VacantDirty, Stay: d.Stay, DayType: dayType}
		inputs = append(inputs, in.Clamp())
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return inputs, nil
}

func weekPlanFromRecord(record persistence.WeekPlan) WeekPlan {
	plan := WeekPlan{
		ID:               record.ID,
		WeekStart:        record.WeekStart,
		WeekEnd:          record.WeekEnd,
		MaintenanceRooms: record.MaintenanceRooms,
		UpdatedAt:        record.UpdatedAt,
	}
	for _, d := range record.Days {
		dayType, ok := governance.ParseDayType(d.DayType)
		if !ok {
			dayType = governance.DayTypeNormal
		}
		plan.Days = append(plan.Days, DayPlan{
			Input: governance.DailyInput{Date: d.Date, VacantDirty: d.VacantDirty, Stay: d.Stay, DayType: dayType},
			Demand: governance.DailyDemand{
				Date:                        d.Date,
				DayType:                     dayType,
				OccupiedRooms:               d.VacantDirty + d.Stay,
				OccupancyPercent:            d.OccupancyPercent,
				TotalMinutes:                d.TotalMinutes,
				AdjustedMinutes:             d.AdjustedMinutes,
				RequiredHours:               d.RequiredHours,
				RequiredHoursWithEfficiency: d.RequiredHoursWithEfficiency,
				RequiredStaffCount:          d.RequiredStaffCount,
			},
		})
	}
	return plan
}

func parametersFromRecord(r persistence.GovernanceParameters) governance.Parameters {
	return governance.Parameters{
		SpeedVacantDirtyMinutes:     r.SpeedVacantDirtyMinutes,
		SpeedStayMinutes:            r.SpeedStayMinutes,
		HolidayDemandMultiplier:     r.HolidayDemandMultiplier,
		HolidayEveDemandMultiplier:  r.HolidayEveDemandMultiplier,
		EfficiencyTargetPercent:     r.EfficiencyTargetPercent,
		StandardShiftHours:          r.StandardShiftHours,
		TotalRoomCapacity:           r.TotalRoomCapacity,
		IntermittentMinWeeklyHours:  r.IntermittentMinWeeklyHours,
		IntermittentMaxWeeklyHours:  r.IntermittentMaxWeeklyHours,
		MaxConsecutiveDays:          r.MaxConsecutiveDays,
		MandatoryRestHours:          r.MandatoryRestHours,
		PreferEffectiveOnHolidays:   r.PreferEffectiveOnHolidays,
		AllowIntermittentOnHolidays: r.AllowIntermittentOnHolidays,
	}
}

func parametersToRecord(p governance.Parameters, updatedAt time.Time) persistence.GovernanceParameters {
	return persistence.GovernanceParameters{
		SpeedVacantDirtyMinutes:     p.SpeedVacantDirtyMinutes,
		SpeedStayMinutes:            p.SpeedStayMinutes,
		HolidayDemandMultiplier:     p.HolidayDemandMultiplier,
		HolidayEveDemandMultiplier:  p.HolidayEveDemandMultiplier,
		EfficiencyTargetPercent:     p.EfficiencyTargetPercent,
		StandardShiftHours:          p.StandardShiftHours,
		TotalRoomCapacity:           p.TotalRoomCapacity,
		IntermittentMinWeeklyHours:  p.IntermittentMinWeeklyHours,
		IntermittentMaxWeeklyHours:  p.IntermittentMaxWeeklyHours,
		MaxConsecutiveDays:          p.MaxConsecutiveDays,
		MandatoryRestHours:          p.MandatoryRestHours,
		PreferEffectiveOnHolidays:   p.PreferEffectiveOnHolidays,
		AllowIntermittentOnHolidays: p.AllowIntermittentOnHolidays,
		UpdatedAt:                   updatedAt,
	}
}

func roundHours(h float64) float64 {
	return float64(int64(h*100+0.5)) / 100
}

func mapGovernanceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, governance.ErrInvalidConfiguration):
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	case errors.Is(err, governance.ErrInvalidWeek), errors.Is(err, governance.ErrMismatchedPlan):
		return fieldError("days", err.Error())
	}
	return err
}

func mapGovernanceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) || errors.Is(err, persistence.ErrConstraintViolation) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
