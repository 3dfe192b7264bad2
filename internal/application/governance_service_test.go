package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/facility-planner/internal/governance"
	"github.com/example/facility-planner/internal/persistence"
)

var planWeek = date(2024, time.June, 10)

func newGovernanceServiceForTest(store *memoryStore) *GovernanceService {
	return NewGovernanceServiceWithLogger(store, store, store, GovernanceOptions{Location: time.UTC},
		sequentialIDs("gov"), fixedNow(time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)), discardLogger())
}

func weekInput() WeekPlanInput {
	in := WeekPlanInput{WeekStart: planWeek, MaintenanceRooms: 20}
	// Reverse order: the service sorts by date.
	for i := governance.DaysPerWeek - 1; i >= 0; i-- {
		in.Days = append(in.Days, DayInput{Date: planWeek.AddDate(0, 0, i), VacantDirty: 10, Stay: 15})
	}
	in.Days[governance.DaysPerWeek-1].Stay = -5
	return in
}

func TestGovernanceService_Parameters(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := newGovernanceServiceForTest(store)
	ctx := context.Background()

	params, err := svc.GetParameters(ctx)
	if err != nil {
		t.Fatalf("GetParameters returned error: %v", err)
	}
	if params != governance.DefaultParameters() {
		t.Fatalf("expected defaults, got %+v", params)
	}

	bad := params
	bad.EfficiencyTargetPercent = 0
	_, err = svc.SaveParameters(ctx, bad)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["efficiency_target"]; !ok {
		t.Fatalf("expected efficiency_target error, got %v", vErr.FieldErrors)
	}

	custom := params
	custom.StandardShiftHours = 6
	if _, err := svc.SaveParameters(ctx, custom); err != nil {
		t.Fatalf("SaveParameters returned error: %v", err)
	}
	if got, _ := svc.GetParameters(ctx); got.StandardShiftHours != 6 {
		t.Fatalf("expected stored parameters, got %+v", got)
	}

	reset, err := svc.ResetParameters(ctx)
	if err != nil || reset != governance.DefaultParameters() {
		t.Fatalf("ResetParameters = %+v, %v", reset, err)
	}
}

func TestGovernanceService_SaveWeekPlan(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := newGovernanceServiceForTest(store)
	ctx := context.Background()

	plan, err := svc.SaveWeekPlan(ctx, weekInput())
	if err != nil {
		t.Fatalf("SaveWeekPlan returned error: %v", err)
	}
	if len(plan.Days) != governance.DaysPerWeek || !plan.WeekEnd.Equal(date(2024, time.June, 16)) {
		t.Fatalf("unexpected plan %+v", plan)
	}

	monday := plan.Days[0]
	if monday.Input.Stay != 0 || monday.Demand.RequiredStaffCount != 0.8 || monday.Demand.RequiredHeadcount() != 1 {
		t.Fatalf("expected clamped Monday, got %+v", monday)
	}
	tuesday := plan.Days[1].Demand
	if tuesday.TotalMinutes != 600 || tuesday.RequiredStaffCount != 1.5 || tuesday.OccupancyPercent != 31.25 {
		t.Fatalf("unexpected Tuesday demand %+v", tuesday)
	}

	again, err := svc.SaveWeekPlan(ctx, weekInput())
	if err != nil {
		t.Fatalf("SaveWeekPlan returned error: %v", err)
	}
	if again.ID != plan.ID {
		t.Fatalf("saving the same week must keep the plan id, got %s and %s", plan.ID, again.ID)
	}

	tuesdayStart := weekInput()
	tuesdayStart.WeekStart = planWeek.AddDate(0, 0, 1)
	_, err = svc.SaveWeekPlan(ctx, tuesdayStart)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	short := weekInput()
	short.Days = short.Days[:6]
	if _, err := svc.SaveWeekPlan(ctx, short); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for six days, got %v", err)
	}

	badType := weekInput()
	badType.Days[0].DayType = "carnival"
	if _, err := svc.SaveWeekPlan(ctx, badType); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for an unknown day type, got %v", err)
	}

	if _, err := svc.GetWeekPlan(ctx, planWeek.AddDate(0, 0, 7)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGovernanceService_SuggestSchedule(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	for _, m := range []persistence.StaffMember{
		{ID: "s-1", Name: "Ana", Sector: "Housekeeping", ContractType: "permanent", IsActive: true},
		{ID: "s-2", Name: "Bea", Sector: "Housekeeping", ContractType: "permanent", IsActive: true},
		{ID: "s-3", Name: "Caio", Sector: "Housekeeping", ContractType: "permanent", IsActive: true},
		{ID: "s-4", Name: "Duda", Sector: "Laundry", ContractType: "permanent", IsActive: true},
	} {
		store.staff[m.ID] = m
	}
	svc := newGovernanceServiceForTest(store)
	ctx := context.Background()

	if _, err := svc.SuggestSchedule(ctx, SuggestParams{WeekStart: planWeek, Sector: "Housekeeping"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound without a plan, got %v", err)
	}
	if _, err := svc.SaveWeekPlan(ctx, weekInput()); err != nil {
		t.Fatalf("SaveWeekPlan returned error: %v", err)
	}

	_, err := svc.SuggestSchedule(ctx, SuggestParams{WeekStart: planWeek, Sector: "  "})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["sector"] == "" {
		t.Fatalf("expected sector validation error, got %v", err)
	}

	schedule, err := svc.SuggestSchedule(ctx, SuggestParams{WeekStart: planWeek, Sector: "housekeeping"})
	if err != nil {
		t.Fatalf("SuggestSchedule returned error: %v", err)
	}
	if len(schedule.Shifts) != 13 || len(schedule.Gaps) != 0 {
		t.Fatalf("expected 13 shifts without gaps, got %d / %+v", len(schedule.Shifts), schedule.Gaps)
	}
	var total float64
	for staffID, hours := range schedule.Totals {
		if staffID == "s-4" {
			t.Fatalf("staff outside the sector must not be scheduled")
		}
		total += hours
	}
	if total != 91 {
		t.Fatalf("expected 91 net hours, got %v", total)
	}

	if _, err := svc.SuggestSchedule(ctx, SuggestParams{WeekStart: planWeek, Sector: "Housekeeping"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict without overwrite, got %v", err)
	}

	replaced, err := svc.SuggestSchedule(ctx, SuggestParams{WeekStart: planWeek, Sector: "Laundry", Overwrite: true})
	if err != nil {
		t.Fatalf("SuggestSchedule returned error: %v", err)
	}
	if replaced.ID == schedule.ID || len(replaced.Gaps) == 0 {
		t.Fatalf("expected a new schedule with gaps for a single-member sector, got %+v", replaced)
	}

	stored, err := svc.GetSchedule(ctx, planWeek)
	if err != nil {
		t.Fatalf("GetSchedule returned error: %v", err)
	}
	if stored.ID != replaced.ID || len(stored.Shifts) != len(replaced.Shifts) {
		t.Fatalf("expected the replacement to be stored, got %+v", stored)
	}
}

func TestGovernanceService_SetShiftTime(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.staff["s-1"] = persistence.StaffMember{ID: "s-1", Name: "Ana", ContractType: "permanent", IsActive: true}
	svc := newGovernanceServiceForTest(store)
	ctx := context.Background()

	if _, err := svc.GetSchedule(ctx, planWeek); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	schedule, err := svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: planWeek, StartTime: "14:00", EndTime: "22:00"})
	if err != nil {
		t.Fatalf("SetShiftTime returned error: %v", err)
	}
	if len(schedule.Shifts) != 1 || len(schedule.Warnings) != 0 || schedule.Totals["s-1"] != 7 {
		t.Fatalf("unexpected schedule %+v", schedule)
	}

	tuesday := planWeek.AddDate(0, 0, 1)
	schedule, err = svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: tuesday, StartTime: "06:00", EndTime: "14:00"})
	if err != nil {
		t.Fatalf("SetShiftTime returned error: %v", err)
	}
	if len(schedule.Warnings) != 1 || schedule.Warnings[0].RestHours != 8 {
		t.Fatalf("expected one short-rest warning, got %+v", schedule.Warnings)
	}
	if schedule.Totals["s-1"] != 14 {
		t.Fatalf("expected 14 net hours, got %v", schedule.Totals["s-1"])
	}

	schedule, err = svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: tuesday, StartTime: "07:00"})
	if err != nil {
		t.Fatalf("SetShiftTime returned error: %v", err)
	}
	if len(schedule.Shifts) != 2 || schedule.Totals["s-1"] != 7 || len(schedule.Warnings) != 0 {
		t.Fatalf("half-filled shifts must not count, got %+v", schedule)
	}

	schedule, err = svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: tuesday})
	if err != nil {
		t.Fatalf("SetShiftTime returned error: %v", err)
	}
	if len(schedule.Shifts) != 1 {
		t.Fatalf("clearing both times must delete the shift, got %+v", schedule.Shifts)
	}

	var vErr *ValidationError
	cases := []ShiftEdit{
		{WeekStart: planWeek, StaffID: "s-1", Date: planWeek, StartTime: "08:00", EndTime: "08:00"},
		{WeekStart: planWeek, StaffID: "s-1", Date: planWeek.AddDate(0, 0, 7), StartTime: "08:00", EndTime: "16:00"},
		{WeekStart: planWeek, StaffID: "ghost", Date: planWeek, StartTime: "08:00", EndTime: "16:00"},
	}
	for i, edit := range cases {
		if _, err := svc.SetShiftTime(ctx, edit); !errors.As(err, &vErr) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestGovernanceService_SetShiftTimeOnConvokedShift(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.staff["s-1"] = persistence.StaffMember{ID: "s-1", Name: "Ana", ContractType: "permanent", IsActive: true}
	svc := newGovernanceServiceForTest(store)
	ctx := context.Background()

	schedule, err := svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: planWeek, StartTime: "08:00", EndTime: "16:00"})
	if err != nil {
		t.Fatalf("SetShiftTime returned error: %v", err)
	}
	shift := schedule.Shifts[0]
	store.convocations["c-1"] = persistence.Convocation{
		ID:             "c-1",
		ScheduleID:     shift.ScheduleID,
		ShiftID:        shift.ID,
		StaffID:        "s-1",
		ShiftDate:      shift.Date,
		ShiftStartTime: "08:00",
		ShiftEndTime:   "16:00",
		Status:         "pending",
	}

	if _, err := svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: planWeek, StartTime: "10:00", EndTime: "18:00"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when moving a convoked shift, got %v", err)
	}
	if _, err := svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: planWeek, EndTime: "16:00"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when blanking the start of a convoked shift, got %v", err)
	}

	schedule, err = svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: planWeek, StartTime: "08:00", EndTime: "16:00"})
	if err != nil {
		t.Fatalf("re-saving the same times must succeed, got %v", err)
	}
	if got := schedule.Shifts[0]; got.StartTime != "08:00" || got.EndTime != "16:00" {
		t.Fatalf("shift must be unchanged, got %+v", got)
	}

	schedule, err = svc.SetShiftTime(ctx, ShiftEdit{WeekStart: planWeek, StaffID: "s-1", Date: planWeek})
	if err != nil {
		t.Fatalf("clearing a convoked shift must succeed, got %v", err)
	}
	if len(schedule.Shifts) != 0 || len(store.convocations) != 0 {
		t.Fatalf("expected the shift and its convocation to be gone, got %+v / %v", schedule.Shifts, store.convocations)
	}
}
