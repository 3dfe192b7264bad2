package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/governance"
	"github.com/example/facility-planner/internal/persistence"
)

type governanceService interface {
	GetParameters(ctx context.Context) (governance.Parameters, error)
	SaveParameters(ctx context.Context, params governance.Parameters) (governance.Parameters, error)
	ResetParameters(ctx context.Context) (governance.Parameters, error)
	SaveWeekPlan(ctx context.Context, input application.WeekPlanInput) (application.WeekPlan, error)
	GetWeekPlan(ctx context.Context, weekStart time.Time) (application.WeekPlan, error)
	SuggestSchedule(ctx context.Context, params application.SuggestParams) (application.Schedule, error)
	SetShiftTime(ctx context.Context, edit application.ShiftEdit) (application.Schedule, error)
	GetSchedule(ctx context.Context, weekStart time.Time) (application.Schedule, error)
}

// GovernanceHandler serves parameters, week plans and shift schedules.
type GovernanceHandler struct {
	handlerBase
	service governanceService
}

func NewGovernanceHandler(service governanceService, logger *slog.Logger) *GovernanceHandler {
	return &GovernanceHandler{handlerBase: newHandlerBase("GovernanceHandler", logger), service: service}
}

func (h *GovernanceHandler) GetParameters(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()

	params, err := h.service.GetParameters(ctx)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "GetParameters"), "parameter lookup failed", err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toParametersDTO(params))
}

func (h *GovernanceHandler) SaveParameters(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "SaveParameters")

	var req parametersRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	params, err := h.service.SaveParameters(ctx, req.toParameters())
	if err != nil {
		h.fail(ctx, w, logger, "parameter save failed", err)
		return
	}

	logger.InfoContext(ctx, "parameters saved")
	h.responder.writeJSON(ctx, w, http.StatusOK, toParametersDTO(params))
}

func (h *GovernanceHandler) ResetParameters(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "ResetParameters")

	params, err := h.service.ResetParameters(ctx)
	if err != nil {
		h.fail(ctx, w, logger, "parameter reset failed", err)
		return
	}

	logger.InfoContext(ctx, "parameters reset")
	h.responder.writeJSON(ctx, w, http.StatusOK, toParametersDTO(params))
}

func (h *GovernanceHandler) SaveWeekPlan(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "SaveWeekPlan")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "SaveWeekPlan", "week_start", formatDate(week))

	var req weekPlanRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	plan, err := h.service.SaveWeekPlan(ctx, req.toInput(week))
	if err != nil {
		h.fail(ctx, w, logger, "week plan save failed", err)
		return
	}

	logger.With("plan_id", plan.ID).InfoContext(ctx, "week plan saved")
	h.responder.writeJSON(ctx, w, http.StatusOK, toWeekPlanDTO(plan))
}

func (h *GovernanceHandler) GetWeekPlan(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "GetWeekPlan")
	if !ok {
		return
	}
	ctx := r.Context()

	plan, err := h.service.GetWeekPlan(ctx, week)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "GetWeekPlan", "week_start", formatDate(week)), "week plan lookup failed", err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toWeekPlanDTO(plan))
}

// SuggestSchedule runs the allocator for the week. The body is optional.
func (h *GovernanceHandler) SuggestSchedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "SuggestSchedule")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "SuggestSchedule", "week_start", formatDate(week))

	var req suggestRequest
	if r.ContentLength != 0 && !h.decode(w, r, logger, &req) {
		return
	}

	schedule, err := h.service.SuggestSchedule(ctx, application.SuggestParams{
		WeekStart: week,
		Sector:    strings.TrimSpace(req.Sector),
		Overwrite: req.Overwrite,
	})
	if err != nil {
		h.fail(ctx, w, logger, "schedule suggestion failed", err)
		return
	}

	logger.With("schedule_id", schedule.ID, "shifts", len(schedule.Shifts), "gaps", len(schedule.Gaps)).InfoContext(ctx, "schedule suggested")
	h.responder.writeJSON(ctx, w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *GovernanceHandler) SetShiftTime(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "SetShiftTime")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "SetShiftTime", "week_start", formatDate(week))

	var req shiftEditRequest
	if !h.decode(w, r, logger, &req) {
		return
	}
	date, _ := time.Parse(time.DateOnly, req.Date)

	schedule, err := h.service.SetShiftTime(ctx, application.ShiftEdit{
		WeekStart: week,
		StaffID:   strings.TrimSpace(req.StaffID),
		Date:      date,
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   strings.TrimSpace(req.EndTime),
	})
	if err != nil {
		h.fail(ctx, w, logger, "shift edit failed", err)
		return
	}

	logger.With("staff_id", req.StaffID, "date", req.Date).InfoContext(ctx, "shift edited")
	h.responder.writeJSON(ctx, w, http.StatusOK, toScheduleDTO(schedule))
}

func (h *GovernanceHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "GetSchedule")
	if !ok {
		return
	}
	ctx := r.Context()

	schedule, err := h.service.GetSchedule(ctx, week)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "GetSchedule", "week_start", formatDate(week)), "schedule lookup failed", err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toScheduleDTO(schedule))
}

// parametersRequest requires every field so a partial body cannot zero the rest.
type parametersRequest struct {
	SpeedVacantDirty            *float64 `json:"speed_vacant_dirty" validate:"required"`
	SpeedStay                   *float64 `json:"speed_stay" validate:"required"`
	HolidayMultiplier           *float64 `json:"holiday_multiplier" validate:"required"`
	HolidayEveMultiplier        *float64 `json:"holiday_eve_multiplier" validate:"required"`
	EfficiencyTarget            *float64 `json:"efficiency_target" validate:"required"`
	StandardShiftHours          *float64 `json:"standard_shift_hours" validate:"required"`
	TotalRoomCapacity           *int     `json:"total_room_capacity" validate:"required"`
	IntermittentMinWeeklyHours  *float64 `json:"intermittent_min_weekly_hours" validate:"required"`
	IntermittentMaxWeeklyHours  *float64 `json:"intermittent_max_weekly_hours" validate:"required"`
	MaxConsecutiveDays          *int     `json:"max_consecutive_days" validate:"required"`
	MandatoryRestHours          *float64 `json:"mandatory_rest_hours" validate:"required"`
	PreferEffectiveOnHolidays   *bool    `json:"prefer_effective_on_holidays" validate:"required"`
	AllowIntermittentOnHolidays *bool    `json:"allow_intermittent_on_holidays" validate:"required"`
}

func (r parametersRequest) toParameters() governance.Parameters {
	return governance.Parameters{
		SpeedVacantDirtyMinutes:     *r.SpeedVacantDirty,
		SpeedStayMinutes:            *r.SpeedStay,
		HolidayDemandMultiplier:     *r.HolidayMultiplier,
		HolidayEveDemandMultiplier:  *r.HolidayEveMultiplier,
		EfficiencyTargetPercent:     *r.EfficiencyTarget,
		StandardShiftHours:          *r.StandardShiftHours,
		TotalRoomCapacity:           *r.TotalRoomCapacity,
		IntermittentMinWeeklyHours:  *r.IntermittentMinWeeklyHours,
		IntermittentMaxWeeklyHours:  *r.IntermittentMaxWeeklyHours,
		MaxConsecutiveDays:          *r.MaxConsecutiveDays,
		MandatoryRestHours:          *r.MandatoryRestHours,
		PreferEffectiveOnHolidays:   *r.PreferEffectiveOnHolidays,
		AllowIntermittentOnHolidays: *r.AllowIntermittentOnHolidays,
	}
}

type parametersDTO struct {
	SpeedVacantDirty            float64 `json:"speed_vacant_dirty"`
	SpeedStay                   float64 `json:"speed_stay"`
	HolidayMultiplier           float64 `json:"holiday_multiplier"`
	HolidayEveMultiplier        float64 `json:"holiday_eve_multiplier"`
	EfficiencyTarget            float64 `json:"efficiency_target"`
	StandardShiftHours          float64 `json:"standard_shift_hours"`
	TotalRoomCapacity           int     `json:"total_room_capacity"`
	IntermittentMinWeeklyHours  float64 `json:"intermittent_min_weekly_hours"`
	IntermittentMaxWeeklyHours  float64 `json:"intermittent_max_weekly_hours"`
	MaxConsecutiveDays          int     `json:"max_consecutive_days"`
	MandatoryRestHours          float64 `json:"mandatory_rest_hours"`
	PreferEffectiveOnHolidays   bool    `json:"prefer_effective_on_holidays"`
	AllowIntermittentOnHolidays bool    `json:"allow_intermittent_on_holidays"`
}

func toParametersDTO(p governance.Parameters) parametersDTO {
	return parametersDTO{
		SpeedVacantDirty:            p.SpeedVacantDirtyMinutes,
		SpeedStay:                   p.SpeedStayMinutes,
		HolidayMultiplier:           p.HolidayDemandMultiplier,
		HolidayEveMultiplier:        p.HolidayEveDemandMultiplier,
		EfficiencyTarget:            p.EfficiencyTargetPercent,
		StandardShiftHours:          p.StandardShiftHours,
		TotalRoomCapacity:           p.TotalRoomCapacity,
		IntermittentMinWeeklyHours:  p.IntermittentMinWeeklyHours,
		IntermittentMaxWeeklyHours:  p.IntermittentMaxWeeklyHours,
		MaxConsecutiveDays:          p.MaxConsecutiveDays,
		MandatoryRestHours:          p.MandatoryRestHours,
		PreferEffectiveOnHolidays:   p.PreferEffectiveOnHolidays,
		AllowIntermittentOnHolidays: p.AllowIntermittentOnHolidays,
	}
}

// Negative counts are accepted here and clamped by the service.
type weekPlanRequest struct {
	MaintenanceRooms int              `json:"maintenance_rooms"`
	Days             []dayPlanRequest `json:"days" validate:"required,len=7,dive"`
}

type dayPlanRequest struct {
	Date        string `json:"date" validate:"required,date"`
	VacantDirty int    `json:"vacant_dirty"`
	Stay        int    `json:"stay"`
	DayType     string `json:"day_type"`
}

func (r weekPlanRequest) toInput(week time.Time) application.WeekPlanInput {
	days := make([]application.DayInput, 0, len(r.Days))
	for _, d := range r.Days {
		date, _ := time.Parse(time.DateOnly, d.Date)
		days = append(days, application.DayInput{
			Date:        date,
			VacantDirty: d.VacantDirty,
			Stay:        d.Stay,
			DayType:     strings.TrimSpace(d.DayType),
		})
	}
	return application.WeekPlanInput{WeekStart: week, MaintenanceRooms: r.MaintenanceRooms, Days: days}
}

type weekPlanDTO struct {
	ID               string       `json:"id"`
	WeekStart        string       `json:"week_start"`
	WeekEnd          string       `json:"week_end"`
	MaintenanceRooms int          `json:"maintenance_rooms"`
	Days             []dayPlanDTO `json:"days"`
	UpdatedAt        string       `json:"updated_at"`
}

type dayPlanDTO struct {
	Date                        string  `json:"date"`
	DayType                     string  `json:"day_type"`
	VacantDirty                 int     `json:"vacant_dirty"`
	Stay                        int     `json:"stay"`
	OccupiedRooms               int     `json:"occupied_rooms"`
	OccupancyPercent            float64 `json:"occupancy_percent"`
	OccupancyDisplay            float64 `json:"occupancy_display"`
	TotalMinutes                float64 `json:"total_minutes"`
	AdjustedMinutes             float64 `json:"adjusted_minutes"`
	RequiredHours               float64 `json:"required_hours"`
	RequiredHoursWithEfficiency float64 `json:"required_hours_with_efficiency"`
	RequiredStaffCount          float64 `json:"required_staff_count"`
	RequiredHeadcount           int     `json:"required_headcount"`
}

func toWeekPlanDTO(plan application.WeekPlan) weekPlanDTO {
	days := make([]dayPlanDTO, 0, len(plan.Days))
	for _, d := range plan.Days {
		days = append(days, dayPlanDTO{
			Date:                        formatDate(d.Input.Date),
			DayType:                     string(d.Demand.DayType),
			VacantDirty:                 d.Input.VacantDirty,
			Stay:                        d.Input.Stay,
			OccupiedRooms:               d.Demand.OccupiedRooms,
			OccupancyPercent:            d.Demand.OccupancyPercent,
			OccupancyDisplay:            d.Demand.OccupancyDisplay(),
			TotalMinutes:                d.Demand.TotalMinutes,
			AdjustedMinutes:             d.Demand.AdjustedMinutes,
			RequiredHours:               d.Demand.RequiredHours,
			RequiredHoursWithEfficiency: d.Demand.RequiredHoursWithEfficiency,
			RequiredStaffCount:          d.Demand.RequiredStaffCount,
			RequiredHeadcount:           d.Demand.RequiredHeadcount(),
		})
	}
	return weekPlanDTO{
		ID:               plan.ID,
		WeekStart:        formatDate(plan.WeekStart),
		WeekEnd:          formatDate(plan.WeekEnd),
		MaintenanceRooms: plan.MaintenanceRooms,
		Days:             days,
		UpdatedAt:        formatTimestamp(plan.UpdatedAt),
	}
}

type suggestRequest struct {
	Sector    string `json:"sector" validate:"max=100"`
	Overwrite bool   `json:"overwrite"`
}

// Empty start and end times clear the shift.
type shiftEditRequest struct {
	StaffID   string `json:"staff_id" validate:"required"`
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"start_time" validate:"omitempty,clock"`
	EndTime   string `json:"end_time" validate:"omitempty,clock"`
}

type scheduleDTO struct {
	ID        string             `json:"id"`
	WeekStart string             `json:"week_start"`
	Sector    string             `json:"sector"`
	Shifts    []shiftDTO         `json:"shifts"`
	Totals    map[string]float64 `json:"totals"`
	Gaps      []gapDTO           `json:"gaps"`
	Warnings  []restWarningDTO   `json:"warnings"`
}

type shiftDTO struct {
	ID           string  `json:"id"`
	StaffID      string  `json:"staff_id"`
	Date         string  `json:"date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	BreakMinutes int     `json:"break_minutes"`
	NetHours     float64 `json:"net_hours"`
}

type gapDTO struct {
	Date     string `json:"date"`
	Required int    `json:"required"`
	Assigned int    `json:"assigned"`
	Missing  int    `json:"missing"`
}

type restWarningDTO struct {
	StaffID   string  `json:"staff_id"`
	Previous  string  `json:"previous_start"`
	Next      string  `json:"next_start"`
	RestHours float64 `json:"rest_hours"`
}

func toShiftDTO(s persistence.ShiftAssignment) shiftDTO {
	return shiftDTO{
		ID:           s.ID,
		StaffID:      s.StaffID,
		Date:         formatDate(s.Date),
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		BreakMinutes: s.BreakMinutes,
		NetHours:     s.NetHours,
	}
}

func toScheduleDTO(s application.Schedule) scheduleDTO {
	out := scheduleDTO{
		ID:        s.ID,
		WeekStart: formatDate(s.WeekStart),
		Sector:    s.Sector,
		Shifts:    make([]shiftDTO, 0, len(s.Shifts)),
		Totals:    s.Totals,
		Gaps:      make([]gapDTO, 0, len(s.Gaps)),
		Warnings:  make([]restWarningDTO, 0, len(s.Warnings)),
	}
	if out.Totals == nil {
		out.Totals = map[string]float64{}
	}
	for _, shift := range s.Shifts {
		out.Shifts = append(out.Shifts, toShiftDTO(shift))
	}
	for _, gap := range s.Gaps {
		out.Gaps = append(out.Gaps, gapDTO{
			Date:     formatDate(gap.Date),
			Required: gap.Required,
			Assigned: gap.Assigned,
			Missing:  gap.Missing(),
		})
	}
	for _, warning := range s.Warnings {
		out.Warnings = append(out.Warnings, restWarningDTO{
			StaffID:   warning.StaffID,
			Previous:  warning.Previous.Format(time.RFC3339),
			Next:      warning.Next.Format(time.RFC3339),
			RestHours: warning.RestHours,
		})
	}
	return out
}
