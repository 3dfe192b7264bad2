package application

import (
	"time"

	"github.com/example/facility-planner/internal/convocation"
	"github.com/example/facility-planner/internal/governance"
	"github.com/example/facility-planner/internal/persistence"
)

// LocationInput captures caller provided location fields.
type LocationInput struct {
	Name        string
	FloorAreaM2 float64
	Description *string
}

// ActivityInput captures caller provided activity definition fields.
type ActivityInput struct {
	Name          string
	FixedMinutes  float64
	MinutesPerM2  float64
	RequiredTools []string
}

// StaffInput captures caller provided roster fields. A nil IsActive means active.
type StaffInput struct {
	Name            string
	Sector          string
	ContractType    string
	IsActive        *bool
	UnavailableDays []string
	MaxWeeklyHours  float64
}

// TemplateInput captures the fields of a new recurring task template.
type TemplateInput struct {
	LocationID  string
	ActivityID  string
	Periodicity string
}

// OccurrenceQuery narrows occurrence listings.
type OccurrenceQuery struct {
	LocationID  string
	TemplateID  string
	From        *time.Time
	To          *time.Time
	PendingOnly bool
}

// Occurrence is a stored occurrence with its estimated duration.
type Occurrence struct {
	persistence.TaskOccurrence
	EstimatedMinutes float64
}

// ProjectionReport summarises a projection over every template.
type ProjectionReport struct {
	Templates int
	Created   int
	Failed    int
}

// DayInput is one day of a week plan as entered by the operator.
type DayInput struct {
	Date        time.Time
	VacantDirty int
	Stay        int
	DayType     string
}

// WeekPlanInput captures a week of occupancy inputs.
type WeekPlanInput struct {
	WeekStart        time.Time
	MaintenanceRooms int
	Days             []DayInput
}

// DayPlan pairs a day's clamped input with the demand derived from it.
type DayPlan struct {
	Input  governance.DailyInput
	Demand governance.DailyDemand
}

// WeekPlan is a stored week plan with its calculated demand.
type WeekPlan struct {
	ID               string
	WeekStart        time.Time
	WeekEnd          time.Time
	MaintenanceRooms int
	Days             []DayPlan
	UpdatedAt        time.Time
}

// SuggestParams drives a suggestion run for one week.
type SuggestParams struct {
	WeekStart time.Time
	Sector    string
	// Overwrite must be set to replace an existing schedule of the week.
	Overwrite bool
}

// ShiftEdit sets or clears one staff member's times on one date.
type ShiftEdit struct {
	WeekStart time.Time
	StaffID   string
	Date      time.Time
	StartTime string
	EndTime   string
}

// Schedule is a week's shift matrix with derived totals.
type Schedule struct {
	ID        string
	WeekStart time.Time
	Sector    string
	Shifts    []persistence.ShiftAssignment
	// Totals holds weekly net hours per staff member over complete shifts.
	Totals   map[string]float64
	Gaps     []governance.Gap
	Warnings []governance.RestWarning
}

// Convocation is a stored convocation with its status as of the read.
type Convocation struct {
	persistence.Convocation
	EffectiveStatus convocation.Status
}

// SendParams selects the shifts of a week to convoke. Empty ShiftIDs means
// every sendable shift.
type SendParams struct {
	WeekStart     time.Time
	ShiftIDs      []string
	Justification string
}

// SkippedShift names a requested shift that was not convoked.
type SkippedShift struct {
	ShiftID string
	StaffID string
	Reason  string
}

// SendResult reports the outcome of a send.
type SendResult struct {
	Sent    []Convocation
	Skipped []SkippedShift
}
