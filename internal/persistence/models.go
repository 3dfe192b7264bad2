package persistence

import "time"

// Location is a cleanable area of the facility.
type Location struct {
	ID          string
	Name        string
	FloorAreaM2 float64
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Activity is a cleaning activity definition.
type Activity struct {
	ID            string
	Name          string
	FixedMinutes  float64
	MinutesPerM2  float64
	RequiredTools []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StaffMember is a roster entry.
type StaffMember struct {
	ID              string
	Name            string
	Sector          string
	ContractType    string
	IsActive        bool
	UnavailableDays []string
	MaxWeeklyHours  float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaskTemplate binds an activity to a location with a periodicity label.
type TaskTemplate struct {
	ID          string
	LocationID  string
	ActivityID  string
	Periodicity string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskOccurrence is one dated instance of a template. TemplateID is nil once
// the template is deleted; executed history keeps its location and activity.
type TaskOccurrence struct {
	ID            string
	TemplateID    *string
	LocationID    string
	ActivityID    string
	PlannedDate   time.Time
	ExecutionDate *time.Time
	OperatorID    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OccurrenceFilter narrows occurrence queries.
type OccurrenceFilter struct {
	LocationID  string
	TemplateID  string
	From        *time.Time
	To          *time.Time
	PendingOnly bool
}

// GovernanceParameters is the single global parameters row.
type GovernanceParameters struct {
	SpeedVacantDirtyMinutes     float64
	SpeedStayMinutes            float64
	HolidayDemandMultiplier     float64
	HolidayEveDemandMultiplier  float64
	EfficiencyTargetPercent     float64
	StandardShiftHours          float64
	TotalRoomCapacity           int
	IntermittentMinWeeklyHours  float64
	IntermittentMaxWeeklyHours  float64
	MaxConsecutiveDays          int
	MandatoryRestHours          float64
	PreferEffectiveOnHolidays   bool
	AllowIntermittentOnHolidays bool
	UpdatedAt                   time.Time
}

// WeekPlan is the occupancy plan and stored demand of one week.
type WeekPlan struct {
	ID               string
	WeekStart        time.Time
	WeekEnd          time.Time
	MaintenanceRooms int
	Days             []DayPlan
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DayPlan holds one day's inputs and the demand computed from them.
type DayPlan struct {
	Date                        time.Time
	DayType                     string
	VacantDirty                 int
	Stay                        int
	OccupancyPercent            float64
	TotalMinutes                float64
	AdjustedMinutes             float64
	RequiredHours               float64
	RequiredHoursWithEfficiency float64
	RequiredStaffCount          float64
}

// WeeklySchedule is the shift matrix header of one week.
type WeeklySchedule struct {
	ID        string
	WeekStart time.Time
	Sector    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShiftAssignment is one staff member's shift on one date. Empty times are stored as NULL.
type ShiftAssignment struct {
	ID           string
	ScheduleID   string
	StaffID      string
	Date         time.Time
	StartTime    string
	EndTime      string
	BreakMinutes int
	NetHours     float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Convocation is the stored formal notice for one shift.
type Convocation struct {
	ID              string
	ScheduleID      string
	ShiftID         string
	StaffID         string
	ShiftDate       time.Time
	ShiftStartTime  string
	ShiftEndTime    string
	SentAt          time.Time
	DeadlineAt      time.Time
	RespondedAt     *time.Time
	Status          string
	Justification   string
	RejectionReason *string
}
