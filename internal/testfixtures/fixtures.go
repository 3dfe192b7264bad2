package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/persistence"
)

var (
	locationCounter uint64
	activityCounter uint64
	staffCounter    uint64
	templateCounter uint64
	shiftCounter    uint64
)

// referenceTime is a Monday morning so week-based fixtures line up with it.
var referenceTime = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceWeek returns the Monday of the reference week at UTC midnight.
func ReferenceWeek() time.Time {
	y, m, d := referenceTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ----------------------------- Location fixtures -----------------------------

// LocationFixture is a deterministic cleanable area.
type LocationFixture struct {
	ID          string
	Name        string
	FloorAreaM2 float64
	Description *string
	CreatedAt   time.Time
}

// LocationOption configures a LocationFixture.
type LocationOption func(*LocationFixture)

// NewLocationFixture returns a location fixture with optional overrides.
func NewLocationFixture(opts ...LocationOption) LocationFixture {
	idx := atomic.AddUint64(&locationCounter, 1)
	fixture := LocationFixture{
		ID:          fmt.Sprintf("loc-%03d", idx),
		Name:        fmt.Sprintf("Area %03d", idx),
		FloorAreaM2: float64(20 * (1 + idx%5)),
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithLocationID overrides the generated ID.
func WithLocationID(id string) LocationOption {
	return func(f *LocationFixture) { f.ID = id }
}

// WithLocationName overrides the generated name.
func WithLocationName(name string) LocationOption {
	return func(f *LocationFixture) { f.Name = name }
}

// WithFloorArea overrides the floor area.
func WithFloorArea(m2 float64) LocationOption {
	return func(f *LocationFixture) { f.FloorAreaM2 = m2 }
}

// Persistence returns the fixture as a stored record.
func (f LocationFixture) Persistence() persistence.Location {
	return persistence.Location{
		ID:          f.ID,
		Name:        f.Name,
		FloorAreaM2: f.FloorAreaM2,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// Input returns the fixture as service input.
func (f LocationFixture) Input() application.LocationInput {
	return application.LocationInput{Name: f.Name, FloorAreaM2: f.FloorAreaM2, Description: f.Description}
}

// ----------------------------- Activity fixtures -----------------------------

// ActivityFixture is a deterministic cleaning activity.
type ActivityFixture struct {
	ID            string
	Name          string
	FixedMinutes  float64
	MinutesPerM2  float64
	RequiredTools []string
	CreatedAt     time.Time
}

// ActivityOption configures an ActivityFixture.
type ActivityOption func(*ActivityFixture)

// NewActivityFixture returns an activity fixture with optional overrides.
func NewActivityFixture(opts ...ActivityOption) ActivityFixture {
	idx := atomic.AddUint64(&activityCounter, 1)
	fixture := ActivityFixture{
		ID:            fmt.Sprintf("act-%03d", idx),
		Name:          fmt.Sprintf("Activity %03d", idx),
		FixedMinutes:  10,
		MinutesPerM2:  0.5,
		RequiredTools: []string{"mop", "bucket"},
		CreatedAt:     referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithActivityID overrides the generated ID.
func WithActivityID(id string) ActivityOption {
	return func(f *ActivityFixture) { f.ID = id }
}

// WithActivityName overrides the generated name.
func WithActivityName(name string) ActivityOption {
	return func(f *ActivityFixture) { f.Name = name }
}

// WithDuration overrides the fixed and per-square-metre minutes.
func WithDuration(fixed, perM2 float64) ActivityOption {
	return func(f *ActivityFixture) {
		f.FixedMinutes = fixed
		f.MinutesPerM2 = perM2
	}
}

// WithTools overrides the required tools.
func WithTools(tools ...string) ActivityOption {
	return func(f *ActivityFixture) { f.RequiredTools = tools }
}

// Persistence returns the fixture as a stored record.
func (f ActivityFixture) Persistence() persistence.Activity {
	return persistence.Activity{
		ID:            f.ID,
		Name:          f.Name,
		FixedMinutes:  f.FixedMinutes,
		MinutesPerM2:  f.MinutesPerM2,
		RequiredTools: append([]string(nil), f.RequiredTools...),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.CreatedAt,
	}
}

// Input returns the fixture as service input.
func (f ActivityFixture) Input() application.ActivityInput {
	return application.ActivityInput{
		Name:          f.Name,
		FixedMinutes:  f.FixedMinutes,
		MinutesPerM2:  f.MinutesPerM2,
		RequiredTools: append([]string(nil), f.RequiredTools...),
	}
}

// ------------------------------- Staff fixtures ------------------------------

// StaffFixture is a deterministic roster entry.
type StaffFixture struct {
	ID              string
	Name            string
	Sector          string
	ContractType    string
	Active          bool
	UnavailableDays []string
	MaxWeeklyHours  float64
	CreatedAt       time.Time
}

// StaffOption configures a StaffFixture.
type StaffOption func(*StaffFixture)

// NewStaffFixture returns an active permanent housekeeping member with optional overrides.
func NewStaffFixture(opts ...StaffOption) StaffFixture {
	idx := atomic.AddUint64(&staffCounter, 1)
	fixture := StaffFixture{
		ID:           fmt.Sprintf("staff-%03d", idx),
		Name:         fmt.Sprintf("Member %03d", idx),
		Sector:       "Housekeeping",
		ContractType: "permanent",
		Active:       true,
		CreatedAt:    referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStaffID overrides the generated ID.
func WithStaffID(id string) StaffOption {
	return func(f *StaffFixture) { f.ID = id }
}

// WithStaffName overrides the generated name.
func WithStaffName(name string) StaffOption {
	return func(f *StaffFixture) { f.Name = name }
}

// WithSector overrides the sector.
func WithSector(sector string) StaffOption {
	return func(f *StaffFixture) { f.Sector = sector }
}

// Intermittent marks the member as intermittent with the given weekly cap.
func Intermittent(maxWeeklyHours float64) StaffOption {
	return func(f *StaffFixture) {
		f.ContractType = "intermittent"
		f.MaxWeeklyHours = maxWeeklyHours
	}
}

// Inactive marks the member as inactive.
func Inactive() StaffOption {
	return func(f *StaffFixture) { f.Active = false }
}

// UnavailableOn blocks the given weekdays.
func UnavailableOn(days ...string) StaffOption {
	return func(f *StaffFixture) { f.UnavailableDays = days }
}

// Persistence returns the fixture as a stored record.
func (f StaffFixture) Persistence() persistence.StaffMember {
	return persistence.StaffMember{
		ID:              f.ID,
		Name:            f.Name,
		Sector:          f.Sector,
		ContractType:    f.ContractType,
		IsActive:        f.Active,
		UnavailableDays: append([]string(nil), f.UnavailableDays...),
		MaxWeeklyHours:  f.MaxWeeklyHours,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// Input returns the fixture as service input.
func (f StaffFixture) Input() application.StaffInput {
	active := f.Active
	return application.StaffInput{
		Name:            f.Name,
		Sector:          f.Sector,
		ContractType:    f.ContractType,
		IsActive:        &active,
		UnavailableDays: append([]string(nil), f.UnavailableDays...),
		MaxWeeklyHours:  f.MaxWeeklyHours,
	}
}

// ------------------------------ Template fixtures ----------------------------

// TemplateFixture is a deterministic recurring task template.
type TemplateFixture struct {
	ID          string
	LocationID  string
	ActivityID  string
	Periodicity string
	CreatedAt   time.Time
}

// TemplateOption configures a TemplateFixture.
type TemplateOption func(*TemplateFixture)

// NewTemplateFixture returns a weekly template binding activity to location.
func NewTemplateFixture(location LocationFixture, activity ActivityFixture, opts ...TemplateOption) TemplateFixture {
	idx := atomic.AddUint64(&templateCounter, 1)
	fixture := TemplateFixture{
		ID:          fmt.Sprintf("tpl-%03d", idx),
		LocationID:  location.ID,
		ActivityID:  activity.ID,
		Periodicity: "Weekly",
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTemplateID overrides the generated ID.
func WithTemplateID(id string) TemplateOption {
	return func(f *TemplateFixture) { f.ID = id }
}

// WithPeriodicity overrides the periodicity label.
func WithPeriodicity(label string) TemplateOption {
	return func(f *TemplateFixture) { f.Periodicity = label }
}

// Persistence returns the fixture as a stored record.
func (f TemplateFixture) Persistence() persistence.TaskTemplate {
	return persistence.TaskTemplate{
		ID:          f.ID,
		LocationID:  f.LocationID,
		ActivityID:  f.ActivityID,
		Periodicity: f.Periodicity,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// Input returns the fixture as service input.
func (f TemplateFixture) Input() application.TemplateInput {
	return application.TemplateInput{LocationID: f.LocationID, ActivityID: f.ActivityID, Periodicity: f.Periodicity}
}

// Occurrence returns a pending occurrence of the template on planned.
func (f TemplateFixture) Occurrence(id string, planned time.Time) persistence.TaskOccurrence {
	templateID := f.ID
	return persistence.TaskOccurrence{
		ID:          id,
		TemplateID:  &templateID,
		LocationID:  f.LocationID,
		ActivityID:  f.ActivityID,
		PlannedDate: planned,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// ------------------------------- Shift fixtures ------------------------------

// ShiftOption configures a shift record.
type ShiftOption func(*persistence.ShiftAssignment)

// WithTimes sets the shift's times together with their derived values.
func WithTimes(start, end string, breakMinutes int, netHours float64) ShiftOption {
	return func(s *persistence.ShiftAssignment) {
		s.StartTime = start
		s.EndTime = end
		s.BreakMinutes = breakMinutes
		s.NetHours = netHours
	}
}

// NewShift returns a complete 08:00-16:00 shift of staff in schedule on date.
func NewShift(scheduleID string, staff StaffFixture, date time.Time, opts ...ShiftOption) persistence.ShiftAssignment {
	idx := atomic.AddUint64(&shiftCounter, 1)
	shift := persistence.ShiftAssignment{
		ID:           fmt.Sprintf("shift-%03d", idx),
		ScheduleID:   scheduleID,
		StaffID:      staff.ID,
		Date:         date,
		StartTime:    "08:00",
		EndTime:      "16:00",
		BreakMinutes: 60,
		NetHours:     7,
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&shift)
	}
	return shift
}

// WeekSchedule returns a schedule header for the week starting on weekStart.
func WeekSchedule(id string, weekStart time.Time, sector string) persistence.WeeklySchedule {
	return persistence.WeeklySchedule{ID: id, WeekStart: weekStart, Sector: sector, CreatedAt: referenceTime, UpdatedAt: referenceTime}
}

// WeekPlanInput returns seven normal days starting at weekStart with the same counts.
func WeekPlanInput(weekStart time.Time, vacantDirty, stay int) application.WeekPlanInput {
	in := application.WeekPlanInput{WeekStart: weekStart}
	for i := 0; i < 7; i++ {
		in.Days = append(in.Days, application.DayInput{
			Date:        weekStart.AddDate(0, 0, i),
			VacantDirty: vacantDirty,
			Stay:        stay,
			DayType:     "normal",
		})
	}
	return in
}
