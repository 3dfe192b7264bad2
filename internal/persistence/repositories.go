package persistence

import (
	"context"
	"time"
)

// LocationRepository exposes CRUD operations for locations.
type LocationRepository interface {
	CreateLocation(ctx context.Context, location Location) error
	UpdateLocation(ctx context.Context, location Location) error
	GetLocation(ctx context.Context, id string) (Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	DeleteLocation(ctx context.Context, id string) error
}

// ActivityRepository exposes CRUD operations for activity definitions.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity Activity) error
	UpdateActivity(ctx context.Context, activity Activity) error
	GetActivity(ctx context.Context, id string) (Activity, error)
	ListActivities(ctx context.Context) ([]Activity, error)
	DeleteActivity(ctx context.Context, id string) error
}

// StaffRepository exposes CRUD operations for the roster.
type StaffRepository interface {
	CreateStaff(ctx context.Context, staff StaffMember) error
	UpdateStaff(ctx context.Context, staff StaffMember) error
	GetStaff(ctx context.Context, id string) (StaffMember, error)
	ListStaff(ctx context.Context) ([]StaffMember, error)
	DeleteStaff(ctx context.Context, id string) error
}

// TaskRepository stores recurring templates and their occurrences.
type TaskRepository interface {
	CreateTemplate(ctx context.Context, template TaskTemplate) error
	GetTemplate(ctx context.Context, id string) (TaskTemplate, error)
	ListTemplates(ctx context.Context, locationID string) ([]TaskTemplate, error)
	// DeleteTemplate removes pending occurrences, detaches executed ones and
	// deletes the template in one transaction.
	DeleteTemplate(ctx context.Context, id string) error

	GetOccurrence(ctx context.Context, id string) (TaskOccurrence, error)
	ListOccurrences(ctx context.Context, filter OccurrenceFilter) ([]TaskOccurrence, error)
	InsertOccurrences(ctx context.Context, occurrences []TaskOccurrence) error
	UpdateOccurrence(ctx context.Context, occurrence TaskOccurrence) error
	// CompleteOccurrence stores the executed occurrence and, when next is not
	// nil, its follow-up in one transaction.
	CompleteOccurrence(ctx context.Context, done TaskOccurrence, next *TaskOccurrence) error
}

// GovernanceRepository stores parameters and weekly occupancy plans.
type GovernanceRepository interface {
	GetParameters(ctx context.Context) (GovernanceParameters, error)
	SaveParameters(ctx context.Context, params GovernanceParameters) error
	GetWeekPlan(ctx context.Context, weekStart time.Time) (WeekPlan, error)
	SaveWeekPlan(ctx context.Context, plan WeekPlan) error
}

// ScheduleRepository stores weekly shift matrices.
type ScheduleRepository interface {
	GetScheduleByWeek(ctx context.Context, weekStart time.Time) (WeeklySchedule, error)
	CreateSchedule(ctx context.Context, schedule WeeklySchedule) error
	// ReplaceSchedule drops any schedule of the same week, with its shifts and
	// convocations, and stores schedule with shifts in one transaction.
	ReplaceSchedule(ctx context.Context, schedule WeeklySchedule, shifts []ShiftAssignment) error
	ListShifts(ctx context.Context, scheduleID string) ([]ShiftAssignment, error)
	GetShift(ctx context.Context, id string) (ShiftAssignment, error)
	UpsertShift(ctx context.Context, shift ShiftAssignment) error
	// DeleteShift removes the shift and its convocation.
	DeleteShift(ctx context.Context, id string) error
	// ShiftConvoked reports whether a convocation exists for the shift.
	ShiftConvoked(ctx context.Context, shiftID string) (bool, error)
}

// ConvocationRepository stores convocations.
type ConvocationRepository interface {
	CreateConvocations(ctx context.Context, convocations []Convocation) error
	GetConvocation(ctx context.Context, id string) (Convocation, error)
	UpdateConvocation(ctx context.Context, convocation Convocation) error
	ListConvocations(ctx context.Context, scheduleID string) ([]Convocation, error)
}
