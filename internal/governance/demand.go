package governance

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DaysPerWeek is the number of daily inputs in a weekly plan.
const DaysPerWeek = 7

// ceilTolerance absorbs float noise so exact tenths are not bumped up.
const ceilTolerance = 1e-9

var (
	// ErrInvalidWeek indicates a weekly plan that does not hold exactly seven days.
	ErrInvalidWeek = errors.New("governance: a week must contain exactly seven days")
	// ErrNegativeInput indicates negative room counts reached the calculator.
	ErrNegativeInput = errors.New("governance: room counts must not be negative")
)

// DailyInput is the operator-entered occupancy for one day.
type DailyInput struct {
	Date        time.Time
	VacantDirty int
	Stay        int
	DayType     DayType
}

// Occupied returns the rooms needing cleaning that day.
func (d DailyInput) Occupied() int {
	return d.VacantDirty + d.Stay
}

// Clamp returns a copy with negative counts raised to zero and an unknown
// day type replaced by DayTypeNormal.
func (d DailyInput) Clamp() DailyInput {
	out := d
	if out.VacantDirty < 0 {
		out.VacantDirty = 0
	}
	if out.Stay < 0 {
		out.Stay = 0
	}
	dayType, ok := ParseDayType(string(out.DayType))
	if !ok {
		dayType = DayTypeNormal
	}
	out.DayType = dayType
	return out
}

// DailyDemand is the derived staffing requirement for one day.
type DailyDemand struct {
	Date                        time.Time
	DayType                     DayType
	OccupiedRooms               int
	OccupancyPercent            float64
	TotalMinutes                float64
	AdjustedMinutes             float64
	RequiredHours               float64
	RequiredHoursWithEfficiency float64
	RequiredStaffCount          float64
}

// OccupancyDisplay clamps OccupancyPercent to [0, 100].
func (d DailyDemand) OccupancyDisplay() float64 {
	return math.Max(0, math.Min(100, d.OccupancyPercent))
}

// RequiredHeadcount rounds the fractional staff requirement up to whole people.
func (d DailyDemand) RequiredHeadcount() int {
	if d.RequiredStaffCount <= 0 {
		return 0
	}
	return int(math.Ceil(d.RequiredStaffCount - ceilTolerance))
}

// CalculateDailyDemand derives one day's requirement. maintenanceRooms is the
// count of rooms out of service for the week.
func CalculateDailyDemand(in DailyInput, maintenanceRooms int, p Parameters) (DailyDemand, error) {
	if err := p.Validate(); err != nil {
		return DailyDemand{}, err
	}
	if in.VacantDirty < 0 || in.Stay < 0 {
		return DailyDemand{}, fmt.Errorf("%w: %s", ErrNegativeInput, in.Date.Format(time.DateOnly))
	}

	dayType := in.DayType
	if dayType == "" {
		dayType = DayTypeNormal
	}

	total := float64(in.VacantDirty)*p.SpeedVacantDirtyMinutes + float64(in.Stay)*p.SpeedStayMinutes
	adjusted := total * p.Multiplier(dayType)
	hours := adjusted / 60
	withEfficiency := hours / (p.EfficiencyTargetPercent / 100)
	staff := ceilTenth(withEfficiency / p.StandardShiftHours)

	available := p.TotalRoomCapacity - maintenanceRooms
	if available < 1 {
		available = 1
	}

	return DailyDemand{
		Date:                        in.Date,
		DayType:                     dayType,
		OccupiedRooms:               in.Occupied(),
		OccupancyPercent:            float64(in.Occupied()) / float64(available) * 100,
		TotalMinutes:                total,
		AdjustedMinutes:             adjusted,
		RequiredHours:               hours,
		RequiredHoursWithEfficiency: withEfficiency,
		RequiredStaffCount:          staff,
	}, nil
}

// CalculateWeeklyDemand derives the requirement for each of the seven days
// independently. It has no side effects.
func CalculateWeeklyDemand(days []DailyInput, maintenanceRooms int, p Parameters) ([]DailyDemand, error) {
	if len(days) != DaysPerWeek {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWeek, len(days))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	demand := make([]DailyDemand, 0, len(days))
	for _, in := range days {
		d, err := CalculateDailyDemand(in, maintenanceRooms, p)
		if err != nil {
			return nil, err
		}
		demand = append(demand, d)
	}
	return demand, nil
}

func ceilTenth(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Ceil(x*10-ceilTolerance) / 10
}
