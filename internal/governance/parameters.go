package governance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidConfiguration indicates governance parameters that cannot drive a calculation.
var ErrInvalidConfiguration = errors.New("governance: invalid configuration")

// DayType tags a calendar day for demand multipliers.
type DayType string

const (
	// DayTypeNormal applies no multiplier.
	DayTypeNormal DayType = "normal"
	// DayTypeHoliday applies the holiday multiplier.
	DayTypeHoliday DayType = "holiday"
	// DayTypeHolidayEve applies the holiday-eve multiplier.
	DayTypeHolidayEve DayType = "holiday_eve"
)

// ParseDayType resolves a day type label. An empty label means DayTypeNormal.
func ParseDayType(value string) (DayType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "normal":
		return DayTypeNormal, true
	case "holiday":
		return DayTypeHoliday, true
	case "holiday_eve", "holiday-eve", "holidayeve":
		return DayTypeHolidayEve, true
	}
	return "", false
}

// ContractType distinguishes permanent staff from intermittent contracts.
type ContractType string

const (
	// ContractPermanent is a permanent ("effective") contract.
	ContractPermanent ContractType = "permanent"
	// ContractIntermittent is an on-call contract with weekly hour bounds.
	ContractIntermittent ContractType = "intermittent"
)

// ParseContractType resolves a contract label.
func ParseContractType(value string) (ContractType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "permanent", "effective":
		return ContractPermanent, true
	case "intermittent":
		return ContractIntermittent, true
	}
	return "", false
}

// Parameters is the global governance configuration record.
type Parameters struct {
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
}

// DefaultParameters returns the reset snapshot.
func DefaultParameters() Parameters {
	return Parameters{
		SpeedVacantDirtyMinutes:     30,
		SpeedStayMinutes:            20,
		HolidayDemandMultiplier:     1.2,
		HolidayEveDemandMultiplier:  1.1,
		EfficiencyTargetPercent:     85,
		StandardShiftHours:          8,
		TotalRoomCapacity:           100,
		IntermittentMinWeeklyHours:  8,
		IntermittentMaxWeeklyHours:  32,
		MaxConsecutiveDays:          6,
		MandatoryRestHours:          11,
		PreferEffectiveOnHolidays:   true,
		AllowIntermittentOnHolidays: false,
	}
}

// Problems lists field level configuration issues keyed by field name.
func (p Parameters) Problems() map[string]string {
	problems := make(map[string]string)
	if p.EfficiencyTargetPercent <= 0 {
		problems["efficiency_target"] = "efficiency target must be positive"
	}
	if p.StandardShiftHours <= 0 {
		problems["standard_shift_hours"] = "standard shift hours must be positive"
	}
	if p.SpeedVacantDirtyMinutes < 0 {
		problems["speed_vacant_dirty"] = "must not be negative"
	}
	if p.SpeedStayMinutes < 0 {
		problems["speed_stay"] = "must not be negative"
	}
	if p.HolidayDemandMultiplier < 0 {
		problems["holiday_multiplier"] = "must not be negative"
	}
	if p.HolidayEveDemandMultiplier < 0 {
		problems["holiday_eve_multiplier"] = "must not be negative"
	}
	if p.TotalRoomCapacity < 0 {
		problems["total_room_capacity"] = "must not be negative"
	}
	if p.IntermittentMinWeeklyHours < 0 || p.IntermittentMaxWeeklyHours < 0 {
		problems["intermittent_weekly_hours"] = "must not be negative"
	} else if p.IntermittentMaxWeeklyHours > 0 && p.IntermittentMinWeeklyHours > p.IntermittentMaxWeeklyHours {
		problems["intermittent_weekly_hours"] = "minimum exceeds maximum"
	}
	if p.MaxConsecutiveDays < 0 {
		problems["max_consecutive_days"] = "must not be negative"
	}
	if p.MandatoryRestHours < 0 {
		problems["mandatory_rest_hours"] = "must not be negative"
	}
	return problems
}

// Validate returns ErrInvalidConfiguration describing every problem found.
func (p Parameters) Validate() error {
	problems := p.Problems()
	if len(problems) == 0 {
		return nil
	}
	fields := make([]string, 0, len(problems))
	for field := range problems {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(fields, ", "))
}

// Multiplier returns the demand multiplier selected by dayType.
func (p Parameters) Multiplier(dayType DayType) float64 {
	switch dayType {
	case DayTypeHoliday:
		return p.HolidayDemandMultiplier
	case DayTypeHolidayEve:
		return p.HolidayEveDemandMultiplier
	default:
		return 1.0
	}
}

// WeeklyCap returns the hour ceiling applied to a staff member in one
// generation run; zero means uncapped.
func (p Parameters) WeeklyCap(staff StaffMember) float64 {
	if staff.MaxWeeklyHours > 0 {
		return staff.MaxWeeklyHours
	}
	if staff.ContractType == ContractIntermittent {
		return p.IntermittentMaxWeeklyHours
	}
	return 0
}
