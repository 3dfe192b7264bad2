package governance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultShiftStart is used when SuggestOptions.ShiftStart is empty.
const DefaultShiftStart = "08:00"

// ErrMismatchedPlan indicates demand rows that do not line up with the plan days.
var ErrMismatchedPlan = errors.New("governance: demand does not match plan days")

// StaffMember is the scheduling view of a roster entry.
type StaffMember struct {
	ID              string
	Name            string
	Sector          string
	ContractType    ContractType
	Active          bool
	UnavailableDays []string
	MaxWeeklyHours  float64
}

// UnavailableOn reports whether date falls on one of the member's blocked weekdays.
func (s StaffMember) UnavailableOn(date time.Time) bool {
	weekday := strings.ToLower(date.Weekday().String())
	for _, d := range s.UnavailableDays {
		if strings.ToLower(strings.TrimSpace(d)) == weekday {
			return true
		}
	}
	return false
}

// SuggestOptions tunes a generation run.
type SuggestOptions struct {
	ShiftStart string
}

// Gap records a day whose requirement could not be met.
type Gap struct {
	Date     time.Time
	Required int
	Assigned int
}

// Missing returns the uncovered headcount.
func (g Gap) Missing() int {
	return g.Required - g.Assigned
}

// Suggestion is the outcome of one generation run.
type Suggestion struct {
	Assignments []ShiftAssignment
	Gaps        []Gap
	Hours       map[string]float64
}

// hoursLedger accumulates assigned hours per staff member across the run.
type hoursLedger map[string]float64

// streaks tracks consecutive worked days per staff member.
type streaks struct {
	lastDay map[string]time.Time
	length  map[string]int
}

func newStreaks() *streaks {
	return &streaks{lastDay: make(map[string]time.Time), length: make(map[string]int)}
}

func (s *streaks) next(staffID string, date time.Time) int {
	last, ok := s.lastDay[staffID]
	if ok && last.AddDate(0, 0, 1).Equal(date) {
		return s.length[staffID] + 1
	}
	return 1
}

func (s *streaks) record(staffID string, date time.Time) {
	s.length[staffID] = s.next(staffID, date)
	s.lastDay[staffID] = date
}

// Suggest greedily assigns staff to each demand day in date order.
//
// Per day the pool is filtered by availability, weekly cap, holiday policy and
// consecutive-day limit, then ordered by accumulated hours (permanent staff
// first on holidays when preferred). The required headcount is the whole
// number above the fractional staff count; shortfalls are reported as gaps.
func Suggest(demand []DailyDemand, roster []StaffMember, p Parameters, opts SuggestOptions) (Suggestion, error) {
	if err := p.Validate(); err != nil {
		return Suggestion{}, err
	}
	start := opts.ShiftStart
	if start == "" {
		start = DefaultShiftStart
	}
	if _, err := ParseClock(start); err != nil {
		return Suggestion{}, err
	}

	days := make([]DailyDemand, len(demand))
	copy(days, demand)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	for i := 1; i < len(days); i++ {
		if days[i].Date.Equal(days[i-1].Date) {
			return Suggestion{}, fmt.Errorf("%w: duplicate date %s", ErrMismatchedPlan, days[i].Date.Format(time.DateOnly))
		}
	}

	active := make([]StaffMember, 0, len(roster))
	for _, s := range roster {
		if s.Active {
			active = append(active, s)
		}
	}

	ledger := make(hoursLedger, len(active))
	for _, s := range active {
		ledger[s.ID] = 0
	}
	run := newStreaks()

	result := Suggestion{Hours: ledger}
	for _, day := range days {
		required := day.RequiredHeadcount()
		if required == 0 {
			continue
		}

		chosen := pickStaff(day, active, ledger, run, p, required)
		for _, member := range chosen {
			shift, err := NewShift(member.ID, day.Date, start, p.StandardShiftHours)
			if err != nil {
				return Suggestion{}, err
			}
			result.Assignments = append(result.Assignments, shift)
			ledger[member.ID] += p.StandardShiftHours
			run.record(member.ID, day.Date)
		}

		if len(chosen) < required {
			result.Gaps = append(result.Gaps, Gap{Date: day.Date, Required: required, Assigned: len(chosen)})
		}
	}

	return result, nil
}

func pickStaff(day DailyDemand, roster []StaffMember, ledger hoursLedger, run *streaks, p Parameters, required int) []StaffMember {
	holiday := day.DayType == DayTypeHoliday

	candidates := make([]StaffMember, 0, len(roster))
	for _, member := range roster {
		if member.UnavailableOn(day.Date) {
			continue
		}
		if limit := p.WeeklyCap(member); limit > 0 && ledger[member.ID]+p.StandardShiftHours > limit {
			continue
		}
		if holiday && p.PreferEffectiveOnHolidays && !p.AllowIntermittentOnHolidays && member.ContractType == ContractIntermittent {
			continue
		}
		if p.MaxConsecutiveDays > 0 && run.next(member.ID, day.Date) > p.MaxConsecutiveDays {
			continue
		}
		candidates = append(candidates, member)
	}

	tier := func(m StaffMember) int {
		if holiday && p.PreferEffectiveOnHolidays && m.ContractType != ContractPermanent {
			return 1
		}
		return 0
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ti, tj := tier(candidates[i]), tier(candidates[j])
		if ti != tj {
			return ti < tj
		}
		return ledger[candidates[i].ID] < ledger[candidates[j].ID]
	})

	if len(candidates) > required {
		candidates = candidates[:required]
	}
	return candidates
}
