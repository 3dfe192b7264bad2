package governance

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	clockLayout = "15:04"

	shortShiftMinutes = 6 * 60
	shortBreakMinutes = 15
	longBreakMinutes  = 60
)

// ErrInvalidShiftTime indicates a malformed or zero-length shift.
var ErrInvalidShiftTime = errors.New("governance: invalid shift time")

// ShiftAssignment is one staff member's shift on one date.
type ShiftAssignment struct {
	StaffID      string
	Date         time.Time
	StartTime    string
	EndTime      string
	BreakMinutes int
	NetHours     float64
}

// Complete reports whether both start and end times are set.
func (s ShiftAssignment) Complete() bool {
	return s.StartTime != "" && s.EndTime != ""
}

// Cleared reports whether both start and end times are empty.
func (s ShiftAssignment) Cleared() bool {
	return s.StartTime == "" && s.EndTime == ""
}

// ParseClock converts an "HH:MM" string into minutes after midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidShiftTime, value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes after midnight as "HH:MM", wrapping past midnight.
func FormatClock(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// GrossMinutes returns the shift length. An end before start crosses midnight.
func GrossMinutes(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	if e == s {
		return 0, fmt.Errorf("%w: start and end are both %s", ErrInvalidShiftTime, start)
	}
	if e < s {
		e += 24 * 60
	}
	return e - s, nil
}

// BreakFor applies the break rule: 15 minutes up to six gross hours, 60 above.
func BreakFor(grossMinutes int) int {
	if grossMinutes <= shortShiftMinutes {
		return shortBreakMinutes
	}
	return longBreakMinutes
}

// ComputeShift returns the break and net hours of a start/end pair.
func ComputeShift(start, end string) (breakMinutes int, netHours float64, err error) {
	gross, err := GrossMinutes(start, end)
	if err != nil {
		return 0, 0, err
	}
	breakMinutes = BreakFor(gross)
	return breakMinutes, round2(float64(gross)/60 - float64(breakMinutes)/60), nil
}

// SetTimes replaces the start and end times and recomputes derived fields.
// A half-filled shift keeps zero break and net hours.
func (s *ShiftAssignment) SetTimes(start, end string) error {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	for _, v := range []string{start, end} {
		if v == "" {
			continue
		}
		if _, err := ParseClock(v); err != nil {
			return err
		}
	}

	next := *s
	next.StartTime = start
	next.EndTime = end
	next.BreakMinutes = 0
	next.NetHours = 0
	if next.Complete() {
		b, net, err := ComputeShift(start, end)
		if err != nil {
			return err
		}
		next.BreakMinutes = b
		next.NetHours = net
	}
	*s = next
	return nil
}

// Interval returns the absolute start and end instants of a complete shift.
func (s ShiftAssignment) Interval(loc *time.Location) (time.Time, time.Time, bool) {
	if !s.Complete() {
		return time.Time{}, time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	startMin, err := ParseClock(s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endMin, err := ParseClock(s.EndTime)
	if err != nil || endMin == startMin {
		return time.Time{}, time.Time{}, false
	}
	y, m, d := s.Date.Date()
	start := time.Date(y, m, d, startMin/60, startMin%60, 0, 0, loc)
	if endMin < startMin {
		d++
	}
	end := time.Date(y, m, d, endMin/60, endMin%60, 0, 0, loc)
	return start, end, true
}

// NewShift builds a complete assignment starting at start and lasting hours.
func NewShift(staffID string, date time.Time, start string, hours float64) (ShiftAssignment, error) {
	startMin, err := ParseClock(start)
	if err != nil {
		return ShiftAssignment{}, err
	}
	shift := ShiftAssignment{StaffID: staffID, Date: date}
	end := FormatClock(startMin + int(math.Round(hours*60)))
	if err := shift.SetTimes(FormatClock(startMin), end); err != nil {
		return ShiftAssignment{}, err
	}
	return shift, nil
}

// RestWarning reports two consecutive shifts closer than the mandatory rest.
type RestWarning struct {
	StaffID   string
	Previous  time.Time
	Next      time.Time
	RestHours float64
}

func (w RestWarning) String() string {
	return fmt.Sprintf("staff %s rests %.2fh between %s and %s",
		w.StaffID, w.RestHours, w.Previous.Format(time.DateOnly), w.Next.Format(time.DateOnly))
}

// RestWarnings checks every staff member's complete shifts in order and
// reports gaps shorter than minRestHours. Warnings never block an edit.
func RestWarnings(shifts []ShiftAssignment, minRestHours float64, loc *time.Location) []RestWarning {
	if minRestHours <= 0 {
		return nil
	}

	type span struct {
		start, end time.Time
	}
	byStaff := make(map[string][]span)
	for _, s := range shifts {
		start, end, ok := s.Interval(loc)
		if !ok {
			continue
		}
		byStaff[s.StaffID] = append(byStaff[s.StaffID], span{start, end})
	}

	staffIDs := make([]string, 0, len(byStaff))
	for id := range byStaff {
		staffIDs = append(staffIDs, id)
	}
	sort.Strings(staffIDs)

	var warnings []RestWarning
	for _, id := range staffIDs {
		spans := byStaff[id]
		sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
		for i := 1; i < len(spans); i++ {
			rest := spans[i].start.Sub(spans[i-1].end).Hours()
			if rest < minRestHours {
				warnings = append(warnings, RestWarning{
					StaffID:   id,
					Previous:  spans[i-1].start,
					Next:      spans[i].start,
					RestHours: round2(rest),
				})
			}
		}
	}
	return warnings
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
