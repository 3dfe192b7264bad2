package application

import "time"

// localDate re-anchors the calendar day of t at midnight in loc. Stored dates
// come back at UTC midnight and must not drift when loc is west of UTC.
func localDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// today returns the current calendar day in loc.
func today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// validateWeekStart requires a Monday.
func validateWeekStart(weekStart time.Time) *ValidationError {
	vErr := &ValidationError{}
	if weekStart.IsZero() {
		vErr.add("week_start", "week start is required")
	} else if weekStart.Weekday() != time.Monday {
		vErr.add("week_start", "week start must be a Monday")
	}
	return vErr
}

// inWeek reports whether date falls within the seven days from weekStart.
func inWeek(date, weekStart time.Time) bool {
	for i := 0; i < 7; i++ {
		if sameDay(date, weekStart.AddDate(0, 0, i)) {
			return true
		}
	}
	return false
}
