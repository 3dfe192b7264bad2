package periodicity

import (
	"errors"
	"time"
)

// ErrAlreadyExecuted indicates an occurrence already carries an execution date.
var ErrAlreadyExecuted = errors.New("periodicity: occurrence already executed")

// ErrInvalidHorizon indicates a negative projection horizon.
var ErrInvalidHorizon = errors.New("periodicity: horizon must not be negative")

// Template is the recurring-task template as seen by the engine.
type Template struct {
	ID          string
	Periodicity Periodicity
}

// Occurrence is one dated instance of a template.
type Occurrence struct {
	TemplateID    string
	PlannedDate   time.Time
	ExecutionDate *time.Time
	OperatorID    *string
}

// Executed reports whether the occurrence has been completed.
func (o Occurrence) Executed() bool {
	return o.ExecutionDate != nil
}

// Engine projects recurring templates into dated occurrences. All dates are
// truncated to calendar days in the engine's location.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine for the provided location. If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Location returns the engine's calendar location.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}

// Day truncates t to midnight of its calendar day in the engine's location.
func (e *Engine) Day(t time.Time) time.Time {
	loc := e.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Project generates the occurrences of tpl that are missing up to today+horizonDays.
//
// The walk starts from the planned date of the latest executed occurrence, or
// from today when nothing has been executed yet, and repeatedly applies the
// template periodicity. Dates already present in existing (executed or not)
// are skipped. New occurrences inherit the most recent operator assignment.
func (e *Engine) Project(tpl Template, existing []Occurrence, today time.Time, horizonDays int) ([]Occurrence, error) {
	if horizonDays < 0 {
		return nil, ErrInvalidHorizon
	}

	today = e.Day(today)
	limit := today.AddDate(0, 0, horizonDays)

	base := today
	if last, ok := latestExecuted(existing); ok {
		base = e.Day(last.PlannedDate)
	}

	taken := e.dateSet(existing)
	operator := lastKnownOperator(existing)

	generated := make([]Occurrence, 0)
	for candidate := tpl.Periodicity.Next(base); !candidate.After(limit); candidate = tpl.Periodicity.Next(candidate) {
		key := candidate.Format(time.DateOnly)
		if _, ok := taken[key]; ok {
			continue
		}
		taken[key] = struct{}{}
		generated = append(generated, Occurrence{
			TemplateID:  tpl.ID,
			PlannedDate: candidate,
			OperatorID:  cloneString(operator),
		})
	}

	return generated, nil
}

// Execute marks occ as executed today and returns the single follow-up
// occurrence at the next periodicity step. The follow-up is nil when an
// occurrence already exists on that date.
func (e *Engine) Execute(tpl Template, occ Occurrence, existing []Occurrence, today time.Time) (Occurrence, *Occurrence, error) {
	if occ.Executed() {
		return occ, nil, ErrAlreadyExecuted
	}

	executedOn := e.Day(today)
	done := occ
	done.ExecutionDate = &executedOn

	nextDate := tpl.Periodicity.Next(e.Day(occ.PlannedDate))
	if _, ok := e.dateSet(existing)[nextDate.Format(time.DateOnly)]; ok {
		return done, nil, nil
	}

	return done, &Occurrence{
		TemplateID:  tpl.ID,
		PlannedDate: nextDate,
		OperatorID:  cloneString(occ.OperatorID),
	}, nil
}

func (e *Engine) dateSet(occurrences []Occurrence) map[string]struct{} {
	set := make(map[string]struct{}, len(occurrences))
	for _, occ := range occurrences {
		set[e.Day(occ.PlannedDate).Format(time.DateOnly)] = struct{}{}
	}
	return set
}

func latestExecuted(occurrences []Occurrence) (Occurrence, bool) {
	var (
		latest Occurrence
		found  bool
	)
	for _, occ := range occurrences {
		if !occ.Executed() {
			continue
		}
		if !found || occ.PlannedDate.After(latest.PlannedDate) {
			latest = occ
			found = true
		}
	}
	return latest, found
}

func lastKnownOperator(occurrences []Occurrence) *string {
	var (
		latest time.Time
		op     *string
	)
	for _, occ := range occurrences {
		if occ.OperatorID == nil {
			continue
		}
		if op == nil || occ.PlannedDate.After(latest) {
			latest = occ.PlannedDate
			op = occ.OperatorID
		}
	}
	return op
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
