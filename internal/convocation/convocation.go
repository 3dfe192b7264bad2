// Package convocation evaluates the minimum-notice rule for formally offering
// shifts to staff and tracks the response lifecycle of each offer.
package convocation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/governance"
)

// NoticeWindow is the minimum notice between sending and the shift start.
const NoticeWindow = 72 * time.Hour

// DefaultJustification is recorded when a convocation is sent without one.
const DefaultJustification = "Operational demand for the scheduled week."

var (
	// ErrInvalidTransition indicates a response to a convocation that is no longer pending.
	ErrInvalidTransition = errors.New("convocation: invalid status transition")
	// ErrDeadlinePassed indicates the notice deadline for a shift has already passed.
	ErrDeadlinePassed = errors.New("convocation: notice deadline has passed")
	// ErrAlreadyConvoked indicates the shift already has a convocation.
	ErrAlreadyConvoked = errors.New("convocation: shift already convoked")
	// ErrReasonRequired indicates a rejection without a reason.
	ErrReasonRequired = errors.New("convocation: rejection reason is required")
	// ErrIncompleteShift indicates a shift without both start and end times.
	ErrIncompleteShift = errors.New("convocation: shift has no complete time range")
)

// Status is the lifecycle state of a convocation.
type Status string

// Stored convocation states. A convocation is created pending and moves to
// accepted or rejected once, before its deadline.
const (
	// StatusPending awaits a response from the staff member.
	StatusPending Status = "pending"
	// StatusAccepted records that the staff member confirmed the shift.
	StatusAccepted Status = "accepted"
	// StatusRejected records a refusal; a reason is always stored with it.
	StatusRejected Status = "rejected"
	// StatusExpired is never stored; it is derived by EffectiveStatus.
	StatusExpired Status = "expired"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

// Convocation is the formal notice offering one shift to one staff member.
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
	Status          Status
	Justification   string
	RejectionReason string
}

// Shift is the scheduling data needed to evaluate a send.
type Shift struct {
	ID         string
	ScheduleID string
	StaffID    string
	Date       time.Time
	StartTime  string
	EndTime    string
	Convoked   bool
}

// ComputeDeadline returns the shift start on date at startTime in loc minus NoticeWindow.
func ComputeDeadline(date time.Time, startTime string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	minutes, err := governance.ParseClock(startTime)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc)
	return start.Add(-NoticeWindow), nil
}

// CanSend reports whether now is strictly before the deadline.
func CanSend(date time.Time, startTime string, now time.Time, loc *time.Location) (bool, error) {
	deadline, err := ComputeDeadline(date, startTime, loc)
	if err != nil {
		return false, err
	}
	return now.Before(deadline), nil
}

// EffectiveStatus projects the stored status onto now. A pending convocation
// whose deadline has passed without a response reads as expired.
func EffectiveStatus(c Convocation, now time.Time) Status {
	if c.Status == StatusPending && c.RespondedAt == nil && now.After(c.DeadlineAt) {
		return StatusExpired
	}
	return c.Status
}

// Check returns nil when shift may be convoked at now.
func Check(shift Shift, now time.Time, loc *time.Location) error {
	if shift.StartTime == "" || shift.EndTime == "" {
		return ErrIncompleteShift
	}
	if shift.Convoked {
		return ErrAlreadyConvoked
	}
	ok, err := CanSend(shift.Date, shift.StartTime, now, loc)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeadlinePassed
	}
	return nil
}

// New creates a pending convocation for shift sent at now.
func New(id string, shift Shift, justification string, now time.Time, loc *time.Location) (Convocation, error) {
	if err := Check(shift, now, loc); err != nil {
		return Convocation{}, err
	}
	deadline, err := ComputeDeadline(shift.Date, shift.StartTime, loc)
	if err != nil {
		return Convocation{}, err
	}
	justification = strings.TrimSpace(justification)
	if justification == "" {
		justification = DefaultJustification
	}
	return Convocation{
		ID:             id,
		ScheduleID:     shift.ScheduleID,
		ShiftID:        shift.ID,
		StaffID:        shift.StaffID,
		ShiftDate:      shift.Date,
		ShiftStartTime: shift.StartTime,
		ShiftEndTime:   shift.EndTime,
		SentAt:         now,
		DeadlineAt:     deadline,
		Status:         StatusPending,
		Justification:  justification,
	}, nil
}

// Skipped names a shift left out of a send and why.
type Skipped struct {
	Shift  Shift
	Reason error
}

// Partition splits shifts into those sendable at now and those that are not.
func Partition(shifts []Shift, now time.Time, loc *time.Location) ([]Shift, []Skipped) {
	sendable := make([]Shift, 0, len(shifts))
	var skipped []Skipped
	for _, s := range shifts {
		if err := Check(s, now, loc); err != nil {
			skipped = append(skipped, Skipped{Shift: s, Reason: err})
			continue
		}
		sendable = append(sendable, s)
	}
	return sendable, skipped
}

// Accept moves a pending convocation to accepted.
func (c *Convocation) Accept(now time.Time) error {
	if err := c.respondable(now); err != nil {
		return err
	}
	c.Status = StatusAccepted
	c.RespondedAt = &now
	return nil
}

// Reject moves a pending convocation to rejected with a mandatory reason.
func (c *Convocation) Reject(reason string, now time.Time) error {
	if err := c.respondable(now); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	c.Status = StatusRejected
	c.RejectionReason = reason
	c.RespondedAt = &now
	return nil
}

func (c *Convocation) respondable(now time.Time) error {
	if status := EffectiveStatus(*c, now); status != StatusPending {
		return fmt.Errorf("%w: convocation is %s", ErrInvalidTransition, status)
	}
	return nil
}

// Summary counts convocations by effective status.
type Summary struct {
	Total    int
	Pending  int
	Accepted int
	Rejected int
	Expired  int
}

// Summarize counts list by EffectiveStatus at now.
func Summarize(list []Convocation, now time.Time) Summary {
	var s Summary
	for _, c := range list {
		s.Total++
		switch EffectiveStatus(c, now) {
		case StatusPending:
			s.Pending++
		case StatusAccepted:
			s.Accepted++
		case StatusRejected:
			s.Rejected++
		case StatusExpired:
			s.Expired++
		}
	}
	return s
}
