package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/convocation"
	"github.com/example/facility-planner/internal/persistence"
)

// ConvocationService sends shift convocations and records staff responses.
type ConvocationService struct {
	schedules    persistence.ScheduleRepository
	convocations persistence.ConvocationRepository
	location     *time.Location
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewConvocationServiceWithLogger constructs a convocation service. Shift
// start times are read in loc.
func NewConvocationServiceWithLogger(
	schedules persistence.ScheduleRepository,
	convocations persistence.ConvocationRepository,
	loc *time.Location,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *ConvocationService {
	if loc == nil {
		loc = time.UTC
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ConvocationService{
		schedules:    schedules,
		convocations: convocations,
		location:     loc,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ConvocationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConvocationService", operation, attrs...)
}

// ListSendable returns the complete, unconvoked shifts of the week whose
// notice deadline is still ahead.
func (s *ConvocationService) ListSendable(ctx context.Context, weekStart time.Time) ([]persistence.ShiftAssignment, error) {
	_, shifts, existing, err := s.loadWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	sendable, _ := convocation.Partition(s.engineShifts(shifts, existing), s.now(), s.location)

	byID := make(map[string]persistence.ShiftAssignment, len(shifts))
	for _, shift := range shifts {
		byID[shift.ID] = shift
	}
	out := make([]persistence.ShiftAssignment, 0, len(sendable))
	for _, shift := range sendable {
		out = append(out, byID[shift.ID])
	}
	return out, nil
}

// Send creates pending convocations for the sendable subset of the requested
// shifts. Everything else is reported as skipped.
func (s *ConvocationService) Send(ctx context.Context, params SendParams) (result SendResult, err error) {
	logger := s.loggerWith(ctx, "Send",
		"week_start", params.WeekStart.Format(time.DateOnly),
		"requested", len(params.ShiftIDs),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to send convocations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "convocations sent", "sent", len(result.Sent), "skipped", len(result.Skipped))
	}()

	var (
		shifts   []persistence.ShiftAssignment
		existing []persistence.Convocation
	)
	_, shifts, existing, err = s.loadWeek(ctx, params.WeekStart)
	if err != nil {
		return
	}

	candidates := s.engineShifts(shifts, existing)
	if len(params.ShiftIDs) > 0 {
		known := make(map[string]convocation.Shift, len(candidates))
		for _, c := range candidates {
			known[c.ID] = c
		}
		selected := make([]convocation.Shift, 0, len(params.ShiftIDs))
		seen := make(map[string]struct{}, len(params.ShiftIDs))
		for _, id := range params.ShiftIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			shift, ok := known[id]
			if !ok {
				result.Skipped = append(result.Skipped, SkippedShift{ShiftID: id, Reason: "shift is not part of the week's schedule"})
				continue
			}
			selected = append(selected, shift)
		}
		candidates = selected
	}

	now := s.now()
	sendable, skipped := convocation.Partition(candidates, now, s.location)
	for _, sk := range skipped {
		result.Skipped = append(result.Skipped, SkippedShift{ShiftID: sk.Shift.ID, StaffID: sk.Shift.StaffID, Reason: skipReason(sk.Reason)})
	}
	if len(sendable) == 0 {
		return
	}

	records := make([]persistence.Convocation, 0, len(sendable))
	for _, shift := range sendable {
		var c convocation.Convocation
		c, err = convocation.New(s.idGenerator(), shift, params.Justification, now, s.location)
		if err != nil {
			return
		}
		records = append(records, convocationToRecord(c))
	}
	if err = s.convocations.CreateConvocations(ctx, records); err != nil {
		err = mapConvocationRepoError(err)
		return
	}
	for _, r := range records {
		result.Sent = append(result.Sent, s.view(r, now))
	}
	return
}

// Accept records an acceptance of a pending convocation.
func (s *ConvocationService) Accept(ctx context.Context, id string) (Convocation, error) {
	return s.respond(ctx, "Accept", id, func(c *convocation.Convocation, now time.Time) error {
		return c.Accept(now)
	})
}

// Reject records a rejection of a pending convocation. reason is mandatory.
func (s *ConvocationService) Reject(ctx context.Context, id, reason string) (Convocation, error) {
	return s.respond(ctx, "Reject", id, func(c *convocation.Convocation, now time.Time) error {
		return c.Reject(reason, now)
	})
}

func (s *ConvocationService) respond(ctx context.Context, operation, id string, apply func(*convocation.Convocation, time.Time) error) (view Convocation, err error) {
	logger := s.loggerWith(ctx, operation, "convocation_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record response", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "response recorded", "status", view.Status)
	}()

	var stored persistence.Convocation
	stored, err = s.convocations.GetConvocation(ctx, id)
	if err != nil {
		err = mapConvocationRepoError(err)
		return
	}

	now := s.now()
	c := convocationFromRecord(stored)
	if applyErr := apply(&c, now); applyErr != nil {
		switch {
		case errors.Is(applyErr, convocation.ErrReasonRequired):
			err = fieldError("reason", "a rejection reason is required")
		case errors.Is(applyErr, convocation.ErrInvalidTransition):
			err = fmt.Errorf("%w: %v", ErrInvalidTransition, applyErr)
		default:
			err = applyErr
		}
		return
	}

	record := convocationToRecord(c)
	if err = s.convocations.UpdateConvocation(ctx, record); err != nil {
		err = mapConvocationRepoError(err)
		return
	}
	view = s.view(record, now)
	return
}

// List returns the week's convocations with their status as of now.
func (s *ConvocationService) List(ctx context.Context, weekStart time.Time) ([]Convocation, error) {
	_, _, existing, err := s.loadWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Convocation, 0, len(existing))
	for _, r := range existing {
		out = append(out, s.view(r, now))
	}
	return out, nil
}

// Summary counts the week's convocations by status as of now.
func (s *ConvocationService) Summary(ctx context.Context, weekStart time.Time) (convocation.Summary, error) {
	_, _, existing, err := s.loadWeek(ctx, weekStart)
	if err != nil {
		return convocation.Summary{}, err
	}
	list := make([]convocation.Convocation, 0, len(existing))
	for _, r := range existing {
		list = append(list, convocationFromRecord(r))
	}
	return convocation.Summarize(list, s.now()), nil
}

func (s *ConvocationService) loadWeek(ctx context.Context, weekStart time.Time) (persistence.WeeklySchedule, []persistence.ShiftAssignment, []persistence.Convocation, error) {
	if vErr := validateWeekStart(weekStart); vErr.HasErrors() {
		return persistence.WeeklySchedule{}, nil, nil, vErr
	}
	header, err := s.schedules.GetScheduleByWeek(ctx, weekStart)
	if err != nil {
		return persistence.WeeklySchedule{}, nil, nil, mapConvocationRepoError(err)
	}
	shifts, err := s.schedules.ListShifts(ctx, header.ID)
	if err != nil {
		return persistence.WeeklySchedule{}, nil, nil, err
	}
	existing, err := s.convocations.ListConvocations(ctx, header.ID)
	if err != nil {
		return persistence.WeeklySchedule{}, nil, nil, err
	}
	return header, shifts, existing, nil
}

func (s *ConvocationService) engineShifts(shifts []persistence.ShiftAssignment, existing []persistence.Convocation) []convocation.Shift {
	convoked := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		convoked[c.ShiftID] = struct{}{}
	}
	out := make([]convocation.Shift, 0, len(shifts))
	for _, shift := range shifts {
		_, done := convoked[shift.ID]
		out = append(out, convocation.Shift{
			ID:         shift.ID,
			ScheduleID: shift.ScheduleID,
			StaffID:    shift.StaffID,
			Date:       localDate(shift.Date, s.location),
			StartTime:  shift.StartTime,
			EndTime:    shift.EndTime,
			Convoked:   done,
		})
	}
	return out
}

func (s *ConvocationService) view(r persistence.Convocation, now time.Time) Convocation {
	return Convocation{
		Convocation:     r,
		EffectiveStatus: convocation.EffectiveStatus(convocationFromRecord(r), now),
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, convocation.ErrAlreadyConvoked):
		return "already convoked"
	case errors.Is(err, convocation.ErrDeadlinePassed):
		return "notice deadline has passed"
	case errors.Is(err, convocation.ErrIncompleteShift):
		return "shift has no complete time range"
	}
	return err.Error()
}

func convocationFromRecord(r persistence.Convocation) convocation.Convocation {
	c := convocation.Convocation{
		ID:             r.ID,
		ScheduleID:     r.ScheduleID,
		ShiftID:        r.ShiftID,
		StaffID:        r.StaffID,
		ShiftDate:      r.ShiftDate,
		ShiftStartTime: r.ShiftStartTime,
		ShiftEndTime:   r.ShiftEndTime,
		SentAt:         r.SentAt,
		DeadlineAt:     r.DeadlineAt,
		RespondedAt:    r.RespondedAt,
		Status:         convocation.Status(r.Status),
		Justification:  r.Justification,
	}
	if r.RejectionReason != nil {
		c.RejectionReason = *r.RejectionReason
	}
	return c
}

func convocationToRecord(c convocation.Convocation) persistence.Convocation {
	r := persistence.Convocation{
		ID:             c.ID,
		ScheduleID:     c.ScheduleID,
		ShiftID:        c.ShiftID,
		StaffID:        c.StaffID,
		ShiftDate:      c.ShiftDate,
		ShiftStartTime: c.ShiftStartTime,
		ShiftEndTime:   c.ShiftEndTime,
		SentAt:         c.SentAt,
		DeadlineAt:     c.DeadlineAt,
		RespondedAt:    c.RespondedAt,
		Status:         string(c.Status),
		Justification:  c.Justification,
	}
	if reason := strings.TrimSpace(c.RejectionReason); reason != "" {
		r.RejectionReason = &reason
	}
	return r
}

func mapConvocationRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: shift already convoked", ErrConflict)
	}
	return err
}
