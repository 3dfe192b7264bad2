package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/facility-planner/internal/convocation"
	"github.com/example/facility-planner/internal/persistence"
)

func seedConvocationWeek(store *memoryStore) {
	store.schedules[dayKey(planWeek)] = persistence.WeeklySchedule{ID: "sched-1", WeekStart: planWeek}
	shifts := []persistence.ShiftAssignment{
		{ID: "sh-a", StaffID: "a", Date: date(2024, time.June, 10), StartTime: "08:00", EndTime: "16:00"},
		{ID: "sh-b", StaffID: "b", Date: date(2024, time.June, 12), StartTime: "08:00", EndTime: "16:00"},
		{ID: "sh-d", StaffID: "d", Date: date(2024, time.June, 13), StartTime: "08:00", EndTime: "16:00"},
		{ID: "sh-c", StaffID: "c", Date: date(2024, time.June, 14), StartTime: "08:00"},
	}
	for _, s := range shifts {
		s.ScheduleID = "sched-1"
		store.shifts[s.ID] = s
	}
}

func newConvocationServiceForTest(store *memoryStore, now time.Time) *ConvocationService {
	return NewConvocationServiceWithLogger(store, store, time.UTC, sequentialIDs("conv"), fixedNow(now), discardLogger())
}

func TestConvocationService_SendAndRespond(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedConvocationWeek(store)
	// One hour past the Monday shift's deadline.
	now := time.Date(2024, time.June, 7, 9, 0, 0, 0, time.UTC)
	svc := newConvocationServiceForTest(store, now)
	ctx := context.Background()

	sendable, err := svc.ListSendable(ctx, planWeek)
	if err != nil {
		t.Fatalf("ListSendable returned error: %v", err)
	}
	if len(sendable) != 2 || sendable[0].ID != "sh-b" || sendable[1].ID != "sh-d" {
		t.Fatalf("unexpected sendable shifts %+v", sendable)
	}

	first, err := svc.Send(ctx, SendParams{WeekStart: planWeek, ShiftIDs: []string{"sh-b", "ghost", "sh-b"}})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(first.Sent) != 1 || first.Sent[0].ShiftID != "sh-b" || len(first.Skipped) != 1 || first.Skipped[0].ShiftID != "ghost" {
		t.Fatalf("unexpected first send %+v", first)
	}
	sent := first.Sent[0]
	if sent.Status != string(convocation.StatusPending) || sent.Justification != convocation.DefaultJustification {
		t.Fatalf("unexpected convocation %+v", sent)
	}
	if !sent.DeadlineAt.Equal(time.Date(2024, time.June, 9, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected deadline %s", sent.DeadlineAt)
	}

	second, err := svc.Send(ctx, SendParams{WeekStart: planWeek, Justification: "Event weekend"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(second.Sent) != 1 || second.Sent[0].ShiftID != "sh-d" || second.Sent[0].Justification != "Event weekend" {
		t.Fatalf("unexpected second send %+v", second.Sent)
	}
	reasons := map[string]string{}
	for _, s := range second.Skipped {
		reasons[s.ShiftID] = s.Reason
	}
	want := map[string]string{
		"sh-a": "notice deadline has passed",
		"sh-b": "already convoked",
		"sh-c": "shift has no complete time range",
	}
	for id, reason := range want {
		if reasons[id] != reason {
			t.Fatalf("shift %s: expected %q, got %q", id, reason, reasons[id])
		}
	}

	accepted, err := svc.Accept(ctx, sent.ID)
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if accepted.EffectiveStatus != convocation.StatusAccepted || accepted.RespondedAt == nil {
		t.Fatalf("unexpected accepted convocation %+v", accepted)
	}
	if _, err := svc.Accept(ctx, sent.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	var vErr *ValidationError
	if _, err := svc.Reject(ctx, second.Sent[0].ID, "   "); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := svc.Accept(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConvocationService_ExpiryIsDerived(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedConvocationWeek(store)
	ctx := context.Background()

	sender := newConvocationServiceForTest(store, time.Date(2024, time.June, 7, 9, 0, 0, 0, time.UTC))
	result, err := sender.Send(ctx, SendParams{WeekStart: planWeek})
	if err != nil || len(result.Sent) != 2 {
		t.Fatalf("Send = %+v, %v", result, err)
	}
	if _, err := sender.Reject(ctx, result.Sent[0].ID, "travelling"); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}

	// Past the Thursday shift's deadline.
	later := newConvocationServiceForTest(store, time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC))
	list, err := later.List(ctx, planWeek)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected two convocations, got %d", len(list))
	}
	expired := list[1]
	if expired.ShiftID != "sh-d" || expired.EffectiveStatus != convocation.StatusExpired || expired.Status != string(convocation.StatusPending) {
		t.Fatalf("expected a derived expiry over a stored pending status, got %+v", expired)
	}
	if list[0].EffectiveStatus != convocation.StatusRejected || list[0].RejectionReason == nil || *list[0].RejectionReason != "travelling" {
		t.Fatalf("unexpected rejected convocation %+v", list[0])
	}

	if _, err := later.Reject(ctx, expired.ID, "too late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if stored := store.convocations[expired.ID]; stored.Status != string(convocation.StatusPending) {
		t.Fatalf("expiry must not be written back, got %s", stored.Status)
	}

	summary, err := later.Summary(ctx, planWeek)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary != (convocation.Summary{Total: 2, Rejected: 1, Expired: 1}) {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if _, err := later.List(ctx, planWeek.AddDate(0, 0, 7)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a week without a schedule, got %v", err)
	}
}
