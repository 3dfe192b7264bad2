package convocation

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestComputeDeadline(t *testing.T) {
	t.Parallel()

	shiftDate := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	deadline, err := ComputeDeadline(shiftDate, "08:00", time.UTC)
	if err != nil {
		t.Fatalf("ComputeDeadline returned error: %v", err)
	}
	want := time.Date(2024, time.June, 7, 8, 0, 0, 0, time.UTC)
	if !deadline.Equal(want) {
		t.Fatalf("expected %s, got %s", want, deadline)
	}

	// The same instant observed from a UTC-3 operator desk.
	desk := time.FixedZone("UTC-3", -3*60*60)
	if local := deadline.In(desk); local.Hour() != 5 || local.Day() != 7 {
		t.Fatalf("expected 05:00 on the 7th at UTC-3, got %s", local)
	}

	late := time.Date(2024, time.June, 7, 6, 0, 0, 0, desk)
	ok, err := CanSend(shiftDate, "08:00", late, time.UTC)
	if err != nil {
		t.Fatalf("CanSend returned error: %v", err)
	}
	if ok {
		t.Fatalf("sending after the deadline must not be allowed")
	}

	if ok, _ := CanSend(shiftDate, "08:00", want, time.UTC); ok {
		t.Fatalf("sending exactly at the deadline must not be allowed")
	}
	if ok, _ := CanSend(shiftDate, "08:00", want.Add(-time.Second), time.UTC); !ok {
		t.Fatalf("sending just before the deadline must be allowed")
	}

	if _, err := ComputeDeadline(shiftDate, "nope", time.UTC); err == nil {
		t.Fatalf("expected an error for a malformed start time")
	}
}

func TestComputeDeadline_IsExactly72Hours(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("plant", 2*60*60)
	for _, start := range []string{"00:00", "06:15", "13:00", "23:59"} {
		shiftDate := time.Date(2024, time.March, 1, 0, 0, 0, 0, loc)
		deadline, err := ComputeDeadline(shiftDate, start, loc)
		if err != nil {
			t.Fatalf("ComputeDeadline(%s) returned error: %v", start, err)
		}
		startAt, _ := time.ParseInLocation("2006-01-02 15:04", "2024-03-01 "+start, loc)
		if got := startAt.Sub(deadline); got != NoticeWindow {
			t.Fatalf("start %s: expected %s notice, got %s", start, NoticeWindow, got)
		}
	}
}

func TestComputeDeadline_UsesWallClockOnDSTDays(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load zone: %v", err)
	}

	tests := []struct {
		name string
		date time.Time
		want time.Time
	}{
		{
			name: "spring forward",
			date: time.Date(2024, time.March, 10, 0, 0, 0, 0, loc),
			want: time.Date(2024, time.March, 7, 7, 0, 0, 0, loc),
		},
		{
			name: "fall back",
			date: time.Date(2024, time.November, 3, 0, 0, 0, 0, loc),
			want: time.Date(2024, time.October, 31, 9, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deadline, err := ComputeDeadline(tt.date, "08:00", loc)
			if err != nil {
				t.Fatalf("ComputeDeadline returned error: %v", err)
			}
			if !deadline.Equal(tt.want) {
				t.Fatalf("expected %s, got %s", tt.want, deadline.In(loc))
			}
			start := time.Date(tt.date.Year(), tt.date.Month(), tt.date.Day(), 8, 0, 0, 0, loc)
			if got := start.Sub(deadline); got != NoticeWindow {
				t.Fatalf("expected %s of notice, got %s", NoticeWindow, got)
			}
		})
	}
}

func TestNewAndPartition(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	shiftDate := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	shifts := []Shift{
		{ID: "ok", StaffID: "a", Date: shiftDate, StartTime: "08:00", EndTime: "16:00"},
		{ID: "convoked", StaffID: "b", Date: shiftDate, StartTime: "08:00", EndTime: "16:00", Convoked: true},
		{ID: "late", StaffID: "c", Date: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), StartTime: "08:00", EndTime: "16:00"},
		{ID: "half", StaffID: "d", Date: shiftDate, StartTime: "08:00"},
	}

	sendable, skipped := Partition(shifts, now, time.UTC)
	if len(sendable) != 1 || sendable[0].ID != "ok" {
		t.Fatalf("unexpected sendable set %+v", sendable)
	}
	reasons := map[string]error{}
	for _, s := range skipped {
		reasons[s.Shift.ID] = s.Reason
	}
	if !errors.Is(reasons["convoked"], ErrAlreadyConvoked) || !errors.Is(reasons["late"], ErrDeadlinePassed) || !errors.Is(reasons["half"], ErrIncompleteShift) {
		t.Fatalf("unexpected skip reasons %v", reasons)
	}

	c, err := New("conv-1", sendable[0], "  ", now, time.UTC)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if c.Status != StatusPending || !c.SentAt.Equal(now) || c.Justification != DefaultJustification {
		t.Fatalf("unexpected convocation %+v", c)
	}
	if !c.DeadlineAt.Equal(time.Date(2024, time.June, 7, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected deadline %s", c.DeadlineAt)
	}

	if _, err := New("conv-2", shifts[2], "", now, time.UTC); !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("expected ErrDeadlinePassed, got %v", err)
	}
}

func TestConvocation_Transitions(t *testing.T) {
	t.Parallel()

	sent := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	deadline := time.Date(2024, time.June, 7, 8, 0, 0, 0, time.UTC)
	pending := func() Convocation {
		return Convocation{ID: "c", Status: StatusPending, SentAt: sent, DeadlineAt: deadline}
	}

	t.Run("accept", func(t *testing.T) {
		c := pending()
		at := sent.Add(time.Hour)
		if err := c.Accept(at); err != nil {
			t.Fatalf("Accept returned error: %v", err)
		}
		if c.Status != StatusAccepted || c.RespondedAt == nil || !c.RespondedAt.Equal(at) {
			t.Fatalf("unexpected state %+v", c)
		}
		if err := c.Reject("changed my mind", at); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("accepted convocations are terminal, got %v", err)
		}
		if err := c.Reject("", at); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("terminal state must win over a missing reason, got %v", err)
		}
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		c := pending()
		if err := c.Reject("   ", sent); !errors.Is(err, ErrReasonRequired) {
			t.Fatalf("expected ErrReasonRequired, got %v", err)
		}
		if c.Status != StatusPending {
			t.Fatalf("failed reject must not change status")
		}
		if err := c.Reject("travelling", sent); err != nil {
			t.Fatalf("Reject returned error: %v", err)
		}
		if c.Status != StatusRejected || c.RejectionReason != "travelling" {
			t.Fatalf("unexpected state %+v", c)
		}
		if err := c.Accept(sent); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("rejected convocations are terminal, got %v", err)
		}
	})

	t.Run("expired convocations cannot be answered", func(t *testing.T) {
		c := pending()
		after := deadline.Add(time.Minute)
		if got := EffectiveStatus(c, after); got != StatusExpired {
			t.Fatalf("expected expired, got %s", got)
		}
		if got := EffectiveStatus(c, deadline); got != StatusPending {
			t.Fatalf("expected pending at the deadline itself, got %s", got)
		}
		if err := c.Accept(after); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
		if c.Status != StatusPending {
			t.Fatalf("expiry must never be written back, got %s", c.Status)
		}
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC)
	responded := now.Add(-time.Hour)
	list := []Convocation{
		{Status: StatusPending, DeadlineAt: now.Add(time.Hour)},
		{Status: StatusPending, DeadlineAt: now.Add(-time.Hour)},
		{Status: StatusAccepted, DeadlineAt: now.Add(-time.Hour), RespondedAt: &responded},
		{Status: StatusRejected, DeadlineAt: now.Add(time.Hour), RespondedAt: &responded},
	}

	got := Summarize(list, now)
	want := Summary{Total: 4, Pending: 1, Accepted: 1, Rejected: 1, Expired: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
