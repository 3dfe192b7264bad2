package periodicity

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label    string
		kind     Kind
		days     int
		degraded bool
	}{
		{label: "Daily", kind: KindDaily},
		{label: "  weekly ", kind: KindWeekly},
		{label: "BIWEEKLY", kind: KindBiweekly},
		{label: "Monthly", kind: KindMonthly},
		{label: "Bimonthly", kind: KindBimonthly},
		{label: "Quarterly", kind: KindQuarterly},
		{label: "Semiannual", kind: KindSemiannual},
		{label: "Annual", kind: KindAnnual},
		{label: "Every 10 days", kind: KindEveryNDays, days: 10},
		{label: "every 1 day", kind: KindEveryNDays, days: 1},
		{label: "Every x days", kind: KindEveryNDays, days: 1, degraded: true},
		{label: "Every -3 days", kind: KindEveryNDays, days: 1, degraded: true},
		{label: "Every days", kind: KindEveryNDays, days: 1, degraded: true},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			p, err := Parse(tc.label)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.label, err)
			}
			if p.Kind != tc.kind {
				t.Fatalf("expected kind %d, got %d", tc.kind, p.Kind)
			}
			if tc.kind == KindEveryNDays && p.Days != tc.days {
				t.Fatalf("expected %d days, got %d", tc.days, p.Days)
			}
			if p.Degraded != tc.degraded {
				t.Fatalf("expected degraded=%v, got %v", tc.degraded, p.Degraded)
			}
		})
	}

	t.Run("rejects unknown labels", func(t *testing.T) {
		for _, label := range []string{"", "   ", "hourly", "sometimes"} {
			if _, err := Parse(label); !errors.Is(err, ErrUnknownPeriodicity) {
				t.Fatalf("Parse(%q): expected ErrUnknownPeriodicity, got %v", label, err)
			}
		}
	})
}

func TestPeriodicity_Next(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		label string
		want  time.Time
	}{
		{"Daily", time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)},
		{"Weekly", time.Date(2024, time.February, 7, 0, 0, 0, 0, time.UTC)},
		{"Biweekly", time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)},
		{"Monthly", time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)},
		{"Bimonthly", time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)},
		{"Quarterly", time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)},
		{"Semiannual", time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC)},
		{"Annual", time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)},
		{"Every 3 days", time.Date(2024, time.February, 3, 0, 0, 0, 0, time.UTC)},
		{"Every ? days", time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		got, err := NextOccurrence(base, tc.label)
		if err != nil {
			t.Fatalf("NextOccurrence(%q) returned error: %v", tc.label, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("NextOccurrence(%q) = %s, want %s", tc.label, got.Format(time.DateOnly), tc.want.Format(time.DateOnly))
		}
	}
}

func TestPeriodicity_NextIsStrictlyLater(t *testing.T) {
	t.Parallel()

	labels := []string{"Daily", "Weekly", "Biweekly", "Monthly", "Bimonthly", "Quarterly", "Semiannual", "Annual", "Every 1 day", "Every 45 days", "Every zero days"}
	start := time.Date(2023, time.December, 25, 0, 0, 0, 0, time.UTC)

	for _, label := range labels {
		p := MustParse(label)
		for i := 0; i < 400; i++ {
			date := start.AddDate(0, 0, i)
			if next := p.Next(date); !next.After(date) {
				t.Fatalf("%s: Next(%s) = %s is not after the input", label, date.Format(time.DateOnly), next.Format(time.DateOnly))
			}
		}
	}

	if next := (Periodicity{}).Next(start); !next.After(start) {
		t.Fatalf("zero periodicity must still advance, got %s", next)
	}
}
