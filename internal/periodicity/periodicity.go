package periodicity

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the supported periodicity vocabulary.
type Kind int

const (
	// KindUnspecified indicates the periodicity has not been parsed.
	KindUnspecified Kind = iota
	// KindDaily advances one calendar day.
	KindDaily
	// KindWeekly advances seven days.
	KindWeekly
	// KindBiweekly advances fifteen days.
	KindBiweekly
	// KindMonthly advances one calendar month.
	KindMonthly
	// KindBimonthly advances two calendar months.
	KindBimonthly
	// KindQuarterly advances three calendar months.
	KindQuarterly
	// KindSemiannual advances six calendar months.
	KindSemiannual
	// KindAnnual advances one calendar year.
	KindAnnual
	// KindEveryNDays advances a custom number of days.
	KindEveryNDays
)

// ErrUnknownPeriodicity indicates a label outside the supported vocabulary.
var ErrUnknownPeriodicity = errors.New("periodicity: unknown label")

var namedKinds = map[string]Kind{
	"daily":       KindDaily,
	"weekly":      KindWeekly,
	"biweekly":    KindBiweekly,
	"bi-weekly":   KindBiweekly,
	"fortnightly": KindBiweekly,
	"monthly":     KindMonthly,
	"bimonthly":   KindBimonthly,
	"bi-monthly":  KindBimonthly,
	"quarterly":   KindQuarterly,
	"semiannual":  KindSemiannual,
	"semi-annual": KindSemiannual,
	"annual":      KindAnnual,
	"yearly":      KindAnnual,
}

var canonicalLabels = map[Kind]string{
	KindDaily:      "Daily",
	KindWeekly:     "Weekly",
	KindBiweekly:   "Biweekly",
	KindMonthly:    "Monthly",
	KindBimonthly:  "Bimonthly",
	KindQuarterly:  "Quarterly",
	KindSemiannual: "Semiannual",
	KindAnnual:     "Annual",
}

var customDays = regexp.MustCompile(`^every\s+(\S+)\s+days?$`)

// Periodicity is a parsed recurrence label.
type Periodicity struct {
	Kind Kind
	// Days is the step of the custom "every N days" form.
	Days  int
	Label string
	// Degraded marks a custom label whose day count could not be read; it advances daily.
	Degraded bool
}

// Parse resolves a label into a Periodicity. Named labels are matched
// case-insensitively. The custom form "every N days" falls back to a daily step
// (with Degraded set) when N is missing or not a positive integer.
func Parse(label string) (Periodicity, error) {
	trimmed := strings.TrimSpace(label)
	lower := strings.ToLower(strings.Join(strings.Fields(trimmed), " "))
	if lower == "" {
		return Periodicity{}, fmt.Errorf("%w: empty label", ErrUnknownPeriodicity)
	}

	if kind, ok := namedKinds[lower]; ok {
		return Periodicity{Kind: kind, Label: canonicalLabels[kind]}, nil
	}

	if !strings.HasPrefix(lower, "every") {
		return Periodicity{}, fmt.Errorf("%w: %q", ErrUnknownPeriodicity, trimmed)
	}

	p := Periodicity{Kind: KindEveryNDays, Days: 1, Label: trimmed, Degraded: true}
	if m := customDays.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			p.Days = n
			p.Degraded = false
			p.Label = fmt.Sprintf("Every %d days", n)
		}
	}
	return p, nil
}

// MustParse is Parse for labels known at compile time.
func MustParse(label string) Periodicity {
	p, err := Parse(label)
	if err != nil {
		panic(err)
	}
	return p
}

// Next returns the occurrence following date. The result is always strictly after date.
func (p Periodicity) Next(date time.Time) time.Time {
	switch p.Kind {
	case KindWeekly:
		return date.AddDate(0, 0, 7)
	case KindBiweekly:
		return date.AddDate(0, 0, 15)
	case KindMonthly:
		return date.AddDate(0, 1, 0)
	case KindBimonthly:
		return date.AddDate(0, 2, 0)
	case KindQuarterly:
		return date.AddDate(0, 3, 0)
	case KindSemiannual:
		return date.AddDate(0, 6, 0)
	case KindAnnual:
		return date.AddDate(1, 0, 0)
	case KindEveryNDays:
		if p.Days > 0 {
			return date.AddDate(0, 0, p.Days)
		}
	}
	return date.AddDate(0, 0, 1)
}

// String returns the canonical label.
func (p Periodicity) String() string {
	if p.Label != "" {
		return p.Label
	}
	if label, ok := canonicalLabels[p.Kind]; ok {
		return label
	}
	return "Daily"
}

// NextOccurrence parses label and advances date by it.
func NextOccurrence(date time.Time, label string) (time.Time, error) {
	p, err := Parse(label)
	if err != nil {
		return time.Time{}, err
	}
	return p.Next(date), nil
}
