package core

import (
	"fmt"
	"strings"
	"time"
)

// Granularity selects the width of a reporting period.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity accepts day, week or month in any case.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", NewValidationError("granularity", fmt.Sprintf("unknown granularity %q", s))
	}
}

// Period is an inclusive calendar-date range.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d lies within [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days is the number of calendar days covered.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start.Time)/(24*time.Hour)) + 1
}

func (p Period) String() string {
	return p.Start.String() + ".." + p.End.String()
}

// PeriodFor returns the period of granularity g containing ref. Weeks start
// on Sunday.
func PeriodFor(ref Date, g Granularity) (Period, error) {
	if ref.IsZero() {
		return Period{}, NewValidationError("date", "reference date is required")
	}
	switch g {
	case GranularityDay:
		return Period{Start: ref, End: ref}, nil
	case GranularityWeek:
		start := ref.AddDays(-int(ref.Weekday()))
		return Period{Start: start, End: start.AddDays(6)}, nil
	case GranularityMonth:
		start := ref.MonthStart()
		return Period{Start: start, End: start.NextMonthStart().AddDays(-1)}, nil
	default:
		return Period{}, NewValidationError("granularity", fmt.Sprintf("unknown granularity %q", g))
	}
}

// MonthPeriod is the month containing d.
func MonthPeriod(d Date) Period {
	p, _ := PeriodFor(d, GranularityMonth)
	return p
}

// FilterByPeriod returns the transactions dated inside the period of
// granularity g around ref. Input order is kept and txs is not modified.
func FilterByPeriod(txs []TransactionWithCategory, ref Date, g Granularity) ([]TransactionWithCategory, error) {
	p, err := PeriodFor(ref, g)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionWithCategory, 0, len(txs))
	for _, tx := range txs {
		if p.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out, nil
}
