package core

import (
	"encoding/json"
	"time"
)

// DateLayout is the ISO calendar-date format used on every boundary.
const DateLayout = "2006-01-02"

// MonthLayout is the year-month key format.
const MonthLayout = "2006-01"

// Date is a calendar date without time of day. The wrapped time is always
// midnight UTC so that day/week/month arithmetic never shifts across zones.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date shown by t's own clock.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the local wall-clock date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, NewValidationError("date", "must be YYYY-MM-DD")
	}
	return Date{Time: t}, nil
}

// ParseMonth accepts either YYYY-MM or a full YYYY-MM-DD date and returns the
// first day of that month.
func ParseMonth(s string) (Date, error) {
	if t, err := time.Parse(MonthLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, NewValidationError("month", "must be YYYY-MM or YYYY-MM-DD")
	}
	return d.MonthStart(), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return NewValidationError("date", "cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// NextMonthStart returns the first day of the month after d's.
func (d Date) NextMonthStart() Date {
	return NewDate(d.Year(), d.Month()+1, 1)
}

// IsMonthStart reports whether d is the first day of its month.
func (d Date) IsMonthStart() bool {
	return !d.IsZero() && d.Day() == 1
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Equal reports whether both values denote the same calendar date.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// String returns YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns YYYY-MM.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewValidationError("date", "must be a YYYY-MM-DD string")
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
