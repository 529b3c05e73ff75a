package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil calendar date with no time zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// DateIn returns the calendar date of the instant t as seen in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	return DateOf(t.In(loc))
}

// NewDate normalises out-of-range values the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// ParseStoredDate reads the date column in either of its historical
// encodings: a plain YYYY-MM-DD, or an RFC 3339 instant written by older
// clients, which maps to its UTC calendar date.
func ParseStoredDate(s string) (Date, error) {
	if len(s) == len(dateLayout) {
		return ParseDate(s)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid stored date %q", s)
	}
	return DateOf(t.UTC()), nil
}

// MonthRange returns the first day of the month and the first day of the
// following month, i.e. the half-open range [start, end).
func MonthRange(year int, month time.Month) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month+1, 1)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseStoredDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthPeriod bounds a query to one calendar month.
type MonthPeriod struct {
	Year  int
	Month time.Month
}

// NewMonthPeriod validates a 1-based month number.
func NewMonthPeriod(year, month int) (MonthPeriod, error) {
	if month < 1 || month > 12 {
		return MonthPeriod{}, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1 || year > 9999 {
		return MonthPeriod{}, fmt.Errorf("year out of range: %d", year)
	}
	return MonthPeriod{Year: year, Month: time.Month(month)}, nil
}

func (p MonthPeriod) Range() (Date, Date) {
	return MonthRange(p.Year, p.Month)
}
