/*
Package calendar answers "which days can the site work?"

PURPOSE:
  KPI generation needs the ordered list of workdays between an activity's
  planned start and completion. This package owns day-granularity dates,
  inclusive ranges, weekend rules and the holiday lookup contract.

KEY CONCEPTS:
  - Date:            A calendar day in UTC, no time-of-day component
  - Range:           Inclusive [Start, End]
  - WeekendPolicy:   Which weekdays are non-working (site dependent)
  - HolidayCalendar: Project-specific and global holidays

SEE ALSO:
  - workdays.go: Workday enumeration
  - store/sqlite/holidays.go: Persistent HolidayCalendar
*/
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for dates.
const DateLayout = "2006-01-02"

// ErrInvalidRange is returned when a range ends before it starts or spans
// more than MaxRangeDays.
var ErrInvalidRange = errors.New("invalid range")

// MaxRangeDays caps the span of a Range, inclusive of both ends. Ten years
// covers any single activity; anything longer is a data-entry error.
const MaxRangeDays = 3660

const secondsPerDay = 24 * 60 * 60

// =============================================================================
// DATE
// =============================================================================

// Date is a calendar day. The zero value is the zero time.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Today() Date { return DateOf(time.Now()) }

func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }
func (d Date) AddDays(n int) Date        { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date      { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) Year() int                 { return d.t.Year() }
func (d Date) Month() time.Month         { return d.t.Month() }
func (d Date) Day() int                  { return d.t.Day() }
func (d Date) Weekday() time.Weekday     { return d.t.Weekday() }
func (d Date) Time() time.Time           { return d.t }
func (d Date) IsZero() bool              { return d.t.IsZero() }
func (d Date) String() string            { return d.t.Format(DateLayout) }

// StartOfWeek returns the Monday on or before d.
func (d Date) StartOfWeek() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

func (d Date) StartOfMonth() Date { return NewDate(d.Year(), d.Month(), 1) }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// RANGE
// =============================================================================

// Range is an inclusive span of days.
type Range struct {
	Start Date
	End   Date
}

func (r Range) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s ends before it starts", ErrInvalidRange, r)
	}
	if n := r.Len(); n > MaxRangeDays {
		return fmt.Errorf("%w: %s spans %d days, limit is %d", ErrInvalidRange, r, n, MaxRangeDays)
	}
	return nil
}

// Len is the number of calendar days in the range, 0 when End is before Start.
func (r Range) Len() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int((r.End.t.Unix()-r.Start.t.Unix())/secondsPerDay) + 1
}

func (r Range) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns every calendar day in the range, in order. Callers validate
// the range first.
func (r Range) Days() []Date {
	days := make([]Date, 0, r.Len())
	for current := r.Start; current.BeforeOrEqual(r.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
