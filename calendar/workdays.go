package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// WEEKEND POLICY
// =============================================================================

// WeekendPolicy is the set of weekdays on which the site does not work.
type WeekendPolicy map[time.Weekday]bool

var (
	WeekendSatSun = WeekendPolicy{time.Saturday: true, time.Sunday: true}
	WeekendFri    = WeekendPolicy{time.Friday: true}
	WeekendFriSat = WeekendPolicy{time.Friday: true, time.Saturday: true}
)

// ParseWeekend accepts "sat-sun", "fri", "fri-sat" and "none".
func ParseWeekend(s string) (WeekendPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sat-sun":
		return WeekendSatSun, nil
	case "fri":
		return WeekendFri, nil
	case "fri-sat":
		return WeekendFriSat, nil
	case "none":
		return WeekendPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown weekend policy %q", s)
	}
}

func (w WeekendPolicy) IsWeekend(d Date) bool {
	return w[d.Weekday()]
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a non-working day. An empty ProjectID marks a global holiday.
type Holiday struct {
	ID        string
	ProjectID string
	Date      Date
	Name      string
	Recurring bool // same month/day every year
}

func (h Holiday) matches(projectID string, d Date) bool {
	if h.ProjectID != "" && h.ProjectID != projectID {
		return false
	}
	if h.Recurring {
		return h.Date.Month() == d.Month() && h.Date.Day() == d.Day()
	}
	return h.Date.Equal(d)
}

// HolidayCalendar provides holiday lookup. Implementations check
// project-specific holidays and global holidays.
type HolidayCalendar interface {
	IsHoliday(projectID string, d Date) bool
}

// StaticCalendar is an in-memory HolidayCalendar.
type StaticCalendar struct {
	mu       sync.RWMutex
	holidays []Holiday
}

func NewStaticCalendar(holidays ...Holiday) *StaticCalendar {
	return &StaticCalendar{holidays: append([]Holiday(nil), holidays...)}
}

func (c *StaticCalendar) Add(h Holiday) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holidays = append(c.holidays, h)
}

func (c *StaticCalendar) IsHoliday(projectID string, d Date) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.holidays {
		if h.matches(projectID, d) {
			return true
		}
	}
	return false
}

// =============================================================================
// WORKDAYS
// =============================================================================

// Workdays lists the working days of r in ascending order. A nil calendar
// means no holidays; a nil weekend policy means Saturday and Sunday.
func Workdays(r Range, cal HolidayCalendar, projectID string, weekend WeekendPolicy) ([]Date, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if weekend == nil {
		weekend = WeekendSatSun
	}

	var days []Date
	for _, d := range r.Days() {
		if weekend.IsWeekend(d) {
			continue
		}
		if cal != nil && cal.IsHoliday(projectID, d) {
			continue
		}
		days = append(days, d)
	}
	return days, nil
}
