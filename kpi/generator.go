package kpi

import (
	"time"

	"github.com/google/uuid"
	"github.com/warp/kpi-engine/calendar"
	"github.com/warp/kpi-engine/distribution"
)

// Generator builds planned KPI records for an activity.
type Generator struct {
	Calendar calendar.HolidayCalendar // nil means no holidays
	Weekend  calendar.WeekendPolicy   // nil means Saturday and Sunday
	NewID    func() string
	Now      func() time.Time
}

func NewGenerator(cal calendar.HolidayCalendar, weekend calendar.WeekendPolicy) *Generator {
	return &Generator{
		Calendar: cal,
		Weekend:  weekend,
		NewID:    uuid.NewString,
		Now:      time.Now,
	}
}

// Plan returns one planned record per workday of the activity's planned
// range, ordered by date. Record quantities sum exactly to PlannedUnits.
func (g *Generator) Plan(a Activity) ([]Record, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	r := a.PlannedRange()
	workdays, err := calendar.Workdays(r, g.Calendar, a.ProjectID, g.Weekend)
	if err != nil {
		return nil, &GenerationError{ActivityID: a.ID, Range: r, Err: err}
	}
	if len(workdays) == 0 {
		return nil, &GenerationError{ActivityID: a.ID, Range: r, Err: ErrNoWorkdays}
	}

	allocation, err := distribution.DistributeDecimal(a.PlannedUnits, len(workdays))
	if err != nil {
		return nil, &GenerationError{ActivityID: a.ID, Range: r, Err: err}
	}

	newID, now := g.NewID, g.Now
	if newID == nil {
		newID = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	created := now().UTC()

	records := make([]Record, len(workdays))
	for i, day := range workdays {
		records[i] = Record{
			ID:         newID(),
			ActivityID: a.ID,
			ProjectID:  a.ProjectID,
			Date:       day,
			Kind:       KindPlanned,
			Quantity:   allocation[i],
			Unit:       a.Unit,
			CreatedAt:  created,
		}
	}
	return records, nil
}
