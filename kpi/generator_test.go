package kpi_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/kpi-engine/calendar"
	"github.com/warp/kpi-engine/distribution"
	"github.com/warp/kpi-engine/kpi"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fixedNow = time.Date(2025, time.February, 20, 9, 0, 0, 0, time.UTC)

func newTestGenerator(cal calendar.HolidayCalendar) *kpi.Generator {
	n := 0
	return &kpi.Generator{
		Calendar: cal,
		NewID: func() string {
			n++
			return fmt.Sprintf("kpi-%d", n)
		},
		Now: func() time.Time { return fixedNow },
	}
}

// excavation spans Mon 2025-03-03 to Tue 2025-03-11: seven Sat/Sun workdays.
func excavation(units int64) kpi.Activity {
	return kpi.Activity{
		ID:           "act-1",
		ProjectID:    "proj-1",
		Code:         "EXC-01",
		Description:  "Bulk excavation",
		Unit:         "m3",
		PlannedUnits: decimal.NewFromInt(units),
		Rate:         decimal.NewFromInt(12),
		PlannedStart: calendar.NewDate(2025, time.March, 3),
		PlannedEnd:   calendar.NewDate(2025, time.March, 11),
	}
}

func quantities(records []kpi.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Quantity.String()
	}
	return out
}

// =============================================================================
// PLAN
// =============================================================================

func TestPlan_SpreadsUnitsOverWorkdays(t *testing.T) {
	// GIVEN: 100 m3 over 7 workdays
	// WHEN: Planning
	// THEN: First two workdays carry the remainder

	records, err := newTestGenerator(nil).Plan(excavation(100))
	require.NoError(t, err)

	assert.Equal(t, []string{"15", "15", "14", "14", "14", "14", "14"}, quantities(records))

	wantDays := []string{"2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06", "2025-03-07", "2025-03-10", "2025-03-11"}
	for i, r := range records {
		assert.Equal(t, wantDays[i], r.Date.String())
		assert.Equal(t, kpi.KindPlanned, r.Kind)
		assert.Equal(t, "act-1", r.ActivityID)
		assert.Equal(t, "proj-1", r.ProjectID)
		assert.Equal(t, "m3", r.Unit)
		assert.Equal(t, fmt.Sprintf("kpi-%d", i+1), r.ID)
		assert.Equal(t, fixedNow, r.CreatedAt)
	}
}

func TestPlan_SumMatchesPlannedUnits(t *testing.T) {
	for _, units := range []int64{0, 1, 6, 7, 8, 99, 1000, 123457} {
		records, err := newTestGenerator(nil).Plan(excavation(units))
		require.NoError(t, err)

		sum := decimal.Zero
		for _, r := range records {
			sum = sum.Add(r.Quantity)
		}
		assert.True(t, sum.Equal(decimal.NewFromInt(units)), "units %d summed to %s", units, sum)
	}
}

func TestPlan_HolidayShiftsRemainder(t *testing.T) {
	// GIVEN: Mar 3 is a project holiday, leaving 6 workdays
	cal := calendar.NewStaticCalendar(calendar.Holiday{
		ID: "h1", ProjectID: "proj-1", Date: calendar.NewDate(2025, time.March, 3), Name: "Site inspection",
	})

	records, err := newTestGenerator(cal).Plan(excavation(100))
	require.NoError(t, err)

	require.Len(t, records, 6)
	assert.Equal(t, "2025-03-04", records[0].Date.String())
	assert.Equal(t, []string{"17", "17", "17", "17", "16", "16"}, quantities(records))
}

func TestPlan_NoWorkdays(t *testing.T) {
	// GIVEN: A weekend-only planned range
	a := excavation(40)
	a.PlannedStart = calendar.NewDate(2025, time.March, 8)
	a.PlannedEnd = calendar.NewDate(2025, time.March, 9)

	_, err := newTestGenerator(nil).Plan(a)

	assert.ErrorIs(t, err, kpi.ErrNoWorkdays)
	assert.True(t, kpi.IsClientError(err))
	var genErr *kpi.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "act-1", genErr.ActivityID)
}

func TestPlan_EndBeforeStart(t *testing.T) {
	a := excavation(40)
	a.PlannedEnd = a.PlannedStart.AddDays(-1)

	_, err := newTestGenerator(nil).Plan(a)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
	assert.True(t, kpi.IsClientError(err))
}

func TestPlan_FractionalUnitsRejected(t *testing.T) {
	a := excavation(0)
	a.PlannedUnits = decimal.RequireFromString("12.5")

	_, err := newTestGenerator(nil).Plan(a)
	assert.ErrorIs(t, err, distribution.ErrNonIntegralQuantity)
	assert.True(t, kpi.IsClientError(err))
}

func TestPlan_InvalidActivity(t *testing.T) {
	a := excavation(10)
	a.ID = ""
	_, err := newTestGenerator(nil).Plan(a)
	assert.ErrorIs(t, err, kpi.ErrInvalidActivity)

	a = excavation(10)
	a.PlannedUnits = decimal.NewFromInt(-5)
	_, err = newTestGenerator(nil).Plan(a)
	var ve *kpi.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "planned_units", ve.Field)
}

func TestNewGenerator_DefaultIDs(t *testing.T) {
	g := kpi.NewGenerator(nil, calendar.WeekendFri)

	records, err := g.Plan(excavation(9))
	require.NoError(t, err)

	// Friday weekend: Mar 3-11 minus Fri Mar 7 = 8 workdays
	require.Len(t, records, 8)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, []string{"2", "1", "1", "1", "1", "1", "1", "1"}, quantities(records))
}
