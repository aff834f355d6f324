package kpi

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/calendar"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// PROGRESS
// =============================================================================

// Progress compares planned and actual quantities up to a date.
type Progress struct {
	AsOf            calendar.Date
	PlannedTotal    decimal.Decimal
	PlannedToDate   decimal.Decimal
	ActualToDate    decimal.Decimal
	PercentComplete decimal.Decimal // ActualToDate / PlannedTotal, 0 when nothing is planned
}

// ComputeProgress sums records dated on or before asOf.
func ComputeProgress(a Activity, records []Record, asOf calendar.Date) Progress {
	p := Progress{
		AsOf:          asOf,
		PlannedTotal:  a.PlannedUnits,
		PlannedToDate: decimal.Zero,
		ActualToDate:  decimal.Zero,
	}
	for _, r := range records {
		if r.Date.After(asOf) {
			continue
		}
		switch r.Kind {
		case KindPlanned:
			p.PlannedToDate = p.PlannedToDate.Add(r.Quantity)
		case KindActual:
			p.ActualToDate = p.ActualToDate.Add(r.Quantity)
		}
	}

	p.PercentComplete = decimal.Zero
	if a.PlannedUnits.IsPositive() {
		p.PercentComplete = p.ActualToDate.Div(a.PlannedUnits).Mul(hundred).Round(2)
	}
	return p
}

// =============================================================================
// EARNED VALUE
// =============================================================================

// Performance holds earned-value figures for one activity.
//
//	PV  = planned-to-date × rate
//	EV  = actual-to-date × rate
//	SPI = EV / PV
//	CPI = EV / AC
//
// A ratio is nil when its denominator is zero.
type Performance struct {
	Progress
	PlannedValue decimal.Decimal
	EarnedValue  decimal.Decimal
	ActualCost   decimal.Decimal
	SPI          *decimal.Decimal
	CPI          *decimal.Decimal
}

func Evaluate(a Activity, records []Record, asOf calendar.Date, actualCost decimal.Decimal) Performance {
	progress := ComputeProgress(a, records, asOf)
	perf := Performance{
		Progress:     progress,
		PlannedValue: progress.PlannedToDate.Mul(a.Rate),
		EarnedValue:  progress.ActualToDate.Mul(a.Rate),
		ActualCost:   actualCost,
	}
	perf.SPI = ratio(perf.EarnedValue, perf.PlannedValue)
	perf.CPI = ratio(perf.EarnedValue, perf.ActualCost)
	return perf
}

func ratio(num, den decimal.Decimal) *decimal.Decimal {
	if den.IsZero() {
		return nil
	}
	r := num.Div(den).Round(4)
	return &r
}

// =============================================================================
// BUCKETING
// =============================================================================

type Granularity string

const (
	GranularityWeek  Granularity = "week" // Monday start
	GranularityMonth Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case GranularityWeek, GranularityMonth:
		return g, nil
	case "":
		return GranularityWeek, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

// BucketTotal sums planned and actual quantities for one period.
type BucketTotal struct {
	Start   calendar.Date
	Planned decimal.Decimal
	Actual  decimal.Decimal
}

// Bucket groups records by week or month, ordered by bucket start. Empty
// periods are omitted.
func Bucket(records []Record, g Granularity) ([]BucketTotal, error) {
	var startOf func(calendar.Date) calendar.Date
	switch g {
	case GranularityWeek:
		startOf = calendar.Date.StartOfWeek
	case GranularityMonth:
		startOf = calendar.Date.StartOfMonth
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}

	index := make(map[string]int)
	var buckets []BucketTotal
	for _, r := range records {
		start := startOf(r.Date)
		i, ok := index[start.String()]
		if !ok {
			i = len(buckets)
			index[start.String()] = i
			buckets = append(buckets, BucketTotal{Start: start, Planned: decimal.Zero, Actual: decimal.Zero})
		}
		switch r.Kind {
		case KindPlanned:
			buckets[i].Planned = buckets[i].Planned.Add(r.Quantity)
		case KindActual:
			buckets[i].Actual = buckets[i].Actual.Add(r.Quantity)
		}
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Start.Before(buckets[j].Start) })
	return buckets, nil
}
