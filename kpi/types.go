/*
Package kpi turns BOQ activities into per-day KPI records.

PURPOSE:
  A BOQ (Bill of Quantities) activity carries planned units and a planned
  date range. Whenever the activity is created or edited, its planned units
  are spread over the workdays of that range, one planned KPI record per
  workday. Site engineers later log actual quantities against the same
  activity, and the planned/actual pair drives progress and earned-value
  reporting.

KEY CONCEPTS IN THIS FILE (types.go):
  - Activity: A BOQ line item (planned units, rate, planned dates)
  - Record:   One KPI row, planned or actual, for one day
  - Store:    Persistence contract implemented by store/sqlite and store/memory

LIFECYCLE:
  create/edit activity ──▶ Generator.Plan ──▶ Store.SavePlan
                                                  (activity upserted, old
                                                   planned rows dropped)
  site log            ──▶ Service.RecordActual ──▶ Store.AppendActual

SEE ALSO:
  - generator.go: Planned record generation
  - progress.go: Progress, SPI/CPI and bucketing
  - service.go: Orchestration
*/
package kpi

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/calendar"
)

// =============================================================================
// ACTIVITY
// =============================================================================

// Activity is a BOQ line item.
type Activity struct {
	ID           string
	ProjectID    string
	Code         string
	Description  string
	Unit         string          // e.g. "m3", "m2", "ton"
	PlannedUnits decimal.Decimal // whole units
	Rate         decimal.Decimal // cost per unit
	PlannedStart calendar.Date
	PlannedEnd   calendar.Date
}

func (a Activity) PlannedRange() calendar.Range {
	return calendar.Range{Start: a.PlannedStart, End: a.PlannedEnd}
}

// Validate checks the fields KPI generation depends on.
func (a Activity) Validate() error {
	switch {
	case a.ID == "":
		return &ValidationError{Field: "id", Message: "required"}
	case a.PlannedStart.IsZero() || a.PlannedEnd.IsZero():
		return &ValidationError{Field: "planned_dates", Message: "start and end are required"}
	case a.PlannedUnits.IsNegative():
		return &ValidationError{Field: "planned_units", Message: "must not be negative"}
	case a.Rate.IsNegative():
		return &ValidationError{Field: "rate", Message: "must not be negative"}
	}
	return nil
}

// =============================================================================
// RECORD
// =============================================================================

type Kind string

const (
	KindPlanned Kind = "planned"
	KindActual  Kind = "actual"
)

func (k Kind) Valid() bool {
	return k == KindPlanned || k == KindActual
}

// Record is one KPI row for one day.
type Record struct {
	ID         string
	ActivityID string
	ProjectID  string
	Date       calendar.Date
	Kind       Kind
	Quantity   decimal.Decimal
	Unit       string
	Note       string
	CreatedAt  time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store persists activities and their KPI records.
type Store interface {
	SaveActivity(ctx context.Context, a Activity) error

	// GetActivity returns ErrActivityNotFound when id is unknown.
	GetActivity(ctx context.Context, id string) (Activity, error)

	// ReplacePlanned atomically swaps every planned record of the activity
	// for records. Actual records are untouched.
	ReplacePlanned(ctx context.Context, activityID string, records []Record) error

	// SavePlan upserts the activity and replaces its planned records as one
	// write. Concurrent SavePlan calls for the same activity leave the stored
	// activity and planned records from the same call.
	SavePlan(ctx context.Context, a Activity, planned []Record) error

	AppendActual(ctx context.Context, r Record) error

	// ListRecords returns records ordered by date then kind. An empty kind
	// returns both kinds.
	ListRecords(ctx context.Context, activityID string, kind Kind) ([]Record, error)
}
