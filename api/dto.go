/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model (decimal quantities, calendar.Date) from the
  external API contract (plain numbers, "YYYY-MM-DD" strings).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the kpi package, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/calendar"
	"github.com/warp/kpi-engine/kpi"
)

// =============================================================================
// DISTRIBUTION / WORKDAYS
// =============================================================================

// DistributeRequest takes total as a JSON number or numeric string; it is
// decoded exactly, with no float64 step.
type DistributeRequest struct {
	Total decimal.Decimal `json:"total"`
	Days  int             `json:"days"`
}

// DistributeDTO writes quantities as exact JSON numbers.
type DistributeDTO struct {
	Total      json.Number   `json:"total"`
	Days       int           `json:"days"`
	Allocation []json.Number `json:"allocation"`
}

type WorkdaysRequest struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	ProjectID string `json:"project_id"`
}

type WorkdaysDTO struct {
	Count int      `json:"count"`
	Dates []string `json:"dates"`
}

// =============================================================================
// ACTIVITIES / KPI RECORDS
// =============================================================================

// ActivityRequest is the body of PUT /api/activities/{id}.
type ActivityRequest struct {
	ProjectID    string          `json:"project_id"`
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	PlannedUnits decimal.Decimal `json:"planned_units"`
	Rate         decimal.Decimal `json:"rate"`
	PlannedStart string          `json:"planned_start"`
	PlannedEnd   string          `json:"planned_end"`
}

type ActivityDTO struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	Unit         string  `json:"unit"`
	PlannedUnits float64 `json:"planned_units"`
	Rate         float64 `json:"rate"`
	PlannedStart string  `json:"planned_start"`
	PlannedEnd   string  `json:"planned_end"`
}

type SyncActivityDTO struct {
	Activity ActivityDTO `json:"activity"`
	Planned  []RecordDTO `json:"planned"`
}

type RecordDTO struct {
	ID         string  `json:"id"`
	ActivityID string  `json:"activity_id"`
	Date       string  `json:"date"`
	Kind       string  `json:"kind"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Note       string  `json:"note,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type RecordActualRequest struct {
	Date     string          `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
	Note     string          `json:"note"`
}

type PerformanceDTO struct {
	AsOf            string   `json:"as_of"`
	PlannedTotal    float64  `json:"planned_total"`
	PlannedToDate   float64  `json:"planned_to_date"`
	ActualToDate    float64  `json:"actual_to_date"`
	PercentComplete float64  `json:"percent_complete"`
	PlannedValue    float64  `json:"planned_value"`
	EarnedValue     float64  `json:"earned_value"`
	ActualCost      float64  `json:"actual_cost"`
	SPI             *float64 `json:"spi"`
	CPI             *float64 `json:"cpi"`
}

type BucketDTO struct {
	Start   string  `json:"start"`
	Planned float64 `json:"planned"`
	Actual  float64 `json:"actual"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id,omitempty"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toActivityDTO(a kpi.Activity) ActivityDTO {
	return ActivityDTO{
		ID:           a.ID,
		ProjectID:    a.ProjectID,
		Code:         a.Code,
		Description:  a.Description,
		Unit:         a.Unit,
		PlannedUnits: a.PlannedUnits.InexactFloat64(),
		Rate:         a.Rate.InexactFloat64(),
		PlannedStart: a.PlannedStart.String(),
		PlannedEnd:   a.PlannedEnd.String(),
	}
}

func toRecordDTOs(records []kpi.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i, r := range records {
		dtos[i] = RecordDTO{
			ID:         r.ID,
			ActivityID: r.ActivityID,
			Date:       r.Date.String(),
			Kind:       string(r.Kind),
			Quantity:   r.Quantity.InexactFloat64(),
			Unit:       r.Unit,
			Note:       r.Note,
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

func toPerformanceDTO(p kpi.Performance) PerformanceDTO {
	return PerformanceDTO{
		AsOf:            p.AsOf.String(),
		PlannedTotal:    p.PlannedTotal.InexactFloat64(),
		PlannedToDate:   p.PlannedToDate.InexactFloat64(),
		ActualToDate:    p.ActualToDate.InexactFloat64(),
		PercentComplete: p.PercentComplete.InexactFloat64(),
		PlannedValue:    p.PlannedValue.InexactFloat64(),
		EarnedValue:     p.EarnedValue.InexactFloat64(),
		ActualCost:      p.ActualCost.InexactFloat64(),
		SPI:             floatPtr(p.SPI),
		CPI:             floatPtr(p.CPI),
	}
}

func toHolidayDTO(h calendar.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		ProjectID: h.ProjectID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
