/*
handlers.go - HTTP API handlers for KPI planning

PURPOSE:
  Exposes quantity distribution, workday enumeration and activity KPI
  generation via REST. Handles HTTP request/response and JSON, and delegates
  to the distribution, calendar and kpi packages.

ENDPOINTS:
  Tools:
    POST   /api/distribute                      Preview a per-day allocation
    POST   /api/workdays                        List workdays in a range

  Activities:
    PUT    /api/activities/{id}                 Create/edit activity, regenerate planned KPIs
    GET    /api/activities/{id}                 Activity details
    GET    /api/activities/{id}/kpis?kind=      KPI records (planned, actual or both)
    POST   /api/activities/{id}/actuals         Log an actual quantity
    GET    /api/activities/{id}/performance     Progress, SPI, CPI (?as_of=&actual_cost=)
    GET    /api/activities/{id}/buckets         Weekly/monthly totals (?granularity=)

  Holidays:
    GET    /api/holidays?project_id=            Project + global holidays
    POST   /api/holidays                        Add holiday
    DELETE /api/holidays/{id}                   Remove holiday

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, zero-workday ranges
  - 404: Activity not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. Deploy behind the application gateway.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/calendar"
	"github.com/warp/kpi-engine/distribution"
	"github.com/warp/kpi-engine/kpi"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HolidayStore manages the persistent holiday calendar.
type HolidayStore interface {
	calendar.HolidayCalendar
	// SaveHoliday returns the holiday as stored; an existing entry for the
	// same project, date and name keeps its ID.
	SaveHoliday(ctx context.Context, h calendar.Holiday) (calendar.Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
	ListHolidays(ctx context.Context, projectID string) ([]calendar.Holiday, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *kpi.Service
	Holidays HolidayStore
	Weekend  calendar.WeekendPolicy
	Log      *zap.Logger
}

func NewHandler(svc *kpi.Service, holidays HolidayStore, weekend calendar.WeekendPolicy, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: svc, Holidays: holidays, Weekend: weekend, Log: log}
}

// =============================================================================
// TOOLS
// =============================================================================

// Distribute previews the per-day split of a quantity.
// POST /api/distribute
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	var req DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	allocation, err := distribution.DistributeDecimal(req.Total, req.Days)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cannot distribute quantity", err)
		return
	}

	parts := make([]json.Number, len(allocation))
	for i, q := range allocation {
		parts[i] = json.Number(q.String())
	}
	writeJSON(w, http.StatusOK, DistributeDTO{Total: json.Number(req.Total.String()), Days: req.Days, Allocation: parts})
}

// Workdays lists working days between two dates.
// POST /api/workdays
func (h *Handler) Workdays(w http.ResponseWriter, r *http.Request) {
	var req WorkdaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rng, err := parseRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	days, err := calendar.Workdays(rng, h.Holidays, req.ProjectID, h.Weekend)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range", err)
		return
	}

	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.String()
	}
	writeJSON(w, http.StatusOK, WorkdaysDTO{Count: len(dates), Dates: dates})
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

// PutActivity creates or edits an activity and regenerates its planned KPIs.
// PUT /api/activities/{id}
func (h *Handler) PutActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rng, err := parseRange(req.PlannedStart, req.PlannedEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid planned dates (use YYYY-MM-DD)", err)
		return
	}

	a := kpi.Activity{
		ID:           chi.URLParam(r, "id"),
		ProjectID:    req.ProjectID,
		Code:         req.Code,
		Description:  req.Description,
		Unit:         req.Unit,
		PlannedUnits: req.PlannedUnits,
		Rate:         req.Rate,
		PlannedStart: rng.Start,
		PlannedEnd:   rng.End,
	}

	records, err := h.Service.SyncActivity(r.Context(), a)
	if err != nil {
		h.writeDomainError(w, "Cannot generate KPIs for activity", err)
		return
	}

	writeJSON(w, http.StatusOK, SyncActivityDTO{
		Activity: toActivityDTO(a),
		Planned:  toRecordDTOs(records),
	})
}

// GetActivity returns a single activity.
// GET /api/activities/{id}
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Activity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get activity", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(a))
}

// ListKPIs returns an activity's KPI records.
// GET /api/activities/{id}/kpis?kind=planned|actual
func (h *Handler) ListKPIs(w http.ResponseWriter, r *http.Request) {
	kind := kpi.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid kind (use planned or actual)", nil)
		return
	}

	records, err := h.Service.Records(r.Context(), chi.URLParam(r, "id"), kind)
	if err != nil {
		h.writeDomainError(w, "Failed to list KPI records", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// RecordActual logs an actual quantity for a day.
// POST /api/activities/{id}/actuals
func (h *Handler) RecordActual(w http.ResponseWriter, r *http.Request) {
	var req RecordActualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	rec, err := h.Service.RecordActual(r.Context(), chi.URLParam(r, "id"), day, req.Quantity, req.Note)
	if err != nil {
		h.writeDomainError(w, "Failed to record actual", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTOs([]kpi.Record{rec})[0])
}

// GetPerformance returns progress and earned-value ratios.
// GET /api/activities/{id}/performance?as_of=YYYY-MM-DD&actual_cost=N
func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	asOf := calendar.Today()
	if s := q.Get("as_of"); s != "" {
		d, err := calendar.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of (use YYYY-MM-DD)", err)
			return
		}
		asOf = d
	}

	actualCost := decimal.Zero
	if s := q.Get("actual_cost"); s != "" {
		c, err := decimal.NewFromString(s)
		if err != nil || c.IsNegative() {
			writeError(w, http.StatusBadRequest, "Invalid actual_cost", err)
			return
		}
		actualCost = c
	}

	perf, err := h.Service.Performance(r.Context(), chi.URLParam(r, "id"), asOf, actualCost)
	if err != nil {
		h.writeDomainError(w, "Failed to compute performance", err)
		return
	}
	writeJSON(w, http.StatusOK, toPerformanceDTO(perf))
}

// GetBuckets returns planned/actual totals per week or month.
// GET /api/activities/{id}/buckets?granularity=week|month
func (h *Handler) GetBuckets(w http.ResponseWriter, r *http.Request) {
	g, err := kpi.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid granularity (use week or month)", err)
		return
	}

	buckets, err := h.Service.Buckets(r.Context(), chi.URLParam(r, "id"), g)
	if err != nil {
		h.writeDomainError(w, "Failed to bucket KPI records", err)
		return
	}

	dtos := make([]BucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = BucketDTO{
			Start:   b.Start.String(),
			Planned: b.Planned.InexactFloat64(),
			Actual:  b.Actual.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns project and global holidays.
// GET /api/holidays?project_id=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Holidays.ListHolidays(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday. Planned KPIs already generated are not
// rewritten; the next activity edit picks the holiday up.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	day, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	hol := calendar.Holiday{
		ID:        req.ID,
		ProjectID: req.ProjectID,
		Date:      day,
		Name:      req.Name,
		Recurring: req.Recurring,
	}
	if hol.ID == "" {
		hol.ID = uuid.NewString()
	}

	saved, err := h.Holidays.SaveHoliday(r.Context(), hol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(saved))
}

// DeleteHoliday removes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Holidays.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseRange(start, end string) (calendar.Range, error) {
	s, err := calendar.ParseDate(start)
	if err != nil {
		return calendar.Range{}, err
	}
	e, err := calendar.ParseDate(end)
	if err != nil {
		return calendar.Range{}, err
	}
	return calendar.Range{Start: s, End: e}, nil
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case kpi.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Activity not found", err)
	case kpi.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
