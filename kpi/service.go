package kpi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/calendar"
	"go.uber.org/zap"
)

// Service wires the generator to a Store. It is the entry point for BOQ
// create/edit events and for site logs.
type Service struct {
	store Store
	gen   *Generator
	log   *zap.Logger
}

func NewService(store Store, gen *Generator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, gen: gen, log: log}
}

// SyncActivity saves the activity and regenerates its planned records in a
// single store write. Nothing is written when generation fails.
func (s *Service) SyncActivity(ctx context.Context, a Activity) ([]Record, error) {
	records, err := s.gen.Plan(a)
	if err != nil {
		s.log.Warn("kpi generation skipped",
			zap.String("activity_id", a.ID),
			zap.String("range", a.PlannedRange().String()),
			zap.Error(err))
		return nil, err
	}

	if err := s.store.SavePlan(ctx, a, records); err != nil {
		return nil, fmt.Errorf("save plan for activity %s: %w", a.ID, err)
	}

	s.log.Info("planned kpis generated",
		zap.String("activity_id", a.ID),
		zap.String("planned_units", a.PlannedUnits.String()),
		zap.Int("workdays", len(records)))
	return records, nil
}

// RecordActual logs an actual quantity for one day.
func (s *Service) RecordActual(ctx context.Context, activityID string, day calendar.Date, qty decimal.Decimal, note string) (Record, error) {
	if qty.IsNegative() {
		return Record{}, fmt.Errorf("%w: %s", ErrNegativeActual, qty)
	}
	a, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		ID:         uuid.NewString(),
		ActivityID: a.ID,
		ProjectID:  a.ProjectID,
		Date:       day,
		Kind:       KindActual,
		Quantity:   qty,
		Unit:       a.Unit,
		Note:       note,
		CreatedAt:  s.now(),
	}
	if err := s.store.AppendActual(ctx, r); err != nil {
		return Record{}, fmt.Errorf("append actual for %s: %w", activityID, err)
	}

	s.log.Debug("actual recorded",
		zap.String("activity_id", activityID),
		zap.Stringer("date", day),
		zap.String("quantity", qty.String()))
	return r, nil
}

func (s *Service) Activity(ctx context.Context, id string) (Activity, error) {
	return s.store.GetActivity(ctx, id)
}

func (s *Service) Records(ctx context.Context, activityID string, kind Kind) ([]Record, error) {
	if _, err := s.store.GetActivity(ctx, activityID); err != nil {
		return nil, err
	}
	return s.store.ListRecords(ctx, activityID, kind)
}

func (s *Service) Performance(ctx context.Context, activityID string, asOf calendar.Date, actualCost decimal.Decimal) (Performance, error) {
	a, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		return Performance{}, err
	}
	records, err := s.store.ListRecords(ctx, activityID, "")
	if err != nil {
		return Performance{}, err
	}
	return Evaluate(a, records, asOf, actualCost), nil
}

func (s *Service) Buckets(ctx context.Context, activityID string, g Granularity) ([]BucketTotal, error) {
	records, err := s.Records(ctx, activityID, "")
	if err != nil {
		return nil, err
	}
	return Bucket(records, g)
}

func (s *Service) now() time.Time {
	if s.gen != nil && s.gen.Now != nil {
		return s.gen.Now().UTC()
	}
	return time.Now().UTC()
}
