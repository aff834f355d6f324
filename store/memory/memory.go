// Package memory provides an in-memory kpi.Store for tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/kpi-engine/kpi"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu         sync.RWMutex
	activities map[string]kpi.Activity
	planned    map[string][]kpi.Record
	actual     map[string][]kpi.Record
}

func New() *Store {
	return &Store{
		activities: make(map[string]kpi.Activity),
		planned:    make(map[string][]kpi.Record),
		actual:     make(map[string][]kpi.Record),
	}
}

func (m *Store) SaveActivity(_ context.Context, a kpi.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[a.ID] = a
	return nil
}

func (m *Store) GetActivity(_ context.Context, id string) (kpi.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[id]
	if !ok {
		return kpi.Activity{}, kpi.ErrActivityNotFound
	}
	return a, nil
}

// ReplacePlanned swaps the slice under the write lock, so readers see either
// the old plan or the new one.
func (m *Store) ReplacePlanned(_ context.Context, activityID string, records []kpi.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planned[activityID] = append([]kpi.Record(nil), records...)
	return nil
}

// SavePlan writes the activity and its planned records under one lock.
func (m *Store) SavePlan(_ context.Context, a kpi.Activity, planned []kpi.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[a.ID] = a
	m.planned[a.ID] = append([]kpi.Record(nil), planned...)
	return nil
}

func (m *Store) AppendActual(_ context.Context, r kpi.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.actual[r.ActivityID]
	// Binary search for insertion point keeps the slice date-ordered.
	i := sort.Search(len(rows), func(i int) bool {
		return rows[i].Date.After(r.Date)
	})
	rows = append(rows, kpi.Record{})
	copy(rows[i+1:], rows[i:])
	rows[i] = r
	m.actual[r.ActivityID] = rows
	return nil
}

func (m *Store) ListRecords(_ context.Context, activityID string, kind kpi.Kind) ([]kpi.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []kpi.Record
	if kind == "" || kind == kpi.KindPlanned {
		result = append(result, m.planned[activityID]...)
	}
	if kind == "" || kind == kpi.KindActual {
		result = append(result, m.actual[activityID]...)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Kind > result[j].Kind // planned before actual
	})
	return result, nil
}
