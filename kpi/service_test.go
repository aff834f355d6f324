package kpi_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/kpi-engine/calendar"
	"github.com/warp/kpi-engine/kpi"
	"github.com/warp/kpi-engine/store/memory"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (*kpi.Service, *memory.Store) {
	store := memory.New()
	return kpi.NewService(store, newTestGenerator(nil), zaptest.NewLogger(t)), store
}

func TestSyncActivity_CreateThenEdit(t *testing.T) {
	// GIVEN: A new activity with 100 m3 over 7 workdays
	ctx := context.Background()
	svc, store := newTestService(t)

	records, err := svc.SyncActivity(ctx, excavation(100))
	require.NoError(t, err)
	assert.Len(t, records, 7)

	// WHEN: The activity is edited down to 50 m3 over 3 workdays
	edited := excavation(50)
	edited.PlannedEnd = calendar.NewDate(2025, time.March, 5)
	_, err = svc.SyncActivity(ctx, edited)
	require.NoError(t, err)

	// THEN: Only the new plan remains
	planned, err := store.ListRecords(ctx, "act-1", kpi.KindPlanned)
	require.NoError(t, err)
	assert.Equal(t, []string{"17", "17", "16"}, quantities(planned))

	saved, err := store.GetActivity(ctx, "act-1")
	require.NoError(t, err)
	assert.True(t, saved.PlannedUnits.Equal(decimal.NewFromInt(50)))
}

func TestSyncActivity_FailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	a := excavation(10)
	a.PlannedStart = calendar.NewDate(2025, time.March, 8)
	a.PlannedEnd = calendar.NewDate(2025, time.March, 9)

	_, err := svc.SyncActivity(ctx, a)
	assert.ErrorIs(t, err, kpi.ErrNoWorkdays)

	_, err = store.GetActivity(ctx, "act-1")
	assert.ErrorIs(t, err, kpi.ErrActivityNotFound)
}

func TestSyncActivity_EditKeepsActuals(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SyncActivity(ctx, excavation(100))
	require.NoError(t, err)
	_, err = svc.RecordActual(ctx, "act-1", calendar.NewDate(2025, time.March, 3), decimal.NewFromInt(12), "crew A")
	require.NoError(t, err)

	_, err = svc.SyncActivity(ctx, excavation(120))
	require.NoError(t, err)

	actuals, err := svc.Records(ctx, "act-1", kpi.KindActual)
	require.NoError(t, err)
	require.Len(t, actuals, 1)
	assert.Equal(t, "crew A", actuals[0].Note)
	assert.Equal(t, "m3", actuals[0].Unit)
}

func TestRecordActual_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.RecordActual(ctx, "missing", calendar.NewDate(2025, time.March, 3), decimal.NewFromInt(1), "")
	assert.True(t, kpi.IsNotFound(err))

	_, err = svc.SyncActivity(ctx, excavation(100))
	require.NoError(t, err)
	_, err = svc.RecordActual(ctx, "act-1", calendar.NewDate(2025, time.March, 3), decimal.NewFromInt(-1), "")
	assert.ErrorIs(t, err, kpi.ErrNegativeActual)
	assert.True(t, kpi.IsClientError(err))
}

func TestRecords_OrderedPlannedBeforeActual(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SyncActivity(ctx, excavation(14))
	require.NoError(t, err)
	_, err = svc.RecordActual(ctx, "act-1", calendar.NewDate(2025, time.March, 4), decimal.NewFromInt(3), "")
	require.NoError(t, err)
	_, err = svc.RecordActual(ctx, "act-1", calendar.NewDate(2025, time.March, 3), decimal.NewFromInt(2), "")
	require.NoError(t, err)

	all, err := svc.Records(ctx, "act-1", "")
	require.NoError(t, err)
	require.Len(t, all, 9)

	assert.Equal(t, kpi.KindPlanned, all[0].Kind)
	assert.Equal(t, kpi.KindActual, all[1].Kind)
	assert.Equal(t, "2025-03-03", all[1].Date.String())
	assert.Equal(t, kpi.KindPlanned, all[2].Kind)
	assert.Equal(t, kpi.KindActual, all[3].Kind)
	assert.Equal(t, "2025-03-04", all[3].Date.String())
}

func TestPerformanceAndBuckets(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SyncActivity(ctx, excavation(100))
	require.NoError(t, err)
	_, err = svc.RecordActual(ctx, "act-1", calendar.NewDate(2025, time.March, 3), decimal.NewFromInt(15), "")
	require.NoError(t, err)

	perf, err := svc.Performance(ctx, "act-1", calendar.NewDate(2025, time.March, 3), decimal.NewFromInt(180))
	require.NoError(t, err)
	require.NotNil(t, perf.SPI)
	assert.True(t, perf.SPI.Equal(decimal.NewFromInt(1)), perf.SPI.String())
	assert.True(t, perf.CPI.Equal(decimal.NewFromInt(1)), perf.CPI.String())

	buckets, err := svc.Buckets(ctx, "act-1", kpi.GranularityMonth)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.True(t, buckets[0].Planned.Equal(decimal.NewFromInt(100)))

	_, err = svc.Performance(ctx, "nope", calendar.Today(), decimal.Zero)
	assert.True(t, kpi.IsNotFound(err))
}

// gatedStore holds the SavePlan call for one planned-units value until
// release is closed.
type gatedStore struct {
	*memory.Store
	holdUnits decimal.Decimal
	entered   chan struct{}
	release   chan struct{}
}

func (g *gatedStore) SavePlan(ctx context.Context, a kpi.Activity, planned []kpi.Record) error {
	if a.PlannedUnits.Equal(g.holdUnits) {
		close(g.entered)
		<-g.release
	}
	return g.Store.SavePlan(ctx, a, planned)
}

func plannedSum(t *testing.T, store kpi.Store, id string) decimal.Decimal {
	t.Helper()
	planned, err := store.ListRecords(context.Background(), id, kpi.KindPlanned)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, r := range planned {
		sum = sum.Add(r.Quantity)
	}
	return sum
}

func TestSyncActivity_InterleavedEditsOfSameActivity(t *testing.T) {
	// GIVEN: An edit to 100 m3 paused inside its store write
	ctx := context.Background()
	store := &gatedStore{
		Store:     memory.New(),
		holdUnits: decimal.NewFromInt(100),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	svc := kpi.NewService(store, kpi.NewGenerator(nil, nil), zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() {
		_, err := svc.SyncActivity(ctx, excavation(100))
		done <- err
	}()
	<-store.entered

	// WHEN: An edit to 50 m3 completes in the meantime, then the first resumes
	_, err := svc.SyncActivity(ctx, excavation(50))
	require.NoError(t, err)
	close(store.release)
	require.NoError(t, <-done)

	// THEN: The stored activity and its plan come from the same edit
	saved, err := store.GetActivity(ctx, "act-1")
	require.NoError(t, err)
	assert.True(t, saved.PlannedUnits.Equal(decimal.NewFromInt(100)), saved.PlannedUnits.String())
	sum := plannedSum(t, store, "act-1")
	assert.True(t, sum.Equal(saved.PlannedUnits), "plan sums to %s, activity has %s", sum, saved.PlannedUnits)
}

func TestSyncActivity_ConcurrentEditsOfSameActivity(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := kpi.NewService(store, kpi.NewGenerator(nil, nil), nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(units int64) {
			defer wg.Done()
			_, err := svc.SyncActivity(ctx, excavation(units))
			assert.NoError(t, err)
		}(int64(100 + i))
	}
	wg.Wait()

	saved, err := store.GetActivity(ctx, "act-1")
	require.NoError(t, err)
	sum := plannedSum(t, store, "act-1")
	assert.True(t, sum.Equal(saved.PlannedUnits), "plan sums to %s, activity has %s", sum, saved.PlannedUnits)
}

func TestSyncActivity_ConcurrentActivities(t *testing.T) {
	// Independent activities may be synced at the same time.
	ctx := context.Background()
	store := memory.New()
	svc := kpi.NewService(store, kpi.NewGenerator(nil, nil), nil)

	var wg sync.WaitGroup
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i, id := range ids {
		wg.Add(1)
		go func(id string, units int64) {
			defer wg.Done()
			a := excavation(units)
			a.ID = id
			_, err := svc.SyncActivity(ctx, a)
			assert.NoError(t, err)
		}(id, int64(100+i))
	}
	wg.Wait()

	for i, id := range ids {
		planned, err := store.ListRecords(ctx, id, kpi.KindPlanned)
		require.NoError(t, err)
		sum := decimal.Zero
		for _, r := range planned {
			sum = sum.Add(r.Quantity)
		}
		assert.True(t, sum.Equal(decimal.NewFromInt(int64(100+i))), id)
	}
}
