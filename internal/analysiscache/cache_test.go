package analysiscache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpick/internal/contracts"
	"stockpick/pkg/logger"
)

func fakeCompute(counter *atomic.Int64) ComputeFunc {
	return func(ctx context.Context) (map[string]contracts.MetricsRecord, error) {
		counter.Add(1)
		return map[string]contracts.MetricsRecord{
			"AAPL": {Symbol: "AAPL", TotalWeeks: 52},
		}, nil
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := Fingerprint([]string{"AAPL", "MSFT", "NVDA"})
	b := Fingerprint([]string{"NVDA", "AAPL", "MSFT"})
	assert.Equal(t, a, b)

	c := Fingerprint([]string{"AAPL", "MSFT"})
	assert.NotEqual(t, a, c)
}

func TestGetOrCompute_MemoizesPerKey(t *testing.T) {
	cache := New(16, nil, nil, logger.Nop())
	date := time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC)
	symbols := []string{"AAPL", "MSFT"}

	var calls atomic.Int64
	ctx := context.Background()

	first, err := cache.GetOrCompute(ctx, date, contracts.IndexSP500, symbols, fakeCompute(&calls))
	require.NoError(t, err)
	require.Contains(t, first, "AAPL")

	second, err := cache.GetOrCompute(ctx, date, contracts.IndexSP500, symbols, fakeCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())

	// Same computation result is shared, not copied.
	assert.Equal(t, first["AAPL"], second["AAPL"])
}

func TestGetOrCompute_DistinctKeysComputeSeparately(t *testing.T) {
	cache := New(16, nil, nil, logger.Nop())
	date := time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC)

	var calls atomic.Int64
	ctx := context.Background()

	_, err := cache.GetOrCompute(ctx, date, contracts.IndexSP500, []string{"AAPL"}, fakeCompute(&calls))
	require.NoError(t, err)
	_, err = cache.GetOrCompute(ctx, date, contracts.IndexNasdaq, []string{"AAPL"}, fakeCompute(&calls))
	require.NoError(t, err)
	_, err = cache.GetOrCompute(ctx, date.AddDate(0, 0, 1), contracts.IndexSP500, []string{"AAPL"}, fakeCompute(&calls))
	require.NoError(t, err)
	_, err = cache.GetOrCompute(ctx, date, contracts.IndexSP500, []string{"AAPL", "MSFT"}, fakeCompute(&calls))
	require.NoError(t, err)

	assert.Equal(t, int64(4), calls.Load())
}

func TestGetOrCompute_ConcurrentCallersCollapse(t *testing.T) {
	cache := New(16, nil, nil, logger.Nop())
	date := time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC)
	symbols := []string{"AAPL", "MSFT"}

	var calls atomic.Int64
	slow := func(ctx context.Context) (map[string]contracts.MetricsRecord, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return map[string]contracts.MetricsRecord{"AAPL": {Symbol: "AAPL"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrCompute(context.Background(), date, contracts.IndexSP500, symbols, slow)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestGetOrCompute_ErrorsAreNotCached(t *testing.T) {
	cache := New(16, nil, nil, logger.Nop())
	date := time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC)

	failing := func(ctx context.Context) (map[string]contracts.MetricsRecord, error) {
		return nil, &contracts.DataUnavailableError{Date: date}
	}
	_, err := cache.GetOrCompute(context.Background(), date, contracts.IndexSP500, []string{"AAPL"}, failing)
	require.Error(t, err)
	assert.Zero(t, cache.Len())

	// A later successful computation fills the entry.
	var calls atomic.Int64
	_, err = cache.GetOrCompute(context.Background(), date, contracts.IndexSP500, []string{"AAPL"}, fakeCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, cache.Len())
}

type fakeSnapshots struct {
	records map[string]contracts.MetricsRecord
	calls   atomic.Int64
}

func (f *fakeSnapshots) GetSnapshot(ctx context.Context, index contracts.Index, date time.Time) (map[string]contracts.MetricsRecord, error) {
	f.calls.Add(1)
	return f.records, nil
}

func TestGetOrCompute_ServesPersistedSnapshot(t *testing.T) {
	snapshots := &fakeSnapshots{records: map[string]contracts.MetricsRecord{
		"AAPL": {Symbol: "AAPL", TotalWeeks: 52},
		"MSFT": {Symbol: "MSFT", TotalWeeks: 52},
		"NVDA": {Symbol: "NVDA", TotalWeeks: 52},
	}}
	cache := New(16, nil, snapshots, logger.Nop())
	date := time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC)

	var calls atomic.Int64
	records, err := cache.GetOrCompute(context.Background(), date, contracts.IndexSP500,
		[]string{"AAPL", "MSFT"}, fakeCompute(&calls))
	require.NoError(t, err)

	// Snapshot hit: nothing was recomputed, and the result covers only the
	// requested universe.
	assert.Zero(t, calls.Load())
	assert.Len(t, records, 2)
	assert.Contains(t, records, "AAPL")
	assert.NotContains(t, records, "NVDA")

	// The hit landed in the in-memory layer; the store is not consulted
	// again for the same key.
	_, err = cache.GetOrCompute(context.Background(), date, contracts.IndexSP500,
		[]string{"AAPL", "MSFT"}, fakeCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshots.calls.Load())
}

func TestGetOrCompute_EmptySnapshotFallsThrough(t *testing.T) {
	cache := New(16, nil, &fakeSnapshots{}, logger.Nop())
	date := time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC)

	var calls atomic.Int64
	records, err := cache.GetOrCompute(context.Background(), date, contracts.IndexSP500,
		[]string{"AAPL"}, fakeCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
	assert.Contains(t, records, "AAPL")
}

func TestStore_EvictsOldestPastBound(t *testing.T) {
	cache := New(3, nil, nil, logger.Nop())
	date := time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC)

	var calls atomic.Int64
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		symbols := []string{fmt.Sprintf("SYM%d", i)}
		_, err := cache.GetOrCompute(ctx, date, contracts.IndexSP500, symbols, fakeCompute(&calls))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, cache.Len())

	// The oldest key was evicted, so it recomputes.
	_, err := cache.GetOrCompute(ctx, date, contracts.IndexSP500, []string{"SYM0"}, fakeCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, int64(6), calls.Load())
}
