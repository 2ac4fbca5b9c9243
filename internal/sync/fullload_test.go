package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-sync-service/internal/store"
)

func TestFullLoad_SealsWatermarksToRunStart(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2005, 5, 25, 10, 0, 0, 0, time.UTC)
	src := seedSource(t0)
	mart := newTestMart(t)
	state := store.NewMemoryStore()

	runStart := t0.Add(time.Hour)
	loader := NewFullLoad(src, mart, state, time.Date(2005, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2005, 7, 31, 0, 0, 0, 0, time.UTC), testLogger())
	loader.now = func() time.Time { return runStart }

	report, err := loader.Run(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Degraded)
	require.Len(t, report.Tables, len(TrackedTables()))
	for _, res := range report.Tables {
		assert.True(t, res.WatermarkAdvanced, "table %s", res.Table)
	}

	wms, err := state.Watermarks(ctx)
	require.NoError(t, err)
	for _, table := range TrackedTables() {
		assert.True(t, wms[table].Equal(runStart), "watermark for %s", table)
	}

	count, err := mart.CustomerCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestFullLoad_FailureLeavesWatermarksUntouched(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2005, 5, 25, 10, 0, 0, 0, time.UTC)
	src := seedSource(t0)
	src.fail["rental"] = errors.New("source gone")
	mart := newTestMart(t)
	state := store.NewMemoryStore()

	loader := NewFullLoad(src, mart, state, time.Date(2005, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2005, 7, 31, 0, 0, 0, 0, time.UTC), testLogger())
	loader.now = func() time.Time { return t0.Add(time.Hour) }

	report, err := loader.Run(ctx, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full load failed during loading_facts")
	assert.True(t, report.Degraded)

	// Nothing sealed: the next run starts over from Epoch.
	wms, err := state.Watermarks(ctx)
	require.NoError(t, err)
	for _, table := range TrackedTables() {
		assert.True(t, wms[table].Equal(store.Epoch), "watermark for %s", table)
	}
}

func TestFullLoad_IsIdempotentWithoutForce(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2005, 5, 25, 10, 0, 0, 0, time.UTC)
	src := seedSource(t0)
	mart := newTestMart(t)
	state := store.NewMemoryStore()

	loader := NewFullLoad(src, mart, state, time.Date(2005, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2005, 7, 31, 0, 0, 0, 0, time.UTC), testLogger())
	loader.now = func() time.Time { return t0.Add(time.Hour) }

	_, err := loader.Run(ctx, false)
	require.NoError(t, err)
	_, err = loader.Run(ctx, false)
	require.NoError(t, err)

	// Upserts and insert-only facts keep the second pass from duplicating.
	count, err := mart.CustomerCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	rentals, err := mart.RentalCountSince(ctx, t0.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rentals)
}

func TestFullLoad_ForceRebuildsSchema(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2005, 5, 25, 10, 0, 0, 0, time.UTC)
	src := seedSource(t0)
	mart := newTestMart(t)
	state := store.NewMemoryStore()

	loader := NewFullLoad(src, mart, state, time.Date(2005, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2005, 7, 31, 0, 0, 0, 0, time.UTC), testLogger())
	loader.now = func() time.Time { return t0.Add(time.Hour) }

	_, err := loader.Run(ctx, false)
	require.NoError(t, err)

	// Shrink the source, then force. The stale customer must be gone.
	src.customers = src.customers[:2]
	src.rentals = src.rentals[:1]
	src.payments = nil

	report, err := loader.Run(ctx, true)
	require.NoError(t, err)
	assert.False(t, report.Degraded)

	count, err := mart.CustomerCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	rentals, err := mart.RentalCountSince(ctx, t0.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rentals)
}
