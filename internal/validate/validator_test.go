package validate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"analytics-sync-service/internal/config"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// fakeAggregates returns canned values for every query.
type fakeAggregates struct {
	customers     int64
	films         int64
	rentals       int64
	payments      float64
	rentalsStore  map[int]int64
	paymentsStore map[int]float64

	err error
}

func (f *fakeAggregates) CustomerCount(context.Context) (int64, error) {
	return f.customers, f.err
}

func (f *fakeAggregates) FilmCount(context.Context) (int64, error) {
	return f.films, f.err
}

func (f *fakeAggregates) RentalCountSince(context.Context, time.Time) (int64, error) {
	return f.rentals, f.err
}

func (f *fakeAggregates) PaymentTotalSince(context.Context, time.Time) (float64, error) {
	return f.payments, f.err
}

func (f *fakeAggregates) RentalCountByStore(context.Context, time.Time) (map[int]int64, error) {
	return f.rentalsStore, f.err
}

func (f *fakeAggregates) PaymentTotalByStore(context.Context, time.Time) (map[int]float64, error) {
	return f.paymentsStore, f.err
}

func matchedSides() (*fakeAggregates, *fakeAggregates) {
	src := &fakeAggregates{
		customers:     599,
		films:         1000,
		rentals:       120,
		payments:      512.34,
		rentalsStore:  map[int]int64{1: 70, 2: 50},
		paymentsStore: map[int]float64{1: 300.10, 2: 212.24},
	}
	tgt := &fakeAggregates{
		customers:     599,
		films:         1000,
		rentals:       120,
		payments:      512.34,
		rentalsStore:  map[int]int64{1: 70, 2: 50},
		paymentsStore: map[int]float64{1: 300.10, 2: 212.24},
	}
	return src, tgt
}

func testConfig() config.ValidationConfig {
	return config.ValidationConfig{
		Days:      30,
		Tolerance: 0.01,
		Critical:  []string{CheckCustomerCount, CheckFilmCount},
	}
}

func TestValidator_AllChecksPass(t *testing.T) {
	src, tgt := matchedSides()
	v := New(src, tgt, testConfig(), testLogger())

	report, err := v.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, VerdictSuccess, report.Verdict)
	assert.False(t, report.Failed())
	assert.False(t, report.Aborted)
	assert.Len(t, report.Results, 6)
	assert.Equal(t, 30, report.Days, "days <= 0 falls back to the configured default")
	for _, res := range report.Results {
		assert.True(t, res.Pass, "check %s", res.Name)
	}
}

func TestValidator_ToleranceBoundary(t *testing.T) {
	cases := []struct {
		name  string
		delta float64
		pass  bool
	}{
		{"well inside", 0.001, true},
		{"just inside", 0.009, true},
		{"at the threshold", 0.01, false},
		{"outside", 0.011, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src, tgt := matchedSides()
			tgt.payments = src.payments + tc.delta
			v := New(src, tgt, testConfig(), testLogger())

			report, err := v.Run(context.Background(), 30)
			require.NoError(t, err)

			res := findResult(t, report, CheckPaymentTotal)
			assert.Equal(t, tc.pass, res.Pass)
		})
	}
}

func TestValidator_ExactCountMismatch(t *testing.T) {
	src, tgt := matchedSides()
	tgt.rentals = src.rentals - 3
	v := New(src, tgt, testConfig(), testLogger())

	report, err := v.Run(context.Background(), 30)
	require.NoError(t, err)

	res := findResult(t, report, CheckRentalCount)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Detail, "delta=-3")
	assert.Equal(t, VerdictFailed, report.Verdict)
}

func TestValidator_PerStoreAbsentKeyFails(t *testing.T) {
	src, tgt := matchedSides()
	// The analytics side never saw store 2.
	delete(tgt.rentalsStore, 2)
	v := New(src, tgt, testConfig(), testLogger())

	report, err := v.Run(context.Background(), 30)
	require.NoError(t, err)

	res := findResult(t, report, CheckRentalsPerStore)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Detail, "store 2")
	assert.Contains(t, res.Detail, "absent")
}

func TestValidator_PerStoreExtraTargetKeyFails(t *testing.T) {
	src, tgt := matchedSides()
	// The analytics side reports a store the source does not have.
	tgt.paymentsStore[3] = 10.00
	v := New(src, tgt, testConfig(), testLogger())

	report, err := v.Run(context.Background(), 30)
	require.NoError(t, err)

	res := findResult(t, report, CheckPaymentsPerStore)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Detail, "store 3")
}

func TestValidator_NonCriticalFailureDoesNotAbort(t *testing.T) {
	src, tgt := matchedSides()
	tgt.rentals = 0 // rental_count_window is not in the critical list
	v := New(src, tgt, testConfig(), testLogger())

	report, err := v.Run(context.Background(), 30)
	require.NoError(t, err)

	assert.False(t, report.Aborted)
	assert.Len(t, report.Results, 6, "remaining checks still execute")
	assert.Equal(t, VerdictFailed, report.Verdict)
}

func TestValidator_CriticalFailureAborts(t *testing.T) {
	src, tgt := matchedSides()
	tgt.customers = 598 // customer_count is critical and runs first
	v := New(src, tgt, testConfig(), testLogger())

	report, err := v.Run(context.Background(), 30)
	require.NoError(t, err)

	assert.True(t, report.Aborted)
	assert.Len(t, report.Results, 1, "checks after the critical failure are skipped")
	assert.Equal(t, VerdictFailed, report.Verdict)
	assert.True(t, report.Results[0].Critical)
}

func TestValidator_QueryErrorFailsCheck(t *testing.T) {
	src, tgt := matchedSides()
	src.err = errors.New("timeout")
	v := New(src, tgt, testConfig(), testLogger())

	report, err := v.Run(context.Background(), 30)
	require.NoError(t, err, "a side being unreachable is a verdict, not an engine error")

	assert.Equal(t, VerdictFailed, report.Verdict)
	res := report.Results[0]
	assert.False(t, res.Pass)
	assert.Contains(t, res.Detail, "source query failed")
}

func TestValidator_WindowStartsAtMidnightUTC(t *testing.T) {
	src, tgt := matchedSides()
	v := New(src, tgt, testConfig(), testLogger())
	v.now = func() time.Time {
		return time.Date(2026, 8, 24, 15, 42, 11, 0, time.UTC)
	}

	report, err := v.Run(context.Background(), 7)
	require.NoError(t, err)

	want := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	assert.True(t, report.From.Equal(want))
	assert.Equal(t, 7, report.Days)
}

func findResult(t *testing.T, report *Report, name string) Result {
	t.Helper()
	for _, res := range report.Results {
		if res.Name == name {
			return res
		}
	}
	t.Fatalf("check %s not in report", name)
	return Result{}
}
