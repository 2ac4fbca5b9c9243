// Package validate cross-checks aggregate consistency between the
// operational store and the analytics store.
package validate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"analytics-sync-service/internal/config"
)

// Check names, referenced by the validation.critical config list.
const (
	CheckCustomerCount    = "customer_count"
	CheckFilmCount        = "film_count"
	CheckRentalCount      = "rental_count_window"
	CheckPaymentTotal     = "payment_total_window"
	CheckRentalsPerStore  = "rental_count_per_store"
	CheckPaymentsPerStore = "payment_total_per_store"
)

// Aggregates is the query surface the validator needs from either side.
// Both the source reader and the analytics store satisfy it.
type Aggregates interface {
	CustomerCount(ctx context.Context) (int64, error)
	FilmCount(ctx context.Context) (int64, error)
	RentalCountSince(ctx context.Context, from time.Time) (int64, error)
	PaymentTotalSince(ctx context.Context, from time.Time) (float64, error)
	RentalCountByStore(ctx context.Context, from time.Time) (map[int]int64, error)
	PaymentTotalByStore(ctx context.Context, from time.Time) (map[int]float64, error)
}

// Validator compares counts and sums over a lookback window. Checks run
// collect-all: a failing check does not stop the rest, unless it is marked
// critical in which case the remaining checks are abandoned.
type Validator struct {
	src       Aggregates
	tgt       Aggregates
	days      int
	tolerance float64
	critical  map[string]bool
	log       *zap.Logger

	now func() time.Time
}

func New(src, tgt Aggregates, cfg config.ValidationConfig, log *zap.Logger) *Validator {
	critical := make(map[string]bool, len(cfg.Critical))
	for _, name := range cfg.Critical {
		critical[name] = true
	}
	return &Validator{
		src:       src,
		tgt:       tgt,
		days:      cfg.Days,
		tolerance: cfg.Tolerance,
		critical:  critical,
		log:       log,
		now:       time.Now,
	}
}

// Run executes all checks over the given lookback; days <= 0 uses the
// configured default.
func (v *Validator) Run(ctx context.Context, days int) (*Report, error) {
	if days <= 0 {
		days = v.days
	}
	today := v.now()
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -days)

	report := &Report{Days: days, From: from, Tolerance: v.tolerance}

	checks := []struct {
		name string
		run  func(ctx context.Context, from time.Time) Result
	}{
		{CheckCustomerCount, v.checkCustomerCount},
		{CheckFilmCount, v.checkFilmCount},
		{CheckRentalCount, v.checkRentalCount},
		{CheckPaymentTotal, v.checkPaymentTotal},
		{CheckRentalsPerStore, v.checkRentalsPerStore},
		{CheckPaymentsPerStore, v.checkPaymentsPerStore},
	}

	for _, c := range checks {
		res := c.run(ctx, from)
		res.Critical = v.critical[res.Name]
		report.Results = append(report.Results, res)

		v.log.Info("validation check",
			zap.String("check", res.Name),
			zap.Bool("pass", res.Pass),
			zap.String("expected", res.Expected),
			zap.String("actual", res.Actual))

		if !res.Pass && res.Critical {
			v.log.Error("critical validation check failed, aborting remaining checks",
				zap.String("check", res.Name))
			report.Aborted = true
			break
		}
	}

	report.Verdict = VerdictSuccess
	for _, res := range report.Results {
		if !res.Pass {
			report.Verdict = VerdictFailed
			break
		}
	}
	return report, nil
}

func (v *Validator) checkCustomerCount(ctx context.Context, _ time.Time) Result {
	return v.exactCount(ctx, CheckCustomerCount, v.src.CustomerCount, v.tgt.CustomerCount)
}

func (v *Validator) checkFilmCount(ctx context.Context, _ time.Time) Result {
	return v.exactCount(ctx, CheckFilmCount, v.src.FilmCount, v.tgt.FilmCount)
}

func (v *Validator) checkRentalCount(ctx context.Context, from time.Time) Result {
	return v.exactCount(ctx, CheckRentalCount,
		func(ctx context.Context) (int64, error) { return v.src.RentalCountSince(ctx, from) },
		func(ctx context.Context) (int64, error) { return v.tgt.RentalCountSince(ctx, from) })
}

func (v *Validator) exactCount(ctx context.Context, name string, srcFn, tgtFn func(context.Context) (int64, error)) Result {
	res := Result{Name: name}
	expected, err := srcFn(ctx)
	if err != nil {
		res.Detail = fmt.Sprintf("source query failed: %v", err)
		return res
	}
	actual, err := tgtFn(ctx)
	if err != nil {
		res.Detail = fmt.Sprintf("target query failed: %v", err)
		return res
	}
	res.Expected = fmt.Sprintf("%d", expected)
	res.Actual = fmt.Sprintf("%d", actual)
	res.Pass = expected == actual
	if !res.Pass {
		res.Detail = fmt.Sprintf("delta=%d", actual-expected)
	}
	return res
}

func (v *Validator) checkPaymentTotal(ctx context.Context, from time.Time) Result {
	res := Result{Name: CheckPaymentTotal}
	expected, err := v.src.PaymentTotalSince(ctx, from)
	if err != nil {
		res.Detail = fmt.Sprintf("source query failed: %v", err)
		return res
	}
	actual, err := v.tgt.PaymentTotalSince(ctx, from)
	if err != nil {
		res.Detail = fmt.Sprintf("target query failed: %v", err)
		return res
	}
	res.Expected = fmt.Sprintf("%.2f", expected)
	res.Actual = fmt.Sprintf("%.2f", actual)
	res.Pass = math.Abs(expected-actual) < v.tolerance
	if !res.Pass {
		res.Detail = fmt.Sprintf("delta=%.4f tolerance=%.4f", actual-expected, v.tolerance)
	}
	return res
}

func (v *Validator) checkRentalsPerStore(ctx context.Context, from time.Time) Result {
	res := Result{Name: CheckRentalsPerStore}
	expected, err := v.src.RentalCountByStore(ctx, from)
	if err != nil {
		res.Detail = fmt.Sprintf("source query failed: %v", err)
		return res
	}
	actual, err := v.tgt.RentalCountByStore(ctx, from)
	if err != nil {
		res.Detail = fmt.Sprintf("target query failed: %v", err)
		return res
	}

	var mismatches []string
	for _, id := range unionKeysInt64(expected, actual) {
		exp, okE := expected[id]
		act, okA := actual[id]
		if !okE || !okA || exp != act {
			mismatches = append(mismatches, fmt.Sprintf("store %d: source=%s analytics=%s",
				id, formatInt(exp, okE), formatInt(act, okA)))
		}
	}
	res.Expected = formatIntMap(expected)
	res.Actual = formatIntMap(actual)
	res.Pass = len(mismatches) == 0
	if !res.Pass {
		res.Detail = joinDetails(mismatches)
	}
	return res
}

func (v *Validator) checkPaymentsPerStore(ctx context.Context, from time.Time) Result {
	res := Result{Name: CheckPaymentsPerStore}
	expected, err := v.src.PaymentTotalByStore(ctx, from)
	if err != nil {
		res.Detail = fmt.Sprintf("source query failed: %v", err)
		return res
	}
	actual, err := v.tgt.PaymentTotalByStore(ctx, from)
	if err != nil {
		res.Detail = fmt.Sprintf("target query failed: %v", err)
		return res
	}

	var mismatches []string
	for _, id := range unionKeysFloat(expected, actual) {
		exp, okE := expected[id]
		act, okA := actual[id]
		if !okE || !okA || math.Abs(exp-act) >= v.tolerance {
			mismatches = append(mismatches, fmt.Sprintf("store %d: source=%s analytics=%s",
				id, formatFloat(exp, okE), formatFloat(act, okA)))
		}
	}
	res.Expected = formatFloatMap(expected)
	res.Actual = formatFloatMap(actual)
	res.Pass = len(mismatches) == 0
	if !res.Pass {
		res.Detail = joinDetails(mismatches)
	}
	return res
}

func unionKeysInt64(a, b map[int]int64) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func unionKeysFloat(a, b map[int]float64) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func formatInt(v int64, ok bool) string {
	if !ok {
		return "absent"
	}
	return fmt.Sprintf("%d", v)
}

func formatFloat(v float64, ok bool) string {
	if !ok {
		return "absent"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatIntMap(m map[int]int64) string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d=%d", k, m[k])
	}
	return s
}

func formatFloatMap(m map[int]float64) string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d=%.2f", k, m[k])
	}
	return s
}

func joinDetails(parts []string) string {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "; "
		}
		s += p
	}
	return s
}
