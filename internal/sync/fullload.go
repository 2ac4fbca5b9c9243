package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"analytics-sync-service/internal/source"
	"analytics-sync-service/internal/store"
	"analytics-sync-service/internal/target"
)

// Phase tracks full-load progress. Unlike the incremental path, any phase
// failing aborts the whole run: a partial full load leaves the target in an
// undefined state, so no watermark is written.
type Phase string

const (
	PhaseNotStarted        Phase = "not_started"
	PhaseResetting         Phase = "resetting"
	PhaseLoadingDimensions Phase = "loading_dimensions"
	PhaseLoadingBridges    Phase = "loading_bridges"
	PhaseLoadingFacts      Phase = "loading_facts"
	PhaseSealingWatermarks Phase = "sealing_watermarks"
	PhaseDone              Phase = "done"
	PhaseFailed            Phase = "failed"
)

// FullLoad rebuilds the analytics store from scratch. Loading is expressed
// as applying every table from the Epoch watermark; the Type-1 upserts and
// insert-only facts make re-loading over existing data safe.
type FullLoad struct {
	src   source.Extractor
	tgt   target.Store
	state store.Store
	log   *zap.Logger

	dateDimStart time.Time
	dateDimEnd   time.Time

	now func() time.Time
}

func NewFullLoad(src source.Extractor, tgt target.Store, state store.Store, dateDimStart, dateDimEnd time.Time, log *zap.Logger) *FullLoad {
	return &FullLoad{
		src:          src,
		tgt:          tgt,
		state:        state,
		log:          log,
		dateDimStart: dateDimStart,
		dateDimEnd:   dateDimEnd,
		now:          time.Now,
	}
}

// Run performs the rebuild. When force is set the analytics schema is
// dropped and recreated first. Watermarks are sealed to the run start
// time captured before loading began, so rows changed mid-load surface in
// the first incremental run instead of being silently skipped.
func (o *FullLoad) Run(ctx context.Context, force bool) (*RunReport, error) {
	runStart := o.now()
	report := &RunReport{Mode: "full-load", StartedAt: runStart}
	phase := PhaseNotStarted

	rec := &store.RunRecord{
		ID:        uuid.New().String(),
		StartedAt: runStart,
		Mode:      "full-load",
		Status:    store.RunStatusRunning,
	}

	fail := func(err error) (*RunReport, error) {
		wrapped := fmt.Errorf("full load failed during %s: %w", phase, err)
		o.log.Error("full load aborted", zap.String("phase", string(phase)), zap.Error(err))
		report.Degraded = true
		report.CompletedAt = o.now()
		o.finishRecord(ctx, rec, report, store.RunStatusFailed, wrapped.Error())
		return report, wrapped
	}

	if force {
		phase = PhaseResetting
		o.log.Info("force flag set, resetting analytics schema")
		if err := o.tgt.Reset(ctx); err != nil {
			return fail(err)
		}
	}

	// The run record goes in after a possible reset wiped sync_history.
	if err := o.state.CreateRunRecord(ctx, rec); err != nil {
		o.log.Warn("failed to open run record", zap.Error(err))
	}

	// Bootstrap pieces are idempotent, so they run force or not.
	if _, err := o.tgt.EnsureDateDimension(ctx, o.dateDimStart, o.dateDimEnd); err != nil {
		return fail(err)
	}
	if err := o.state.SeedWatermarks(ctx, TrackedTables()); err != nil {
		return fail(err)
	}

	keys, err := loadKeyMaps(ctx, o.tgt)
	if err != nil {
		return fail(err)
	}
	a := &applier{src: o.src, tgt: o.tgt, keys: keys, log: o.log}

	phases := []struct {
		phase Phase
		kind  Kind
	}{
		{PhaseLoadingDimensions, KindDimension},
		{PhaseLoadingBridges, KindBridge},
		{PhaseLoadingFacts, KindFact},
	}

	for _, p := range phases {
		phase = p.phase
		o.log.Info("full load phase", zap.String("phase", string(phase)))
		for _, step := range a.steps() {
			if step.Kind != p.kind {
				continue
			}
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
			stats, err := step.Apply(ctx, store.Epoch)
			if err != nil {
				return fail(fmt.Errorf("%s: %w", step.Table, err))
			}
			report.Tables = append(report.Tables, TableResult{
				Table: step.Table,
				Kind:  step.Kind.String(),
				Stats: stats,
			})
		}
	}

	phase = PhaseSealingWatermarks
	for i, table := range TrackedTables() {
		if err := o.state.SetWatermark(ctx, table, runStart); err != nil {
			return fail(fmt.Errorf("%s: %w", table, err))
		}
		report.Tables[i].WatermarkAdvanced = true
	}

	phase = PhaseDone
	report.CompletedAt = o.now()
	o.finishRecord(ctx, rec, report, store.RunStatusSuccess, "")

	o.log.Info("full load finished",
		zap.Int64("rows_applied", report.TotalApplied()),
		zap.Int64("referential_gaps", report.TotalGaps()))

	return report, nil
}

func (o *FullLoad) finishRecord(ctx context.Context, rec *store.RunRecord, report *RunReport, status, errMsg string) {
	rec.CompletedAt = sql.NullTime{Time: o.now(), Valid: true}
	rec.TablesSynced = report.SyncedTables()
	rec.TotalRows = report.TotalApplied()
	rec.Gaps = report.TotalGaps()
	rec.Status = status
	if errMsg != "" {
		rec.ErrorMessage = sql.NullString{String: errMsg, Valid: true}
	}
	if err := o.state.FinishRunRecord(ctx, rec); err != nil {
		o.log.Warn("failed to close run record", zap.Error(err))
	}
}
