package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"analytics-sync-service/internal/store"
	"analytics-sync-service/internal/target"
)

// Initialize bootstraps the analytics database: the schema itself is
// migrated when the database is opened; this fills the calendar dimension
// and seeds a watermark entry per tracked table. Safe to run repeatedly.
func Initialize(ctx context.Context, tgt target.Store, state store.Store, dateDimStart, dateDimEnd time.Time, log *zap.Logger) error {
	inserted, err := tgt.EnsureDateDimension(ctx, dateDimStart, dateDimEnd)
	if err != nil {
		return fmt.Errorf("initialize date dimension: %w", err)
	}
	if inserted > 0 {
		log.Info("populated dim_date", zap.Int("rows", inserted))
	} else {
		log.Info("dim_date already populated")
	}

	if err := state.SeedWatermarks(ctx, TrackedTables()); err != nil {
		return fmt.Errorf("seed watermarks: %w", err)
	}
	log.Info("watermarks seeded", zap.Int("tables", len(TrackedTables())))
	return nil
}
