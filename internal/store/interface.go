// Package store persists the engine's durable state: per-table watermarks
// and the run history audit trail.
package store

import (
	"context"
	"time"
)

// Epoch is the sentinel watermark for a table that has never been synced.
// Everything in the source is newer than this.
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type Store interface {
	// GetWatermark returns the last successful sync time for a table, or
	// Epoch when no entry exists.
	GetWatermark(ctx context.Context, table string) (time.Time, error)
	// SetWatermark overwrites a table's watermark. Either the prior or the
	// new value is visible to concurrent readers, never anything between.
	SetWatermark(ctx context.Context, table string, ts time.Time) error
	// SeedWatermarks creates Epoch entries for any table that has none.
	SeedWatermarks(ctx context.Context, tables []string) error
	Watermarks(ctx context.Context) (map[string]time.Time, error)

	CreateRunRecord(ctx context.Context, rec *RunRecord) error
	FinishRunRecord(ctx context.Context, rec *RunRecord) error
	RunRecords(ctx context.Context, limit int) ([]*RunRecord, error)
}
