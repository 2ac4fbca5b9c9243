package store

import (
	"database/sql"
	"time"
)

// RunRecord is one row of sync_history: a single full-load or incremental
// invocation and its outcome.
type RunRecord struct {
	ID           string         `db:"id"`
	StartedAt    time.Time      `db:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
	Mode         string         `db:"mode"`
	TablesSynced string         `db:"tables_synced"`
	TotalRows    int64          `db:"total_rows"`
	Gaps         int64          `db:"gaps"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
}

const (
	RunStatusRunning  = "running"
	RunStatusSuccess  = "success"
	RunStatusDegraded = "degraded"
	RunStatusFailed   = "failed"
)
