package sync

import "errors"

var (
	// ErrSourceUnavailable wraps any failure to query the operational
	// database. Table-scoped: the orchestrator leaves that table's
	// watermark alone and moves on.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTargetWrite wraps any failure to write the analytics store.
	// Also table-scoped; the watermark is not advanced.
	ErrTargetWrite = errors.New("target write failed")

	// ErrRunInProgress is returned by the manager when a run is requested
	// while another one holds the engine.
	ErrRunInProgress = errors.New("a sync run is already in progress")
)
