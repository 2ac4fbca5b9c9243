package sync

import (
	"fmt"
	"strings"
	"time"
)

// TableResult is one table's outcome within a run.
type TableResult struct {
	Table             string `json:"table"`
	Kind              string `json:"kind"`
	Stats             Stats  `json:"stats"`
	Error             string `json:"error,omitempty"`
	WatermarkAdvanced bool   `json:"watermark_advanced"`
}

// RunReport is the explicit per-table verdict of a full-load or
// incremental run. A run never reports silent partial success: every
// table appears, failed ones with their error.
type RunReport struct {
	Mode        string        `json:"mode"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Tables      []TableResult `json:"tables"`
	Degraded    bool          `json:"degraded"`
}

func (r *RunReport) TotalApplied() int64 {
	var n int64
	for _, t := range r.Tables {
		n += int64(t.Stats.Applied)
	}
	return n
}

func (r *RunReport) TotalGaps() int64 {
	var n int64
	for _, t := range r.Tables {
		n += int64(t.Stats.Skipped)
	}
	return n
}

// SyncedTables names the tables whose watermark advanced this run.
func (r *RunReport) SyncedTables() string {
	var names []string
	for _, t := range r.Tables {
		if t.WatermarkAdvanced {
			names = append(names, t.Table)
		}
	}
	return strings.Join(names, ",")
}

// Errors joins the per-table failures into one message, empty when clean.
func (r *RunReport) Errors() string {
	var msgs []string
	for _, t := range r.Tables {
		if t.Error != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", t.Table, t.Error))
		}
	}
	return strings.Join(msgs, "; ")
}

// Summary renders the human-readable per-table verdict.
func (r *RunReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s run started %s\n", r.Mode, r.StartedAt.Format(time.RFC3339))
	for _, t := range r.Tables {
		if t.Error != "" {
			fmt.Fprintf(&b, "  %-14s FAILED  %s\n", t.Table, t.Error)
			continue
		}
		fmt.Fprintf(&b, "  %-14s ok      extracted=%d applied=%d skipped=%d\n",
			t.Table, t.Stats.Extracted, t.Stats.Applied, t.Stats.Skipped)
	}
	if r.Degraded {
		b.WriteString("run DEGRADED: one or more tables failed, their watermarks were not advanced\n")
	} else {
		b.WriteString("run complete\n")
	}
	return b.String()
}
