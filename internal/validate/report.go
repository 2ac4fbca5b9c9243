package validate

import (
	"fmt"
	"strings"
	"time"
)

const (
	VerdictSuccess = "SUCCESS"
	VerdictFailed  = "FAILED"
)

// Result is one check's outcome, with the values that were compared.
type Result struct {
	Name     string `json:"name"`
	Pass     bool   `json:"pass"`
	Critical bool   `json:"critical"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Detail   string `json:"detail,omitempty"`
}

// Report aggregates every executed check into an overall verdict.
type Report struct {
	Days      int       `json:"days"`
	From      time.Time `json:"from"`
	Tolerance float64   `json:"tolerance"`
	Results   []Result  `json:"results"`
	Aborted   bool      `json:"aborted"`
	Verdict   string    `json:"verdict"`
}

func (r *Report) Failed() bool {
	return r.Verdict != VerdictSuccess
}

// Summary renders the human-readable per-check verdict.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation over last %d days (since %s, tolerance %.2f)\n",
		r.Days, r.From.Format("2006-01-02"), r.Tolerance)
	for _, res := range r.Results {
		status := "ok"
		if !res.Pass {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "  %-24s %-6s expected=%s actual=%s", res.Name, status, res.Expected, res.Actual)
		if res.Detail != "" {
			fmt.Fprintf(&b, " (%s)", res.Detail)
		}
		b.WriteString("\n")
	}
	if r.Aborted {
		b.WriteString("remaining checks skipped after critical failure\n")
	}
	fmt.Fprintf(&b, "overall verdict: %s\n", r.Verdict)
	return b.String()
}
