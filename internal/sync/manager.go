package sync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"analytics-sync-service/internal/validate"
)

// Manager serializes engine runs for the long-running serve mode. The
// engine itself assumes a single runner; the manager is that lock for one
// process. Multiple processes still need external serialization.
type Manager struct {
	inc       *Incremental
	validator *validate.Validator
	log       *zap.Logger

	mu         sync.Mutex
	running    bool
	lastReport *RunReport
}

func NewManager(inc *Incremental, validator *validate.Validator, log *zap.Logger) *Manager {
	return &Manager{inc: inc, validator: validator, log: log}
}

// RunIncremental executes one incremental pass, rejecting overlap.
func (m *Manager) RunIncremental(ctx context.Context) (*RunReport, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, ErrRunInProgress
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	report, err := m.inc.Run(ctx)
	if report != nil {
		m.mu.Lock()
		m.lastReport = report
		m.mu.Unlock()
	}
	return report, err
}

// RunValidation is read-only against both stores and may overlap a sync.
func (m *Manager) RunValidation(ctx context.Context, days int) (*validate.Report, error) {
	return m.validator.Run(ctx, days)
}

type Status struct {
	Running    bool       `json:"running"`
	LastReport *RunReport `json:"last_report,omitempty"`
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{Running: m.running, LastReport: m.lastReport}
}
