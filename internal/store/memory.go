package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and as a scratch state
// backend. Watermark reads and writes are atomic under the mutex.
type MemoryStore struct {
	mu         sync.Mutex
	watermarks map[string]time.Time
	runs       []*RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{watermarks: make(map[string]time.Time)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) GetWatermark(_ context.Context, table string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts, ok := m.watermarks[table]; ok {
		return ts, nil
	}
	return Epoch, nil
}

func (m *MemoryStore) SetWatermark(_ context.Context, table string, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watermarks[table] = ts
	return nil
}

func (m *MemoryStore) SeedWatermarks(_ context.Context, tables []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, table := range tables {
		if _, ok := m.watermarks[table]; !ok {
			m.watermarks[table] = Epoch
		}
	}
	return nil
}

func (m *MemoryStore) Watermarks(_ context.Context) (map[string]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Time, len(m.watermarks))
	for k, v := range m.watermarks {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) CreateRunRecord(_ context.Context, rec *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.runs = append(m.runs, &cp)
	return nil
}

func (m *MemoryStore) FinishRunRecord(_ context.Context, rec *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.runs {
		if r.ID == rec.ID {
			cp := *rec
			m.runs[i] = &cp
			return nil
		}
	}
	cp := *rec
	m.runs = append(m.runs, &cp)
	return nil
}

func (m *MemoryStore) RunRecords(_ context.Context, limit int) ([]*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*RunRecord, 0, n)
	for i := len(m.runs) - 1; i >= 0 && len(out) < n; i-- {
		cp := *m.runs[i]
		out = append(out, &cp)
	}
	return out, nil
}
