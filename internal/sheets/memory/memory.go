// Package memory is an in-process record mirror used when no spreadsheet
// is configured and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"scontrini/internal/core"
	"scontrini/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows map[int64]core.RecordDetail
	// Fail, when set, is returned by every write.
	Fail error
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[int64]core.RecordDetail)}
}

// UpsertRecord stores a copy of d.
func (m *Mirror) UpsertRecord(_ context.Context, d core.RecordDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	d.Record = d.Record.Clone()
	m.rows[d.ID] = d
	return nil
}

func (m *Mirror) DeleteRecord(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	delete(m.rows, id)
	return nil
}

// ListRecordIDs returns the mirrored ids in ascending order.
func (m *Mirror) ListRecordIDs(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Get returns the mirrored row of id.
func (m *Mirror) Get(id int64) (core.RecordDetail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	return d, ok
}

// Len returns the number of mirrored rows.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
