package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/drivamotors/tidesync/internal/schema"
)

// MockExtractor is a test double for the Extractor interface. Tables holds
// the full source contents; RowsAfter filters on the primary-key position of
// the configured snapshot. Safe for concurrent use.
type MockExtractor struct {
	mu sync.Mutex

	ConnectErr error
	ColumnsErr error
	RowsErr    error
	CountErr   error

	// Snapshots maps table name to its ordered column list.
	Snapshots map[string][]string
	// Tables maps table name to all of its rows, values positional per the
	// table's snapshot. Primary-key values must be int64.
	Tables map[string][]schema.Row

	Connected   bool
	Closed      bool
	ColumnCalls []string
}

func (m *MockExtractor) Connect(_ context.Context) error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *MockExtractor) Columns(_ context.Context, table string) (schema.Snapshot, error) {
	m.mu.Lock()
	m.ColumnCalls = append(m.ColumnCalls, table)
	m.mu.Unlock()
	if m.ColumnsErr != nil {
		return schema.Snapshot{Table: table}, m.ColumnsErr
	}
	cols, ok := m.Snapshots[table]
	if !ok {
		return schema.Snapshot{Table: table}, nil
	}
	return schema.Snapshot{Table: table, Columns: cols}, nil
}

func (m *MockExtractor) RowsAfter(_ context.Context, snap schema.Snapshot, pkColumn string, watermark int64) ([]schema.Row, error) {
	if m.RowsErr != nil {
		return nil, m.RowsErr
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	pkIdx := -1
	for i, c := range snap.Columns {
		if c == pkColumn {
			pkIdx = i
			break
		}
	}
	if pkIdx < 0 {
		return nil, fmt.Errorf("column %s does not exist in table %s", pkColumn, snap.Table)
	}

	var out []schema.Row
	for _, row := range m.Tables[snap.Table] {
		if row[pkIdx].(int64) > watermark {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][pkIdx].(int64) < out[j][pkIdx].(int64)
	})
	return out, nil
}

func (m *MockExtractor) CountAfter(ctx context.Context, table, pkColumn string, watermark int64) (int64, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	snap, err := m.Columns(ctx, table)
	if err != nil {
		return 0, err
	}
	rows, err := m.RowsAfter(ctx, snap, pkColumn, watermark)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (m *MockExtractor) Close() error {
	m.Closed = true
	return nil
}

// compile-time interface check
var _ Extractor = (*MockExtractor)(nil)
