package dest

import (
	"context"
	"fmt"
	"sync"

	"github.com/drivamotors/tidesync/internal/schema"
)

// MockWriter is a test double for the Writer interface. Inserted rows are
// appended to Stored so tests can assert both contents and the snapshot the
// insert was issued under. Safe for concurrent use, since the runner may
// drive several tables at once.
type MockWriter struct {
	mu sync.Mutex

	ConnectErr error
	MaxErr     error
	InsertErr  error

	// Max maps table name to the watermark to report. A table missing from
	// the map reads as 0 (empty destination table).
	Max map[string]int64
	// MissingTables lists tables whose watermark read should fail, the way
	// a SQL MAX on an absent table does.
	MissingTables map[string]bool
	// FailAfter, when > 0, fails the insert after that many rows of a
	// batch have been written (partial-batch failure).
	FailAfter int

	Stored    map[string][]schema.Row
	Snapshots map[string]schema.Snapshot

	Connected bool
	Closed    bool
}

func (m *MockWriter) Connect(_ context.Context) error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *MockWriter) MaxPrimaryKey(_ context.Context, table, pkColumn string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MaxErr != nil {
		return 0, m.MaxErr
	}
	if m.MissingTables[table] {
		return 0, fmt.Errorf("relation %q does not exist", table)
	}
	if m.Max != nil {
		if v, ok := m.Max[table]; ok {
			return v, nil
		}
	}
	return 0, nil
}

func (m *MockWriter) InsertRows(_ context.Context, snap schema.Snapshot, rows []schema.Row) (int64, error) {
	if err := snap.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Stored == nil {
		m.Stored = make(map[string][]schema.Row)
	}
	if m.Snapshots == nil {
		m.Snapshots = make(map[string]schema.Snapshot)
	}
	m.Snapshots[snap.Table] = snap

	var written int64
	for _, row := range rows {
		if m.FailAfter > 0 && written >= int64(m.FailAfter) {
			return written, fmt.Errorf("inserting into %s: simulated failure after %d rows", snap.Table, written)
		}
		if m.InsertErr != nil {
			return written, m.InsertErr
		}
		m.Stored[snap.Table] = append(m.Stored[snap.Table], row)
		written++

		// Keep the reported watermark in line with committed rows so a
		// re-run against the mock recomputes past them.
		if idx := snap.PrimaryKeyIndex(); idx >= 0 {
			if pk, ok := row[idx].(int64); ok {
				if m.Max == nil {
					m.Max = make(map[string]int64)
				}
				if pk > m.Max[snap.Table] {
					m.Max[snap.Table] = pk
				}
			}
		}
	}
	return written, nil
}

func (m *MockWriter) Close(_ context.Context) error {
	m.Closed = true
	return nil
}

// compile-time interface check
var _ Writer = (*MockWriter)(nil)
