package schema

import (
	"errors"
	"fmt"
)

// PKPrefix is the fixed prefix of every replicated table's primary-key
// column: table "vendas" carries its key in "ID_vendas".
const PKPrefix = "ID_"

// ErrNoColumns indicates the source catalog returned zero columns for a
// table, which means the table is absent or was renamed on the source.
var ErrNoColumns = errors.New("no columns discovered")

// Row is one extracted row as an ordered value tuple. Values are positional:
// index i holds the value of the i-th column of the Snapshot the row was
// extracted under.
type Row []any

// Snapshot is the ordered column set of one table, captured from the source
// catalog at the start of a load. The same snapshot drives both the
// extraction projection and the destination insert column list, so positional
// value-to-column correspondence survives the store boundary. Snapshots are
// never cached across runs.
type Snapshot struct {
	Table   string
	Columns []string
}

// PrimaryKeyColumn returns the conventional primary-key column name for a
// table.
func PrimaryKeyColumn(table string) string {
	return PKPrefix + table
}

// Validate reports whether the snapshot is usable for a load.
func (s Snapshot) Validate() error {
	if s.Table == "" {
		return errors.New("snapshot has no table name")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("table %s: %w", s.Table, ErrNoColumns)
	}
	return nil
}

// HasColumn reports whether the snapshot contains the named column.
func (s Snapshot) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// PrimaryKeyIndex returns the position of the table's conventional
// primary-key column within the snapshot, or -1 when absent.
func (s Snapshot) PrimaryKeyIndex() int {
	pk := PrimaryKeyColumn(s.Table)
	for i, c := range s.Columns {
		if c == pk {
			return i
		}
	}
	return -1
}
