package source

import (
	"context"

	"github.com/drivamotors/tidesync/internal/schema"
)

// Extractor provides read access to the operational source database. Column
// discovery and row extraction both happen here; the destination never sees
// anything but the resulting snapshot and row tuples.
type Extractor interface {
	Connect(ctx context.Context) error

	// Columns fetches the ordered column set of a table from the store's
	// catalog. Called once per table per run; the result is never cached,
	// so columns added on the source appear on the next run.
	Columns(ctx context.Context, table string) (schema.Snapshot, error)

	// RowsAfter returns every row of the snapshot's table whose pkColumn
	// value is strictly greater than watermark, projected over the
	// snapshot's columns in snapshot order, sorted by pkColumn ascending.
	RowsAfter(ctx context.Context, snap schema.Snapshot, pkColumn string, watermark int64) ([]schema.Row, error)

	// CountAfter reports how many rows RowsAfter would return, without
	// transferring them.
	CountAfter(ctx context.Context, table, pkColumn string, watermark int64) (int64, error)

	Close() error
}
