package dest

import (
	"context"

	"github.com/drivamotors/tidesync/internal/schema"
)

// Writer appends replicated rows to the analytical destination store.
type Writer interface {
	Connect(ctx context.Context) error

	// MaxPrimaryKey returns the highest pkColumn value currently stored in
	// the destination table, or 0 when the table holds no rows. A missing
	// table or column is an error, not a zero.
	MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error)

	// InsertRows appends the rows to the snapshot's table, values bound
	// positionally to the snapshot's column list. Insertion is
	// row-at-a-time; on failure the returned count is how many rows were
	// committed before the failing one. A transactional writer commits all
	// or nothing instead.
	InsertRows(ctx context.Context, snap schema.Snapshot, rows []schema.Row) (int64, error)

	Close(ctx context.Context) error
}
