package replicate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/drivamotors/tidesync/internal/dest"
	"github.com/drivamotors/tidesync/internal/schema"
	"github.com/drivamotors/tidesync/internal/source"
)

// Pipeline is the two-step incremental sync for one table: read the
// destination watermark, then extract and append every source row whose
// primary key exceeds it. Pipelines hold no state of record; the watermark is
// recomputed from the destination's actual contents on every run.
type Pipeline struct {
	Table  string
	Source source.Extractor
	Dest   dest.Writer
	Logger *slog.Logger
}

// TableResult describes one table's run.
type TableResult struct {
	Table           string        `json:"table"`
	Status          string        `json:"status"` // "completed" or "failed"
	WatermarkBefore int64         `json:"watermark_before"`
	WatermarkAfter  int64         `json:"watermark_after"`
	RowsCopied      int64         `json:"rows_copied"`
	Duration        time.Duration `json:"duration"`
	Error           string        `json:"error,omitempty"`

	// Err carries the failure for callers that branch on it; Error is the
	// serialized form for the run report.
	Err error `json:"-"`
}

// ReadWatermark returns the highest primary-key value already present in the
// destination table, or 0 for an empty table. The value is a lower-exclusive
// bound: the load fetches rows strictly greater than it.
func (p *Pipeline) ReadWatermark(ctx context.Context) (int64, error) {
	pk := schema.PrimaryKeyColumn(p.Table)
	wm, err := p.Dest.MaxPrimaryKey(ctx, p.Table, pk)
	if err != nil {
		return 0, fmt.Errorf("reading watermark for %s: %w", p.Table, err)
	}
	return wm, nil
}

// Load discovers the table's column set from the source catalog, extracts all
// rows past the watermark, and appends them to the destination under the same
// column list. An empty delta is the steady state and a successful no-op.
func (p *Pipeline) Load(ctx context.Context, watermark int64) (int64, error) {
	snap, err := p.Source.Columns(ctx, p.Table)
	if err != nil {
		return 0, fmt.Errorf("discovering columns for %s: %w", p.Table, err)
	}
	if err := snap.Validate(); err != nil {
		return 0, err
	}

	pk := schema.PrimaryKeyColumn(p.Table)
	rows, err := p.Source.RowsAfter(ctx, snap, pk, watermark)
	if err != nil {
		return 0, fmt.Errorf("extracting delta for %s: %w", p.Table, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	written, err := p.Dest.InsertRows(ctx, snap, rows)
	if err != nil {
		// Already-committed rows stay; the next run's watermark
		// recomputes past them.
		return written, fmt.Errorf("loading %s: %w", p.Table, err)
	}
	return written, nil
}

// Run executes the full pipeline for the table and never panics across the
// store boundary: every failure lands in the result.
func (p *Pipeline) Run(ctx context.Context) TableResult {
	start := time.Now()
	log := p.logger().With("table", p.Table)

	res := TableResult{Table: p.Table, Status: "completed"}

	wm, err := p.ReadWatermark(ctx)
	if err != nil {
		return p.fail(res, start, log, err)
	}
	res.WatermarkBefore = wm
	res.WatermarkAfter = wm
	log.Info("watermark read", "watermark", wm)

	written, err := p.Load(ctx, wm)
	res.RowsCopied = written
	if err != nil {
		return p.fail(res, start, log, err)
	}

	if after, err := p.ReadWatermark(ctx); err != nil {
		// The rows are committed; the stale WatermarkAfter only affects
		// the report, so log instead of failing the table.
		log.Warn("post-load watermark re-read failed", "error", err)
	} else {
		res.WatermarkAfter = after
	}

	res.Duration = time.Since(start)
	log.Info("table replicated", "rows", written, "duration", res.Duration)
	return res
}

func (p *Pipeline) fail(res TableResult, start time.Time, log *slog.Logger, err error) TableResult {
	res.Status = "failed"
	res.Err = err
	res.Error = err.Error()
	res.Duration = time.Since(start)
	log.Error("table replication failed", "error", err, "rows_committed", res.RowsCopied)
	return res
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
