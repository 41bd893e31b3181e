package replicate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/drivamotors/tidesync/internal/dest"
	"github.com/drivamotors/tidesync/internal/source"
)

// Runner drives one pipeline per configured table. Tables have no declared
// dependency on each other, so they may run concurrently; a failed table
// never stops its siblings.
type Runner struct {
	Tables []string
	Source source.Extractor
	Dest   dest.Writer
	Logger *slog.Logger

	// Parallel caps how many tables run at once. Zero or one means
	// sequential in configuration order.
	Parallel int
}

// RunResult is the outcome of a whole run across the table set.
type RunResult struct {
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Tables      []TableResult `json:"tables"`
}

// Failed returns the names of tables whose pipeline failed.
func (r *RunResult) Failed() []string {
	var failed []string
	for _, t := range r.Tables {
		if t.Status == "failed" {
			failed = append(failed, t.Table)
		}
	}
	return failed
}

// RowsCopied sums rows written across all tables.
func (r *RunResult) RowsCopied() int64 {
	var total int64
	for _, t := range r.Tables {
		total += t.RowsCopied
	}
	return total
}

// Run executes every table's pipeline and returns the per-table results in
// configuration order. The returned error is non-nil when at least one table
// failed, after all tables have been attempted.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		StartedAt: time.Now(),
		Tables:    make([]TableResult, len(r.Tables)),
	}

	g, gctx := errgroup.WithContext(ctx)
	limit := r.Parallel
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, table := range r.Tables {
		g.Go(func() error {
			p := &Pipeline{
				Table:  table,
				Source: r.Source,
				Dest:   r.Dest,
				Logger: r.Logger,
			}
			result.Tables[i] = p.Run(gctx)
			// Failures are reported through the result so sibling
			// tables keep running.
			return nil
		})
	}
	_ = g.Wait()

	result.CompletedAt = time.Now()
	if failed := result.Failed(); len(failed) > 0 {
		return result, fmt.Errorf("%d of %d tables failed: %v", len(failed), len(r.Tables), failed)
	}
	return result, nil
}
