package preflight

import (
	"context"
	"fmt"

	"github.com/drivamotors/tidesync/internal/dest"
	"github.com/drivamotors/tidesync/internal/schema"
	"github.com/drivamotors/tidesync/internal/source"
)

// Check is one go/no-go condition for one table.
type Check struct {
	Table   string `json:"table"`
	Name    string `json:"name"` // "source_table", "source_pk", "destination_table"
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// Result aggregates all checks across the configured table set.
type Result struct {
	Checks []Check `json:"checks"`
	Passed bool    `json:"passed"`
}

// Run verifies the replication configuration against both stores before any
// rows move: every configured table must exist in the source with its
// conventional primary-key column, and its watermark must be readable from
// the destination. A source catalog error aborts immediately; every other
// failure, including a destination watermark read that errors, is recorded
// per table so one bad table doesn't hide the others.
func Run(ctx context.Context, tables []string, src source.Extractor, dst dest.Writer) (*Result, error) {
	result := &Result{Passed: true}

	for _, table := range tables {
		pk := schema.PrimaryKeyColumn(table)

		snap, err := src.Columns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("querying source catalog for %s: %w", table, err)
		}

		tableCheck := Check{Table: table, Name: "source_table", Passed: true}
		if len(snap.Columns) == 0 {
			tableCheck.Passed = false
			tableCheck.Message = "table not found in source catalog"
		}
		result.add(tableCheck)

		pkCheck := Check{Table: table, Name: "source_pk", Passed: true}
		if !snap.HasColumn(pk) {
			pkCheck.Passed = false
			pkCheck.Message = fmt.Sprintf("column %s not found (naming convention %s<table>)", pk, schema.PKPrefix)
		}
		result.add(pkCheck)

		dstCheck := Check{Table: table, Name: "destination_table", Passed: true}
		if _, err := dst.MaxPrimaryKey(ctx, table, pk); err != nil {
			dstCheck.Passed = false
			dstCheck.Message = fmt.Sprintf("watermark read failed: %v", err)
		}
		result.add(dstCheck)
	}

	return result, nil
}

// FailedTables lists tables with at least one failed check, in input order.
func (r *Result) FailedTables() []string {
	seen := make(map[string]bool)
	var failed []string
	for _, c := range r.Checks {
		if !c.Passed && !seen[c.Table] {
			seen[c.Table] = true
			failed = append(failed, c.Table)
		}
	}
	return failed
}

func (r *Result) add(c Check) {
	if !c.Passed {
		r.Passed = false
	}
	r.Checks = append(r.Checks, c)
}
