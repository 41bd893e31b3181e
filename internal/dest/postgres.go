package dest

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drivamotors/tidesync/internal/schema"
)

// PostgresWriter implements Writer for a PostgreSQL destination using pgx.
type PostgresWriter struct {
	connStr       string
	pgSchema      string
	transactional bool
	pool          *pgxpool.Pool
}

// NewPostgresWriter creates a new PostgreSQL writer. With transactional set,
// each table's insert batch runs in a single transaction.
func NewPostgresWriter(connStr, pgSchema string, transactional bool) *PostgresWriter {
	if pgSchema == "" {
		pgSchema = "public"
	}
	return &PostgresWriter{connStr: connStr, pgSchema: pgSchema, transactional: transactional}
}

func (w *PostgresWriter) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(w.connStr)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	w.pool = pool
	return nil
}

func (w *PostgresWriter) MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	sql := fmt.Sprintf("SELECT MAX(%s) FROM %s.%s",
		quoteIdent(pkColumn), quoteIdent(w.pgSchema), quoteIdent(table))

	var max *int64
	if err := conn.QueryRow(ctx, sql).Scan(&max); err != nil {
		return 0, fmt.Errorf("reading watermark for %s: %w", table, err)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (w *PostgresWriter) InsertRows(ctx context.Context, snap schema.Snapshot, rows []schema.Row) (int64, error) {
	if err := snap.Validate(); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	quoted := make([]string, len(snap.Columns))
	placeholders := make([]string, len(snap.Columns))
	for i, c := range snap.Columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES (%s)",
		quoteIdent(w.pgSchema), quoteIdent(snap.Table),
		strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if w.transactional {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return 0, fmt.Errorf("beginning transaction: %w", err)
		}
		for i, row := range rows {
			if _, err := tx.Exec(ctx, sql, row...); err != nil {
				_ = tx.Rollback(ctx)
				return 0, fmt.Errorf("inserting row %d into %s: %w", i, snap.Table, err)
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, fmt.Errorf("committing inserts into %s: %w", snap.Table, err)
		}
		return int64(len(rows)), nil
	}

	var written int64
	for i, row := range rows {
		if _, err := conn.Exec(ctx, sql, row...); err != nil {
			return written, fmt.Errorf("inserting row %d into %s: %w", i, snap.Table, err)
		}
		written++
	}
	return written, nil
}

func (w *PostgresWriter) Close(_ context.Context) error {
	if w.pool != nil {
		w.pool.Close()
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// compile-time interface check
var _ Writer = (*PostgresWriter)(nil)
