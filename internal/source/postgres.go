package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drivamotors/tidesync/internal/schema"
)

// PostgresExtractor implements Extractor for PostgreSQL using pgx.
type PostgresExtractor struct {
	connStr  string
	pgSchema string
	pool     *pgxpool.Pool
}

// NewPostgresExtractor creates a new PostgreSQL extractor.
func NewPostgresExtractor(connStr, pgSchema string) *PostgresExtractor {
	if pgSchema == "" {
		pgSchema = "public"
	}
	return &PostgresExtractor{connStr: connStr, pgSchema: pgSchema}
}

func (e *PostgresExtractor) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(e.connStr)
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
	e.pool = pool
	return nil
}

func (e *PostgresExtractor) Columns(ctx context.Context, table string) (schema.Snapshot, error) {
	snap := schema.Snapshot{Table: table}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return snap, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := conn.Query(ctx, query, e.pgSchema, table)
	if err != nil {
		return snap, fmt.Errorf("querying catalog for %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return snap, fmt.Errorf("scanning column name: %w", err)
		}
		snap.Columns = append(snap.Columns, name)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterating catalog rows: %w", err)
	}
	return snap, nil
}

func (e *PostgresExtractor) RowsAfter(ctx context.Context, snap schema.Snapshot, pkColumn string, watermark int64) ([]schema.Row, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	quoted := make([]string, len(snap.Columns))
	for i, c := range snap.Columns {
		quoted[i] = quoteIdentPg(c)
	}
	sql := fmt.Sprintf("SELECT %s FROM %s.%s WHERE %s > $1 ORDER BY %s",
		strings.Join(quoted, ", "),
		quoteIdentPg(e.pgSchema), quoteIdentPg(snap.Table),
		quoteIdentPg(pkColumn), quoteIdentPg(pkColumn))

	rows, err := conn.Query(ctx, sql, watermark)
	if err != nil {
		return nil, fmt.Errorf("extracting from %s: %w", snap.Table, err)
	}
	defer rows.Close()

	var out []schema.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scanning row from %s: %w", snap.Table, err)
		}
		out = append(out, schema.Row(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows from %s: %w", snap.Table, err)
	}
	return out, nil
}

func (e *PostgresExtractor) CountAfter(ctx context.Context, table, pkColumn string, watermark int64) (int64, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s WHERE %s > $1",
		quoteIdentPg(e.pgSchema), quoteIdentPg(table), quoteIdentPg(pkColumn))

	var count int64
	if err := conn.QueryRow(ctx, sql, watermark).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting pending rows in %s: %w", table, err)
	}
	return count, nil
}

func (e *PostgresExtractor) Close() error {
	if e.pool != nil {
		e.pool.Close()
	}
	return nil
}

func quoteIdentPg(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// compile-time interface check
var _ Extractor = (*PostgresExtractor)(nil)
