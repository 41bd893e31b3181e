package dest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Pure-Go SQLite driver
	_ "modernc.org/sqlite"

	"github.com/drivamotors/tidesync/internal/schema"
)

// SQLiteWriter implements Writer for an embedded SQLite destination. It is
// the development and test warehouse; the production path is Postgres or
// MongoDB.
type SQLiteWriter struct {
	path          string
	transactional bool
	db            *sql.DB
}

// NewSQLiteWriter creates a new SQLite writer for the database file at path.
func NewSQLiteWriter(path string, transactional bool) *SQLiteWriter {
	return &SQLiteWriter{path: path, transactional: transactional}
}

func (w *SQLiteWriter) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", w.path)
	if err != nil {
		return fmt.Errorf("opening SQLite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging SQLite: %w", err)
	}
	w.db = db
	return nil
}

func (w *SQLiteWriter) MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error) {
	conn, err := w.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	q := fmt.Sprintf("SELECT MAX(%s) FROM %s", quoteIdent(pkColumn), quoteIdent(table))

	var max sql.NullInt64
	if err := conn.QueryRowContext(ctx, q).Scan(&max); err != nil {
		return 0, fmt.Errorf("reading watermark for %s: %w", table, err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

func (w *SQLiteWriter) InsertRows(ctx context.Context, snap schema.Snapshot, rows []schema.Row) (int64, error) {
	if err := snap.Validate(); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	conn, err := w.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	quoted := make([]string, len(snap.Columns))
	placeholders := make([]string, len(snap.Columns))
	for i, c := range snap.Columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(snap.Table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if w.transactional {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("beginning transaction: %w", err)
		}
		for i, row := range rows {
			if _, err := tx.ExecContext(ctx, q, row...); err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("inserting row %d into %s: %w", i, snap.Table, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("committing inserts into %s: %w", snap.Table, err)
		}
		return int64(len(rows)), nil
	}

	var written int64
	for i, row := range rows {
		if _, err := conn.ExecContext(ctx, q, row...); err != nil {
			return written, fmt.Errorf("inserting row %d into %s: %w", i, snap.Table, err)
		}
		written++
	}
	return written, nil
}

func (w *SQLiteWriter) Close(_ context.Context) error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

// compile-time interface check
var _ Writer = (*SQLiteWriter)(nil)
