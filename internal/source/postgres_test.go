package source_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drivamotors/tidesync/internal/schema"
	"github.com/drivamotors/tidesync/internal/source"
)

// pgTestConnStr builds a DSN from environment variables. Set
// TIDESYNC_TEST_PG_HOST (default localhost), TIDESYNC_TEST_PG_DATABASE
// (default tidesync_test), TIDESYNC_TEST_PG_USER and TIDESYNC_TEST_PG_PASSWORD
// (default postgres/postgres) to configure.
func pgTestConnStr() string {
	host := os.Getenv("TIDESYNC_TEST_PG_HOST")
	if host == "" {
		host = "localhost"
	}
	db := os.Getenv("TIDESYNC_TEST_PG_DATABASE")
	if db == "" {
		db = "tidesync_test"
	}
	user := os.Getenv("TIDESYNC_TEST_PG_USER")
	if user == "" {
		user = "postgres"
	}
	pass := os.Getenv("TIDESYNC_TEST_PG_PASSWORD")
	if pass == "" {
		pass = "postgres"
	}
	return fmt.Sprintf("host=%s port=5432 dbname=%s user=%s password=%s sslmode=disable",
		host, db, user, pass)
}

// skipIfNoPostgres skips the test if a PostgreSQL test instance is not available.
func skipIfNoPostgres(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, pgTestConnStr())
	if err != nil {
		t.Skipf("skipping: cannot connect to PostgreSQL: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skipping: cannot ping PostgreSQL: %v", err)
	}
	pool.Close()
}

// setupSourceTable creates and seeds the estados fixture table.
func setupSourceTable(t *testing.T) func() {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, pgTestConnStr())
	if err != nil {
		t.Fatalf("connect for setup: %v", err)
	}

	ddl := []string{
		`DROP TABLE IF EXISTS estados`,
		`CREATE TABLE estados ("ID_estados" BIGINT PRIMARY KEY, nome TEXT, sigla TEXT)`,
		`INSERT INTO estados VALUES
			(1, 'Acre', 'AC'),
			(2, 'Bahia', 'BA'),
			(3, 'Ceara', 'CE'),
			(4, 'Goias', 'GO'),
			(5, 'Parana', 'PR')`,
	}
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			t.Fatalf("setup statement failed: %v", err)
		}
	}

	return func() {
		_, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS estados`)
		pool.Close()
	}
}

func TestPostgresExtractor_Columns(t *testing.T) {
	skipIfNoPostgres(t)
	cleanup := setupSourceTable(t)
	defer cleanup()

	ctx := context.Background()
	ext := source.NewPostgresExtractor(pgTestConnStr(), "public")
	if err := ext.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ext.Close()

	snap, err := ext.Columns(ctx, "estados")
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	want := []string{"ID_estados", "nome", "sigla"}
	if len(snap.Columns) != len(want) {
		t.Fatalf("got %d columns, want %d: %v", len(snap.Columns), len(want), snap.Columns)
	}
	for i, c := range want {
		if snap.Columns[i] != c {
			t.Errorf("column %d = %q, want %q", i, snap.Columns[i], c)
		}
	}

	// Absent table yields an empty snapshot, not an error
	absent, err := ext.Columns(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("columns for absent table: %v", err)
	}
	if err := absent.Validate(); err == nil {
		t.Error("expected empty snapshot for absent table")
	}
}

func TestPostgresExtractor_RowsAfter(t *testing.T) {
	skipIfNoPostgres(t)
	cleanup := setupSourceTable(t)
	defer cleanup()

	ctx := context.Background()
	ext := source.NewPostgresExtractor(pgTestConnStr(), "public")
	if err := ext.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ext.Close()

	snap, err := ext.Columns(ctx, "estados")
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	pk := schema.PrimaryKeyColumn("estados")

	rows, err := ext.RowsAfter(ctx, snap, pk, 3)
	if err != nil {
		t.Fatalf("rows after 3: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if id := rows[0][0].(int64); id != 4 {
		t.Errorf("first delta row ID = %d, want 4", id)
	}
	if id := rows[1][0].(int64); id != 5 {
		t.Errorf("second delta row ID = %d, want 5", id)
	}

	// Watermark at the source max is the steady state: no rows, no error
	none, err := ext.RowsAfter(ctx, snap, pk, 5)
	if err != nil {
		t.Fatalf("rows after 5: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d rows after max watermark, want 0", len(none))
	}

	// Watermark 0 is the full initial load
	all, err := ext.RowsAfter(ctx, snap, pk, 0)
	if err != nil {
		t.Fatalf("rows after 0: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("got %d rows for full load, want 5", len(all))
	}

	count, err := ext.CountAfter(ctx, "estados", pk, 3)
	if err != nil {
		t.Fatalf("count after 3: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
