package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tidesync.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `version: 1
source:
  type: postgresql
  host: localhost
  port: 5432
  database: drivamotors
  username: etl
  password: etlpass
destination:
  type: sqlite
  path: /var/lib/tidesync/warehouse.db
tables:
  - estados
  - cidades
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Source.Type != "postgresql" {
		t.Errorf("expected source type postgresql, got %s", cfg.Source.Type)
	}
	if cfg.Source.Schema != "public" {
		t.Errorf("expected default source schema public, got %s", cfg.Source.Schema)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if len(cfg.Tables) != 2 || cfg.Tables[0] != "estados" {
		t.Errorf("unexpected tables: %v", cfg.Tables)
	}
	if cfg.Destination.Transactional {
		t.Error("transactional should default to off")
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	path := writeConfig(t, `version: 99
source:
  type: postgresql
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid version")
	}
}

func TestLoadRequiresTables(t *testing.T) {
	path := writeConfig(t, `version: 1
source:
  type: postgresql
  host: localhost
destination:
  type: sqlite
  path: w.db
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty table set")
	}
}

func TestLoadRejectsDuplicateTables(t *testing.T) {
	path := writeConfig(t, `version: 1
source:
  type: postgresql
destination:
  type: sqlite
  path: w.db
tables: [vendas, vendas]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate table")
	}
}

func TestLoadRejectsMongoTransactional(t *testing.T) {
	path := writeConfig(t, `version: 1
source:
  type: postgresql
destination:
  type: mongodb
  connection_string: "mongodb://localhost:27017"
  database: warehouse
  transactional: true
tables: [vendas]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for transactional mongodb destination")
	}
}

func TestResolveEnvSecret(t *testing.T) {
	t.Setenv("TEST_SECRET", "mysecret")
	val, err := ResolveValue("${ENV:TEST_SECRET}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "mysecret" {
		t.Errorf("expected mysecret, got %s", val)
	}
}

func TestResolveEnvSecretMissing(t *testing.T) {
	if _, err := ResolveValue("${ENV:TIDESYNC_DOES_NOT_EXIST}"); err == nil {
		t.Fatal("expected error for unset environment variable")
	}
}

func TestResolvePlainValue(t *testing.T) {
	val, err := ResolveValue("plaintext")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "plaintext" {
		t.Errorf("expected plaintext, got %s", val)
	}
}

func TestConnString(t *testing.T) {
	s := SourceConfig{Host: "db1", Port: 5432, Database: "drivamotors", Username: "etl", Password: "p", SSL: true}
	got := s.ConnString()
	want := "host=db1 port=5432 dbname=drivamotors user=etl password=p sslmode=require"
	if got != want {
		t.Errorf("ConnString = %q, want %q", got, want)
	}
}
