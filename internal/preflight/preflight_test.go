package preflight_test

import (
	"context"
	"errors"
	"testing"

	"github.com/drivamotors/tidesync/internal/dest"
	"github.com/drivamotors/tidesync/internal/preflight"
	"github.com/drivamotors/tidesync/internal/schema"
	"github.com/drivamotors/tidesync/internal/source"
)

func TestRun_AllPassing(t *testing.T) {
	src := &source.MockExtractor{
		Snapshots: map[string][]string{
			"estados": {"ID_estados", "nome"},
			"vendas":  {"ID_vendas", "valor_pago"},
		},
		Tables: map[string][]schema.Row{},
	}
	dst := &dest.MockWriter{}

	res, err := preflight.Run(context.Background(), []string{"estados", "vendas"}, src, dst)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Passed {
		t.Errorf("expected all checks to pass: %+v", res.Checks)
	}
	if len(res.Checks) != 6 {
		t.Errorf("got %d checks, want 6", len(res.Checks))
	}
	if failed := res.FailedTables(); len(failed) != 0 {
		t.Errorf("unexpected failed tables: %v", failed)
	}
}

func TestRun_DetectsConfigurationErrors(t *testing.T) {
	src := &source.MockExtractor{
		Snapshots: map[string][]string{
			// estados lacks the conventional PK column
			"estados": {"id", "nome"},
			// "clientes" missing entirely from the source
			"vendas": {"ID_vendas", "valor_pago"},
		},
	}
	dst := &dest.MockWriter{MissingTables: map[string]bool{"vendas": true}}

	res, err := preflight.Run(context.Background(), []string{"estados", "clientes", "vendas"}, src, dst)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Passed {
		t.Fatal("expected failures")
	}

	failed := res.FailedTables()
	if len(failed) != 3 {
		t.Fatalf("failed tables = %v, want all three", failed)
	}

	byName := make(map[string]preflight.Check)
	for _, c := range res.Checks {
		byName[c.Table+"/"+c.Name] = c
	}
	if byName["estados/source_pk"].Passed {
		t.Error("estados should fail the naming convention check")
	}
	if byName["clientes/source_table"].Passed {
		t.Error("clientes should fail the source table check")
	}
	if byName["vendas/destination_table"].Passed {
		t.Error("vendas should fail the destination check")
	}
	if byName["vendas/source_table"].Passed != true {
		t.Error("vendas exists at the source; that check should pass")
	}
}

func TestRun_DestinationOutageRecordedPerTable(t *testing.T) {
	src := &source.MockExtractor{
		Snapshots: map[string][]string{
			"estados": {"ID_estados", "nome"},
			"cidades": {"ID_cidades", "nome"},
		},
	}
	dst := &dest.MockWriter{MaxErr: errors.New("connection refused")}

	res, err := preflight.Run(context.Background(), []string{"estados", "cidades"}, src, dst)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Passed {
		t.Fatal("expected destination checks to fail")
	}

	var dstFailures int
	for _, c := range res.Checks {
		switch c.Name {
		case "destination_table":
			if c.Passed {
				t.Errorf("%s destination check should fail", c.Table)
			}
			dstFailures++
		default:
			if !c.Passed {
				t.Errorf("%s/%s should still pass", c.Table, c.Name)
			}
		}
	}
	if dstFailures != 2 {
		t.Errorf("got %d destination checks, want one per table", dstFailures)
	}
}

func TestRun_ConnectivityErrorAborts(t *testing.T) {
	src := &source.MockExtractor{ColumnsErr: errors.New("connection refused")}
	dst := &dest.MockWriter{}

	if _, err := preflight.Run(context.Background(), []string{"estados"}, src, dst); err == nil {
		t.Fatal("expected connectivity error to surface immediately")
	}
}
