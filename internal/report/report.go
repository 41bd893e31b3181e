package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/drivamotors/tidesync/internal/config"
	"github.com/drivamotors/tidesync/internal/replicate"
)

// RunReport is the machine-readable record of one replication run, written
// for the scheduler (or an operator) to inspect after the fact. The report
// is derived output only; watermarks are never read back from it.
type RunReport struct {
	Version     string                  `json:"version"`
	GeneratedAt time.Time               `json:"generated_at"`
	Source      StoreSummary            `json:"source"`
	Destination StoreSummary            `json:"destination"`
	Status      string                  `json:"status"` // "completed", "partial_failure"
	RowsCopied  int64                   `json:"rows_copied"`
	Duration    time.Duration           `json:"duration"`
	Tables      []replicate.TableResult `json:"tables"`
}

// StoreSummary identifies one side of the replication without credentials.
type StoreSummary struct {
	Type     string `json:"type"`
	Host     string `json:"host,omitempty"`
	Database string `json:"database,omitempty"`
	Path     string `json:"path,omitempty"`
}

// Generate builds a RunReport from a run's results.
func Generate(version string, cfg *config.Config, result *replicate.RunResult) *RunReport {
	status := "completed"
	if len(result.Failed()) > 0 {
		status = "partial_failure"
	}

	return &RunReport{
		Version:     version,
		GeneratedAt: time.Now(),
		Source: StoreSummary{
			Type:     cfg.Source.Type,
			Host:     cfg.Source.Host,
			Database: cfg.Source.Database,
		},
		Destination: StoreSummary{
			Type:     cfg.Destination.Type,
			Host:     cfg.Destination.Host,
			Database: cfg.Destination.Database,
			Path:     cfg.Destination.Path,
		},
		Status:     status,
		RowsCopied: result.RowsCopied(),
		Duration:   result.CompletedAt.Sub(result.StartedAt),
		Tables:     result.Tables,
	}
}

// Save writes the report as indented JSON.
func (r *RunReport) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultPath returns a timestamped report path under ~/.tidesync/reports/.
func DefaultPath(now time.Time) string {
	name := fmt.Sprintf("run-%s.json", now.Format("20060102-150405"))
	return filepath.Join(config.ExpandHome("~/.tidesync/reports/"), name)
}
