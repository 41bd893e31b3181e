package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/drivamotors/tidesync/internal/replicate"
	"github.com/drivamotors/tidesync/internal/report"
	"github.com/drivamotors/tidesync/internal/schema"
)

var (
	runTable    string
	runParallel int
	runDryRun   bool
	runReport   string
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replicate all configured tables once",
	Long: `Run one replication cycle: for each configured table, read the destination
watermark and append every source row whose primary key exceeds it. This is
the entry point the external scheduler invokes per cycle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := setupLogger(cfg)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tables := cfg.Tables
		if runTable != "" {
			tables = []string{runTable}
		}

		src, err := openSource(ctx, cfg)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := openDest(ctx, cfg)
		if err != nil {
			return err
		}
		defer dst.Close(ctx)

		if runDryRun {
			for _, table := range tables {
				pk := schema.PrimaryKeyColumn(table)
				wm, err := dst.MaxPrimaryKey(ctx, table, pk)
				if err != nil {
					return fmt.Errorf("reading watermark for %s: %w", table, err)
				}
				pending, err := src.CountAfter(ctx, table, pk, wm)
				if err != nil {
					return fmt.Errorf("counting pending rows for %s: %w", table, err)
				}
				fmt.Printf("%-20s watermark=%-10d pending=%d\n", table, wm, pending)
			}
			fmt.Println(dimStyle.Render("dry run — no rows written"))
			return nil
		}

		runner := &replicate.Runner{
			Tables:   tables,
			Source:   src,
			Dest:     dst,
			Logger:   logger,
			Parallel: runParallel,
		}

		logger.Info("replication run starting", "tables", len(tables), "parallel", runParallel)
		result, runErr := runner.Run(ctx)

		for _, tr := range result.Tables {
			switch tr.Status {
			case "completed":
				fmt.Printf("%s %-20s %d -> %d (%d rows)\n",
					okStyle.Render("✓"), tr.Table, tr.WatermarkBefore, tr.WatermarkAfter, tr.RowsCopied)
			default:
				fmt.Printf("%s %-20s %s\n", failStyle.Render("✗"), tr.Table, tr.Error)
			}
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d rows copied in %s",
			result.RowsCopied(), result.CompletedAt.Sub(result.StartedAt).Round(time.Millisecond))))

		reportPath := runReport
		if reportPath == "" {
			reportPath = report.DefaultPath(result.StartedAt)
		}
		if err := report.Generate(version, cfg, result).Save(reportPath); err != nil {
			logger.Warn("writing run report failed", "path", reportPath, "error", err)
		}

		// Surface per-table failures to the scheduler via the exit code;
		// retry policy is the scheduler's call.
		return runErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runTable, "table", "", "replicate only this table")
	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "how many tables to replicate concurrently")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "read watermarks and count pending rows without writing")
	runCmd.Flags().StringVar(&runReport, "report", "", "run report path (default: ~/.tidesync/reports/run-<timestamp>.json)")
	rootCmd.AddCommand(runCmd)
}
