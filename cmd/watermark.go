package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drivamotors/tidesync/internal/schema"
)

var watermarkCmd = &cobra.Command{
	Use:   "watermark",
	Short: "Print each configured table's current watermark",
	Long: `Read the highest replicated primary-key value for every configured table
from the destination store. The watermark is derived from the destination's
actual contents, never stored separately, so this is always current.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		dst, err := openDest(ctx, cfg)
		if err != nil {
			return err
		}
		defer dst.Close(ctx)

		var firstErr error
		for _, table := range cfg.Tables {
			wm, err := dst.MaxPrimaryKey(ctx, table, schema.PrimaryKeyColumn(table))
			if err != nil {
				fmt.Printf("%s %-20s %v\n", failStyle.Render("✗"), table, err)
				if firstErr == nil {
					firstErr = fmt.Errorf("reading watermark for %s: %w", table, err)
				}
				continue
			}
			fmt.Printf("%s %-20s %d\n", okStyle.Render("✓"), table, wm)
		}
		return firstErr
	},
}

func init() {
	rootCmd.AddCommand(watermarkCmd)
}
