package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drivamotors/tidesync/internal/preflight"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration against both stores",
	Long: `Verify, without moving any rows, that every configured table exists in the
source with its conventional ID_<table> primary-key column and that its
watermark is readable from the destination.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
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

		result, err := preflight.Run(ctx, cfg.Tables, src, dst)
		if err != nil {
			return err
		}

		for _, c := range result.Checks {
			if c.Passed {
				fmt.Printf("%s %-20s %s\n", okStyle.Render("✓"), c.Table, c.Name)
			} else {
				fmt.Printf("%s %-20s %s: %s\n", failStyle.Render("✗"), c.Table, c.Name, c.Message)
			}
		}

		if !result.Passed {
			return fmt.Errorf("validation failed for tables: %v", result.FailedTables())
		}
		fmt.Println(okStyle.Render("configuration valid"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
