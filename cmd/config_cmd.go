package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/drivamotors/tidesync/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tidesync configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.ExpandHome(config.DefaultPath)
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		cfg := &config.Config{
			Version: config.CurrentVersion,
			Source: config.SourceConfig{
				Type:     "postgresql",
				Host:     "localhost",
				Port:     5432,
				Database: "drivamotors",
				Username: "etl",
				Password: "${ENV:TIDESYNC_SOURCE_PASSWORD}",
			},
			Destination: config.DestinationConfig{
				Type: "sqlite",
				Path: config.ExpandHome("~/.tidesync/warehouse.db"),
			},
			Tables: config.DefaultTables,
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active config with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		redacted := *cfg
		if redacted.Source.Password != "" {
			redacted.Source.Password = "********"
		}
		if redacted.Destination.Password != "" {
			redacted.Destination.Password = "********"
		}
		if redacted.Destination.ConnectionString != "" {
			redacted.Destination.ConnectionString = "********"
		}

		data, err := yaml.Marshal(&redacted)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
