package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "tidesync",
	Short: "tidesync — incremental table replication into an analytical store",
	Long: `tidesync replicates a fixed set of relational tables from an operational
database into an analytical destination store, incrementally. Each table's
integer primary key (ID_<table>) is the watermark: every run reads the highest
key already present at the destination and appends only the source rows above
it.

The scheduler that decides cadence, retries and alerting lives outside this
tool; it calls "tidesync run" once per cycle.`,
	SilenceUsage: true,
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.tidesync/tidesync.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
