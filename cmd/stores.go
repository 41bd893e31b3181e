package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/drivamotors/tidesync/internal/config"
	"github.com/drivamotors/tidesync/internal/dest"
	"github.com/drivamotors/tidesync/internal/logging"
	"github.com/drivamotors/tidesync/internal/source"
)

// loadConfig reads the active config, honoring the --config flag.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.ExpandHome(config.DefaultPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the run logger; --log-level overrides the config.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.Setup(level, cfg.Logging.Directory)
}

// openSource connects the configured source extractor.
func openSource(ctx context.Context, cfg *config.Config) (source.Extractor, error) {
	var ext source.Extractor
	switch cfg.Source.Type {
	case "postgresql":
		ext = source.NewPostgresExtractor(cfg.Source.ConnString(), cfg.Source.Schema)
	case "oracle":
		connStr := fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
			cfg.Source.Username, cfg.Source.Password, cfg.Source.Host, cfg.Source.Port, cfg.Source.Database)
		owner := cfg.Source.Schema
		if owner == "" {
			owner = cfg.Source.Username
		}
		ext = source.NewOracleExtractor(connStr, owner)
	default:
		return nil, fmt.Errorf("unsupported source type %q", cfg.Source.Type)
	}
	if err := ext.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to source: %w", err)
	}
	return ext, nil
}

// openDest connects the configured destination writer.
func openDest(ctx context.Context, cfg *config.Config) (dest.Writer, error) {
	var w dest.Writer
	switch cfg.Destination.Type {
	case "postgresql":
		w = dest.NewPostgresWriter(cfg.Destination.ConnString(), cfg.Destination.Schema, cfg.Destination.Transactional)
	case "sqlite":
		w = dest.NewSQLiteWriter(cfg.Destination.Path, cfg.Destination.Transactional)
	case "mongodb":
		mw, err := dest.NewMongoWriter(cfg.Destination.ConnectionString, cfg.Destination.Database, cfg.Destination.Transactional)
		if err != nil {
			return nil, err
		}
		w = mw
	default:
		return nil, fmt.Errorf("unsupported destination type %q", cfg.Destination.Type)
	}
	if err := w.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to destination: %w", err)
	}
	return w, nil
}
