package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drivamotors/tidesync/internal/config"
)

// Setup initializes the logger with file and stderr output. Scheduler-driven
// runs usually capture stderr, so both sinks get the same text handler.
func Setup(level, directory string) (*slog.Logger, error) {
	if directory == "" {
		directory = config.ExpandHome("~/.tidesync/logs/")
	} else {
		directory = config.ExpandHome(directory)
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	filename := fmt.Sprintf("tidesync-%s.log", time.Now().Format("2006-01-02"))
	logPath := filepath.Join(directory, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	writer := io.MultiWriter(os.Stderr, file)

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	return slog.New(handler), nil
}

// ParseLevel maps a config level string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
