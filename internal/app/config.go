package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mattmre/taskgrid/internal/task"
)

// Config holds everything an App instance needs to run once.
type Config struct {
	// GridPath points at a grid file or a directory of grid files.
	GridPath string

	// LogFormat is "text" or "json"; LogLevel any name slog understands.
	// Empty strings select "text" and "info".
	LogFormat string
	LogLevel  string
	NoColor   bool

	// Run carries the policy knobs as parsed from the command line.
	Run task.RunConfig
	// FlagsSet names the run options the user set explicitly; those win
	// over a grid file's defaults block.
	FlagsSet map[string]bool
}

// NewConfig validates a Config and returns the effective copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("grid path is a required configuration field and cannot be empty")
	}
	if cfg.Run.ParallelLimit < 1 {
		return nil, errors.New("parallel limit must be at least 1")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.FlagsSet == nil {
		cfg.FlagsSet = map[string]bool{}
	}
	return &cfg, nil
}

// newLogger builds the app's isolated logger for one run. It never touches
// the process default logger; NewConfig has already vetted the level and
// format strings.
func (c *Config) newLogger(outW io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unsupported log level %q", s)
	}
	return level, nil
}
