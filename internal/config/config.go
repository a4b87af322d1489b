// Package config loads the analyzer configuration file.
//
// Configuration is YAML. Every field has a default, so an empty file (or no
// file) is valid; command-line flags override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSONL  = "jsonl"
	FormatSQLite = "sqlite"
)

// Config is the analyzer configuration.
type Config struct {
	// GlobalObjectID is the id the instrumentation reserves for the global
	// object. Defaults to 1.
	GlobalObjectID int64 `yaml:"global_object_id"`

	Output  Output  `yaml:"output"`
	Metrics Metrics `yaml:"metrics"`
	Log     Log     `yaml:"log"`
}

// Output selects where records go.
type Output struct {
	// Format is "jsonl" (default) or "sqlite".
	Format string `yaml:"format"`

	// Path is the JSONL output file. Empty or "-" means stdout.
	Path string `yaml:"path"`

	// DB is the SQLite database path, required for the sqlite format.
	DB string `yaml:"db"`
}

// Metrics configures the Prometheus textfile written at exit.
type Metrics struct {
	// Textfile is the output path. Empty disables metrics output.
	Textfile string `yaml:"textfile"`
}

// Log configures the slog handler.
type Log struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		GlobalObjectID: 1,
		Output:         Output{Format: FormatJSONL},
		Log:            Log{Level: "info"},
	}
}

// Load reads and validates the configuration file at path. Fields absent
// from the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.GlobalObjectID <= 0 {
		return fmt.Errorf("global_object_id must be positive, got %d", c.GlobalObjectID)
	}

	switch c.Output.Format {
	case FormatJSONL:
	case FormatSQLite:
		if c.Output.DB == "" {
			return fmt.Errorf("output.db is required for format %q", FormatSQLite)
		}
	default:
		return fmt.Errorf("output.format must be %q or %q, got %q", FormatJSONL, FormatSQLite, c.Output.Format)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level. Validate must have passed.
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
}
