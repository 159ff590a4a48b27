// Package config loads the pipeline configuration from an optional YAML
// file and INDICADORES_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

// SinkConfig configures one extra destination besides the CSV writer.
type SinkConfig struct {
	Type        string `json:"type"`                   // "sql" | "mongo"
	Driver      string `json:"driver,omitempty"`       // sql: "sqlite" | "postgres" | "pgx" | "mysql"
	DSN         string `json:"dsn,omitempty"`          // sql
	TablePrefix string `json:"table_prefix,omitempty"` // sql
	URI         string `json:"uri,omitempty"`          // mongo
	Database    string `json:"database,omitempty"`     // mongo
}

type Config struct {
	Workbook      string       `json:"workbook"`
	SourceType    string       `json:"source_type"`
	OutputDir     string       `json:"output_dir"`
	HistoryDB     string       `json:"history_db"`
	HistoryKeep   int          `json:"history_keep"`
	LogLevel      string       `json:"log_level"`
	LogFormat     string       `json:"log_format"`
	Schedule      string       `json:"schedule"`
	WatchDebounce string       `json:"watch_debounce"`
	WritePartial  bool         `json:"write_partial"`
	Sinks         []SinkConfig `json:"sinks"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Workbook:      "Indicadores generalidades oficial.xlsx",
		SourceType:    "xlsx",
		OutputDir:     "data/clean",
		LogLevel:      "info",
		LogFormat:     "text",
		WatchDebounce: "500ms",
		WritePartial:  true,
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Workbook = getEnv("INDICADORES_WORKBOOK", cfg.Workbook)
	cfg.SourceType = getEnv("INDICADORES_SOURCE_TYPE", cfg.SourceType)
	cfg.OutputDir = getEnv("INDICADORES_OUTPUT_DIR", cfg.OutputDir)
	cfg.HistoryDB = getEnv("INDICADORES_HISTORY_DB", cfg.HistoryDB)
	cfg.HistoryKeep = getIntEnv("INDICADORES_HISTORY_KEEP", cfg.HistoryKeep)
	cfg.LogLevel = getEnv("INDICADORES_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("INDICADORES_LOG_FORMAT", cfg.LogFormat)
	cfg.Schedule = getEnv("INDICADORES_SCHEDULE", cfg.Schedule)
	cfg.WatchDebounce = getEnv("INDICADORES_WATCH_DEBOUNCE", cfg.WatchDebounce)
	cfg.WritePartial = getBoolEnv("INDICADORES_WRITE_PARTIAL", cfg.WritePartial)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Workbook) == "" {
		errs = append(errs, errors.New("workbook is required"))
	}
	switch c.SourceType {
	case "xlsx", "csv_dir":
	default:
		errs = append(errs, fmt.Errorf("unknown source_type %q", c.SourceType))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.HistoryKeep < 0 {
		errs = append(errs, fmt.Errorf("history_keep must not be negative, got %d", c.HistoryKeep))
	}
	if _, err := time.ParseDuration(c.WatchDebounce); err != nil {
		errs = append(errs, fmt.Errorf("watch_debounce: %w", err))
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "sql":
			switch s.Driver {
			case "sqlite", "postgres", "pgx", "mysql":
			default:
				errs = append(errs, fmt.Errorf("sinks[%d]: unknown sql driver %q", i, s.Driver))
			}
			if s.DSN == "" {
				errs = append(errs, fmt.Errorf("sinks[%d]: dsn is required", i))
			}
		case "mongo":
			if s.URI == "" || s.Database == "" {
				errs = append(errs, fmt.Errorf("sinks[%d]: uri and database are required", i))
			}
		default:
			errs = append(errs, fmt.Errorf("sinks[%d]: unknown type %q", i, s.Type))
		}
	}
	return errors.Join(errs...)
}

// Debounce returns the parsed watch debounce interval.
func (c Config) Debounce() time.Duration {
	d, err := time.ParseDuration(c.WatchDebounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getBoolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getIntEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
