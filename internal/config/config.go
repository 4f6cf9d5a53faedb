// Package config defines the configuration structures for ibocheck.  No I/O or
// parsing lives here, only plain data types and validation.  A *Config is
// passed explicitly to every service; nothing reads settings from package
// state.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// BasisConfig locates the basis-set files and controls heavy-element
// synthesis.
type BasisConfig struct {
	MinaoPath      string `mapstructure:"minao_path" yaml:"minao_path"`
	ExtendedPath   string `mapstructure:"extended_path" yaml:"extended_path"`
	MinaoMarker    string `mapstructure:"minao_marker" yaml:"minao_marker"`
	ExtendedMarker string `mapstructure:"extended_marker" yaml:"extended_marker"`
	HeavyThreshold int    `mapstructure:"heavy_threshold" yaml:"heavy_threshold"`
	BackupSuffix   string `mapstructure:"backup_suffix" yaml:"backup_suffix"`
}

// ClassifierConfig holds the orbital classifier tunables.
type ClassifierConfig struct {
	CoreCutoff          float64 `mapstructure:"core_cutoff" yaml:"core_cutoff"`
	Atoms               int     `mapstructure:"atoms" yaml:"atoms"`
	OccupationThreshold float64 `mapstructure:"occupation_threshold" yaml:"occupation_threshold"`
	RydbergEnergyCutoff float64 `mapstructure:"rydberg_energy_cutoff" yaml:"rydberg_energy_cutoff"`
}

// DiagnosticsConfig selects the diagnostics table backend.
type DiagnosticsConfig struct {
	Sink       string `mapstructure:"sink" yaml:"sink"` // "csv" | "sqlite"
	TablePath  string `mapstructure:"table_path" yaml:"table_path"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// BatchConfig bounds concurrent loading/classification in batch runs.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	Namespace    string `mapstructure:"namespace" yaml:"namespace"`
	TextfilePath string `mapstructure:"textfile_path" yaml:"textfile_path"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	Mode            string        `mapstructure:"mode" yaml:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LogConfig holds structured-logging settings.
type LogConfig struct {
	Level       string   `mapstructure:"level" yaml:"level"`
	Format      string   `mapstructure:"format" yaml:"format"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Basis       BasisConfig       `mapstructure:"basis" yaml:"basis"`
	Classifier  ClassifierConfig  `mapstructure:"classifier" yaml:"classifier"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`
	Batch       BatchConfig       `mapstructure:"batch" yaml:"batch"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Basis
	if strings.TrimSpace(c.Basis.MinaoMarker) == "" {
		return fmt.Errorf("config: basis.minao_marker is required")
	}
	if strings.TrimSpace(c.Basis.ExtendedMarker) == "" {
		return fmt.Errorf("config: basis.extended_marker is required")
	}
	if c.Basis.HeavyThreshold < 2 || c.Basis.HeavyThreshold > 118 {
		return fmt.Errorf("config: basis.heavy_threshold %d is out of range [2, 118]", c.Basis.HeavyThreshold)
	}
	if c.Basis.BackupSuffix == "" {
		return fmt.Errorf("config: basis.backup_suffix must not be empty")
	}

	// Classifier
	if c.Classifier.Atoms < 1 {
		return fmt.Errorf("config: classifier.atoms must be ≥ 1, got %d", c.Classifier.Atoms)
	}
	if c.Classifier.OccupationThreshold < 0 {
		return fmt.Errorf("config: classifier.occupation_threshold must be ≥ 0, got %g", c.Classifier.OccupationThreshold)
	}

	// Diagnostics
	switch c.Diagnostics.Sink {
	case "csv":
		if c.Diagnostics.TablePath == "" {
			return fmt.Errorf("config: diagnostics.table_path is required for the csv sink")
		}
	case "sqlite":
		if c.Diagnostics.SQLitePath == "" {
			return fmt.Errorf("config: diagnostics.sqlite_path is required for the sqlite sink")
		}
	default:
		return fmt.Errorf("config: diagnostics.sink %q is invalid; expected csv|sqlite", c.Diagnostics.Sink)
	}

	// Batch
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("config: batch.concurrency must be ≥ 1, got %d", c.Batch.Concurrency)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
