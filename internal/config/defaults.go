package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultMinaoPath      = "data/basis/MINAO"
	DefaultExtendedPath   = "data/basis/ANO-RCC"
	DefaultMinaoMarker    = "MINAO"
	DefaultExtendedMarker = "ANO-RCC"
	DefaultHeavyThreshold = 37
	DefaultBackupSuffix   = ".bak"

	DefaultCoreCutoff          = -5.0
	DefaultAtoms               = 2
	DefaultRydbergEnergyCutoff = 1.0

	DefaultDiagnosticsSink = "csv"
	DefaultTablePath       = "IBO_diagnostics.csv"
	DefaultSQLitePath      = "IBO_diagnostics.db"

	DefaultBatchConcurrency = 4

	DefaultMetricsNamespace = "ibocheck"

	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// ApplyDefaults fills zero-value fields in cfg.  Explicitly set values win.
// The core cutoff is never defaulted here since 0 is a legal, if unusual,
// choice; registerDefaults seeds it at the viper layer instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Basis ─────────────────────────────────────────────────────────────────
	if cfg.Basis.MinaoPath == "" {
		cfg.Basis.MinaoPath = DefaultMinaoPath
	}
	if cfg.Basis.ExtendedPath == "" {
		cfg.Basis.ExtendedPath = DefaultExtendedPath
	}
	if cfg.Basis.MinaoMarker == "" {
		cfg.Basis.MinaoMarker = DefaultMinaoMarker
	}
	if cfg.Basis.ExtendedMarker == "" {
		cfg.Basis.ExtendedMarker = DefaultExtendedMarker
	}
	if cfg.Basis.HeavyThreshold == 0 {
		cfg.Basis.HeavyThreshold = DefaultHeavyThreshold
	}
	if cfg.Basis.BackupSuffix == "" {
		cfg.Basis.BackupSuffix = DefaultBackupSuffix
	}

	// ── Classifier ────────────────────────────────────────────────────────────
	if cfg.Classifier.Atoms == 0 {
		cfg.Classifier.Atoms = DefaultAtoms
	}
	if cfg.Classifier.RydbergEnergyCutoff == 0 {
		cfg.Classifier.RydbergEnergyCutoff = DefaultRydbergEnergyCutoff
	}

	// ── Diagnostics ───────────────────────────────────────────────────────────
	if cfg.Diagnostics.Sink == "" {
		cfg.Diagnostics.Sink = DefaultDiagnosticsSink
	}
	if cfg.Diagnostics.TablePath == "" {
		cfg.Diagnostics.TablePath = DefaultTablePath
	}
	if cfg.Diagnostics.SQLitePath == "" {
		cfg.Diagnostics.SQLitePath = DefaultSQLitePath
	}

	// ── Batch ─────────────────────────────────────────────────────────────────
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = DefaultBatchConcurrency
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stderr"}
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{Classifier: ClassifierConfig{CoreCutoff: DefaultCoreCutoff}}
	ApplyDefaults(cfg)
	return cfg
}
