package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "IBOCHECK"

// newViper builds a Viper instance with YAML, the IBOCHECK_ env prefix and a
// "." → "_" key replacer, so "basis.minao_path" resolves from
// IBOCHECK_BASIS_MINAO_PATH.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v)
	return v
}

// registerDefaults seeds every key so AutomaticEnv can see it during
// Unmarshal; viper only consults the environment for keys it already knows.
func registerDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("basis.minao_path", d.Basis.MinaoPath)
	v.SetDefault("basis.extended_path", d.Basis.ExtendedPath)
	v.SetDefault("basis.minao_marker", d.Basis.MinaoMarker)
	v.SetDefault("basis.extended_marker", d.Basis.ExtendedMarker)
	v.SetDefault("basis.heavy_threshold", d.Basis.HeavyThreshold)
	v.SetDefault("basis.backup_suffix", d.Basis.BackupSuffix)

	v.SetDefault("classifier.core_cutoff", d.Classifier.CoreCutoff)
	v.SetDefault("classifier.atoms", d.Classifier.Atoms)
	v.SetDefault("classifier.occupation_threshold", d.Classifier.OccupationThreshold)
	v.SetDefault("classifier.rydberg_energy_cutoff", d.Classifier.RydbergEnergyCutoff)

	v.SetDefault("diagnostics.sink", d.Diagnostics.Sink)
	v.SetDefault("diagnostics.table_path", d.Diagnostics.TablePath)
	v.SetDefault("diagnostics.sqlite_path", d.Diagnostics.SQLitePath)

	v.SetDefault("batch.concurrency", d.Batch.Concurrency)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.textfile_path", d.Metrics.TextfilePath)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)
}

// Load reads the YAML file at configPath, merges IBOCHECK_* overrides,
// applies defaults and validates.  An empty configPath behaves like
// LoadFromEnv.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from defaults and IBOCHECK_* variables only.
//
//	IBOCHECK_<SECTION>_<FIELD>   e.g.  IBOCHECK_BASIS_MINAO_PATH
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch re-reads configPath whenever it changes on disk and hands the new
// Config to onChange.  Invalid edits are reported to onError (when non-nil)
// and do not reach onChange.  Watch does not block.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is Load that panics on error, for main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
