package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dittostore/pkg/filestore"
	"github.com/marmos91/dittostore/pkg/reaper"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are handled by store implementations
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyStoreDefaults(&cfg.Store)
	applyBlobDefaults(&cfg.Blob)
	applyVersionsDefaults(&cfg.Versions)
	applyReaperDefaults(&cfg.Reaper)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyStoreDefaults sets store defaults. Sections of the unselected types
// are filled too so generated config files document them.
func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.Bolt == nil {
		cfg.Bolt = make(map[string]any)
	}

	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(getDataDir(), "badger")
	}
	if _, ok := cfg.Bolt["path"]; !ok {
		cfg.Bolt["path"] = filepath.Join(getDataDir(), "dittostore.db")
	}
}

func applyBlobDefaults(cfg *BlobConfig) {
	if cfg.Type == "" {
		cfg.Type = "none"
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if _, ok := cfg.S3["region"]; !ok {
		cfg.S3["region"] = "us-east-1"
	}
	// RateLimit zero value means unlimited
}

func applyVersionsDefaults(cfg *VersionsConfig) {
	if cfg.PageSize == 0 {
		cfg.PageSize = filestore.DefaultPageSize
	}
}

// applyReaperDefaults mirrors the defaults reaper.New applies so they show
// up in generated files.
func applyReaperDefaults(cfg *reaper.Config) {
	// Enabled defaults to false
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.MaxPendingAge == 0 {
		cfg.MaxPendingAge = 24 * time.Hour
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 500
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// getDataDir returns the default directory for persistent stores:
// $XDG_DATA_HOME/dittostore, or /tmp/dittostore as a last resort.
func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "dittostore")
	}
	return filepath.Join("/tmp", "dittostore")
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
