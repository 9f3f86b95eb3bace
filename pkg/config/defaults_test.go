package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_NormalizesLogLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "warn"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected normalized log level 'WARN', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestApplyDefaults_Store(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/srv/data")

	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Store.Type != "memory" {
		t.Errorf("Expected default store type 'memory', got %q", cfg.Store.Type)
	}
	if got := cfg.Store.Badger["db_path"]; got != filepath.Join("/srv/data", "dittostore", "badger") {
		t.Errorf("Unexpected default badger db_path %v", got)
	}
	if got := cfg.Store.Bolt["path"]; got != filepath.Join("/srv/data", "dittostore", "dittostore.db") {
		t.Errorf("Unexpected default bolt path %v", got)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": "/custom"},
		},
		Versions: VersionsConfig{PageSize: 3},
	}
	cfg.Reaper.MaxPendingAge = time.Minute
	ApplyDefaults(cfg)

	if cfg.Store.Type != "badger" {
		t.Errorf("Expected store type to be preserved, got %q", cfg.Store.Type)
	}
	if cfg.Store.Badger["db_path"] != "/custom" {
		t.Errorf("Expected db_path to be preserved, got %v", cfg.Store.Badger["db_path"])
	}
	if cfg.Versions.PageSize != 3 {
		t.Errorf("Expected page size 3, got %d", cfg.Versions.PageSize)
	}
	if cfg.Reaper.MaxPendingAge != time.Minute {
		t.Errorf("Expected max pending age 1m, got %v", cfg.Reaper.MaxPendingAge)
	}
}

func TestApplyDefaults_Blob(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Blob.Type != "none" {
		t.Errorf("Expected default blob type 'none', got %q", cfg.Blob.Type)
	}
	if cfg.Blob.S3["region"] != "us-east-1" {
		t.Errorf("Expected default S3 region 'us-east-1', got %v", cfg.Blob.S3["region"])
	}
	if cfg.Blob.RateLimit.RequestsPerSecond != 0 {
		t.Errorf("Expected unlimited verification rate, got %v", cfg.Blob.RateLimit.RequestsPerSecond)
	}
}

func TestApplyDefaults_ReaperAndMetrics(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Reaper.Enabled {
		t.Error("Expected reaper to be disabled by default")
	}
	if cfg.Reaper.Interval != time.Hour {
		t.Errorf("Expected reaper interval 1h, got %v", cfg.Reaper.Interval)
	}
	if cfg.Reaper.MaxPendingAge != 24*time.Hour {
		t.Errorf("Expected max pending age 24h, got %v", cfg.Reaper.MaxPendingAge)
	}
	if cfg.Reaper.BatchSize != 500 {
		t.Errorf("Expected batch size 500, got %d", cfg.Reaper.BatchSize)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics to be disabled by default")
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}
