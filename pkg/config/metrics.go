package config

import (
	"github.com/marmos91/dittostore/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// FileStore is the metrics collector for the service (never nil, uses noop if disabled)
	FileStore metrics.FileStoreMetrics

	// Reaper is the metrics collector for the reaper (never nil, uses noop if disabled)
	Reaper metrics.ReaperMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			FileStore: metrics.NoopFileStoreMetrics{},
			Reaper:    metrics.NoopReaperMetrics{},
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server: metrics.NewServer(metrics.ServerConfig{
			Port: cfg.Metrics.Port,
		}),
		FileStore: metrics.NewFileStoreMetrics(),
		Reaper:    metrics.NewReaperMetrics(),
	}
}
