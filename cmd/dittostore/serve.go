package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/config"
	"github.com/marmos91/dittostore/pkg/reaper"
)

func serveEntrypoint(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background services (stale upload reaper, metrics endpoint)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("dittostore starting: store=%s blob=%s", cfg.Store.Type, cfg.Blob.Type)

	metricsResult := config.InitializeMetrics(cfg)

	result, err := config.CreateService(ctx, cfg, metricsResult.FileStore)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer func() {
		if err := result.Store.Close(); err != nil {
			logger.Error("Failed to close store: %v", err)
		}
	}()

	metricsDone := make(chan error, 1)
	if metricsResult.Server != nil {
		go func() {
			metricsDone <- metricsResult.Server.Start(ctx)
		}()
	}

	r := reaper.New(result.Service, cfg.Reaper, metricsResult.Reaper)
	r.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %s, shutting down gracefully...", sig)
	case err := <-metricsDone:
		if err != nil {
			logger.Error("Metrics server error: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := r.Stop(shutdownCtx); err != nil {
		logger.Warn("Reaper did not stop cleanly: %v", err)
	}

	cancel()
	if metricsResult.Server != nil {
		if err := metricsResult.Server.Stop(shutdownCtx); err != nil {
			logger.Warn("Metrics server did not stop cleanly: %v", err)
		}
	}

	logger.Info("dittostore stopped")
	return nil
}

func reapEntrypoint(a *app) *cobra.Command {
	dryRun := false

	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Cancel stale pending uploads once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			result, err := config.CreateService(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = result.Store.Close() }()

			reaperCfg := cfg.Reaper
			reaperCfg.DryRun = reaperCfg.DryRun || dryRun

			stats, err := reaper.New(result.Service, reaperCfg, nil).RunNow(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", dryRun, "Only list what would be cancelled")

	return cmd
}
