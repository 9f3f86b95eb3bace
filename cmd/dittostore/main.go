package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/config"
	"github.com/marmos91/dittostore/pkg/filestore"
)

func main() {
	configPath := ""

	rootCmd := &cobra.Command{
		Use:           "dittostore",
		Short:         "Versioned file store with pending uploads and tree copies",
		SilenceUsage:  true,
		SilenceErrors: true,
		// hide the default "completion" subcommand
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/dittostore/config.yaml)")

	a := &app{configPath: &configPath}

	rootCmd.AddCommand(initEntrypoint())
	rootCmd.AddCommand(serveEntrypoint(a))
	rootCmd.AddCommand(scopeEntrypoint(a))
	rootCmd.AddCommand(uploadEntrypoint(a))
	rootCmd.AddCommand(fileEntrypoint(a))
	rootCmd.AddCommand(versionsEntrypoint(a))
	rootCmd.AddCommand(treeEntrypoint(a))
	rootCmd.AddCommand(reapEntrypoint(a))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every command shares: the config location.
type app struct {
	configPath *string
}

// loadConfig loads the configuration and applies its logging settings.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*a.configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}
	return cfg, nil
}

// withService opens the configured store for the duration of fn.
func (a *app) withService(ctx context.Context, fn func(svc *filestore.Service) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	result, err := config.CreateService(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Store.Close(); err != nil {
			logger.Warn("failed to close store: %v", err)
		}
	}()

	return fn(result.Service)
}

func initEntrypoint() *cobra.Command {
	force := false
	path := ""

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				written, err := config.InitConfig(force)
				if err != nil {
					return err
				}
				path = written
			} else if err := config.InitConfigToPath(path, force); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", force, "Overwrite an existing file")
	cmd.Flags().StringVarP(&path, "path", "p", path, "Write to this path instead of the default location")

	return cmd
}
