package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"todolist/internal/app"
	"todolist/internal/config"
	"todolist/internal/logger"
	"todolist/internal/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "todolist",
		Short:        "Multi-user to-do lists with shared groups",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "path to the yaml config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newMigrateCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := app.New(cfg)
			if err := a.Init(ctx); err != nil {
				return err
			}

			if err := a.Run(ctx); err != nil {
				logger.Error("App: stopped with error", err)
				return err
			}
			logger.Info("App: stopped")
			return nil
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	load := func() (*config.Config, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("database.url is not configured")
		}
		if err := logger.Init(cfg.Logging.Development); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := migrations.Up(cfg.Database.URL); err != nil {
				return err
			}
			logger.Info("Migrate: schema is up to date")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := migrations.Down(cfg.Database.URL); err != nil {
				return err
			}
			logger.Info("Migrate: schema rolled back")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			version, dirty, ok, err := migrations.Version(cfg.Database.URL)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			logger.Debug("Migrate: version read", zap.Uint("version", version), zap.Bool("dirty", dirty))
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return cmd
}
