package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/aiinfocenter/internal/bootstrap"
	"github.com/yigit/aiinfocenter/internal/config"
	"github.com/yigit/aiinfocenter/internal/server"
)

// Version is set at build time.
var Version = "0.1.0"

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "aiinfocenter",
		Short:         "AI Info Center backend",
		Long:          "Serves the student AI chat, support requests and admin moderation API.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", bootstrap.DefaultConfigPath, "path to the YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), configPath)
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)
	rootCmd.RunE = serveCmd.RunE
	return rootCmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	srv, err := server.NewServer(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	if err := srv.Run(); err != nil {
		return err
	}

	lgr.Info().Msg("Application finished gracefully.")
	return nil
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config or setup logger: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate requires the %s driver, got %q", config.DriverPostgres, cfg.Database.Driver)
	}

	database, err := bootstrap.ConnectDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer database.Close()

	return bootstrap.RunMigrations(ctx, cfg, database, lgr)
}

