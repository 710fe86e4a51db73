// Package main is the entry point of the Ibadah Tracker server.
//
// @title        Ibadah Tracker API
// @version      1.0
// @description  Authentication, admin console and audit endpoints.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	_ "github.com/ibadah/tracker/docs"
	"github.com/ibadah/tracker/internal/app"
	"github.com/ibadah/tracker/internal/infrastructure/config"
	"github.com/ibadah/tracker/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:          "ibadah-tracker",
	Short:        "Ibadah Tracker server",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the data directory and the primary admin, then exit",
	RunE:  runBootstrap,
}

var resetTwoFactorCmd = &cobra.Command{
	Use:   "reset-2fa <username>",
	Short: "Remove an account's two-factor enrolment (server must be stopped)",
	Args:  cobra.ExactArgs(1),
	RunE:  runResetTwoFactor,
}

var envFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment is read")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(resetTwoFactorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnvFile applies path without overriding variables already set. A
// missing file is fine; the environment alone may carry the configuration.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func setup(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "ibadah-tracker"})
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Redis.Addr == "" {
		log.Info().Msg("live notifications are in-process only; run a single server instance")
	}
	return a.Run(ctx)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	a, err := app.NewOffline(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.Bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "primary admin %q created in %s\n", cfg.Accounts.PrimaryAdminUsername, cfg.DataDir)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "primary admin %q already present\n", cfg.Accounts.PrimaryAdminUsername)
	}
	return nil
}

func runResetTwoFactor(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	a, err := app.NewOffline(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ResetTwoFactor(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "two-factor authentication reset for %q\n", args[0])
	return nil
}
