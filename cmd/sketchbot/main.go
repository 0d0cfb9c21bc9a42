// Package main is the sketchbot command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/edgard/sketchbot/internal/config"
	"github.com/edgard/sketchbot/internal/database"
	"github.com/edgard/sketchbot/internal/logger"

	_ "modernc.org/sqlite"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sketchbot",
		Short: "Telegram bot that sketches group members from their chat history",
		Long: `sketchbot records group chat messages and, on /画像, asks Gemini to write
a portrayal of a member from their messages and the surrounding context.

Examples:
  sketchbot --config ./config.yaml
  sketchbot migrate
  sketchbot preview --user 123456789 --stream 9f8e...`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "./config.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().String("env-file", ".env", "optional dotenv file loaded before the configuration")

	rootCmd.AddCommand(
		newRunCmd(),
		newMigrateCmd(),
		newPreviewCmd(),
	)
	return rootCmd
}

// runtime is what every subcommand needs before doing its own work.
type runtime struct {
	cfg   *config.Config
	log   *slog.Logger
	db    *sqlx.DB
	store database.Store
}

func (r *runtime) Close() {
	database.CloseDB(r.db)
}

// setup loads the environment and configuration, then opens the database,
// applying pending migrations.
func setup(cmd *cobra.Command) (*runtime, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON, "version", version)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return nil, err
	}

	return &runtime{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: database.NewStore(db, log),
	}, nil
}
