package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-remind/internal/config"
	"github.com/phrazzld/scry-remind/internal/platform/logger"
	"github.com/phrazzld/scry-remind/internal/platform/postgres"
	"github.com/phrazzld/scry-remind/internal/platform/telegram"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running the binary without a
// subcommand serves the bot.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "scry-remind",
		Short:         "Telegram bot that reminds you of terms on a spaced repetition schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: ./config.yaml if present)")

	root.AddCommand(newServeCmd(&configPath), newMigrateCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the reminder scheduler and the health server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version|reset]",
		Short:     "Apply or inspect database migrations",
		Long:      "Apply or inspect database migrations. Without an argument all pending migrations are applied.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands(),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := postgres.MigrateUp
			if len(args) == 1 {
				command = args[0]
			}
			return runMigrate(cmd.Context(), *configPath, command)
		},
	}
}

// bootstrap loads configuration and sets up logging.
func bootstrap(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Duration("poll_interval", cfg.Scheduler.PollInterval),
		slog.Int("worker_count", cfg.Scheduler.WorkerCount))
	return cfg, log, nil
}

func runServe(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(ctx), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(configPath)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		log.Error("database unavailable", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	api, err := telegram.Connect(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		log.Error("telegram unavailable", slog.String("error", err.Error()))
		return err
	}
	log.Info("authorized on telegram", slog.String("bot", api.Self.UserName))

	app, err := newApplication(cfg, log, db, api)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		return err
	}

	if err := app.Run(ctx); err != nil {
		log.Error("application stopped with error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func runMigrate(ctx context.Context, configPath, command string) error {
	ctx = contextOrBackground(ctx)

	cfg, log, err := bootstrap(configPath)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		log.Error("database unavailable", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if err := postgres.RunMigrations(ctx, db, command, log); err != nil {
		log.Error("migration failed",
			slog.String("command", command),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// contextOrBackground covers commands executed without ExecuteContext.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
