package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-remind/internal/config"
	"github.com/phrazzld/scry-remind/internal/dialog"
	"github.com/phrazzld/scry-remind/internal/domain/srs"
	"github.com/phrazzld/scry-remind/internal/platform/postgres"
	"github.com/phrazzld/scry-remind/internal/platform/telegram"
	"github.com/phrazzld/scry-remind/internal/scheduler"
	"github.com/phrazzld/scry-remind/internal/service"
	"github.com/phrazzld/scry-remind/internal/store"
	"golang.org/x/sync/errgroup"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore   store.TaskStore
	srsService  srs.Service
	taskService service.TaskService
	controller  *dialog.Controller

	bot       *telegram.Bot
	scheduler *scheduler.Scheduler
}

// newApplication wires every component on top of an open database and an
// authorized Bot API client.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB, api telegram.API) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.srsService, err = srs.NewServiceWithParams(srsParams(cfg.SRS))
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.taskService, err = service.NewTaskService(app.taskStore, app.srsService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.controller, err = dialog.NewController(app.taskService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialog controller: %w", err)
	}

	app.bot, err = telegram.New(api, app.controller, telegram.Config{
		PollTimeout: cfg.Telegram.PollTimeoutSeconds,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	app.scheduler, err = scheduler.New(app.taskService, app.bot, schedulerConfig(cfg.Scheduler), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run serves until ctx is cancelled or any component stops. Stopping one
// component stops the others; the first error is returned.
func (app *application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return app.scheduler.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return app.bot.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return app.startHTTPServer(gctx, setupRouter(app.db, app.logger))
	})

	err := g.Wait()
	app.logger.Info("application stopped")
	return err
}

func schedulerConfig(cfg config.SchedulerConfig) scheduler.Config {
	return scheduler.Config{
		PollInterval:       cfg.PollInterval,
		WorkerCount:        cfg.WorkerCount,
		QueueSize:          cfg.QueueSize,
		JobTimeout:         cfg.JobTimeout,
		WaitingTimeout:     cfg.WaitingTimeout,
		StaleCheckInterval: cfg.StaleCheckInterval,
	}
}

func srsParams(cfg config.SRSConfig) *srs.Params {
	return srs.NewParams(srs.ParamsConfig{
		BaseInterval:     cfg.BaseInterval,
		GrowthFactor:     cfg.GrowthFactor,
		LearnedThreshold: cfg.LearnedThreshold,
	})
}
