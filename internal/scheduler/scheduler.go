package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/phrazzld/scry-remind/internal/domain"
	"github.com/phrazzld/scry-remind/internal/platform/logger"
	"github.com/phrazzld/scry-remind/internal/store"
	"github.com/phrazzld/scry-remind/internal/worker"
)

// NotificationJobType labels notification jobs in worker logs.
const NotificationJobType = "notification"

// ErrNilDependency is returned by New when a required collaborator is missing.
var ErrNilDependency = errors.New("required dependency is nil")

// Notifier delivers the reminder question for a task.
type Notifier interface {
	Notify(ctx context.Context, task *domain.Task) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, task *domain.Task) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, task *domain.Task) error {
	return f(ctx, task)
}

// TaskService is the subset of task operations the scheduler drives.
type TaskService interface {
	DueTasks(ctx context.Context, now time.Time) ([]*domain.Task, error)
	MarkWaiting(ctx context.Context, task *domain.Task) error
	ReleaseClaim(ctx context.Context, task *domain.Task) error
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config holds scheduler timing and dispatch settings.
type Config struct {
	// PollInterval is the time between due-task scans.
	PollInterval time.Duration

	// WorkerCount is the number of notifications sent concurrently.
	WorkerCount int

	// QueueSize bounds the notifications waiting for a worker.
	QueueSize int

	// JobTimeout bounds a single notification send.
	JobTimeout time.Duration

	// WaitingTimeout is how long a question may stay unanswered before the
	// task is handed back for re-asking.
	WaitingTimeout time.Duration

	// StaleCheckInterval is the time between stale-claim scans.
	StaleCheckInterval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		PollInterval:       time.Second,
		WorkerCount:        4,
		QueueSize:          100,
		JobTimeout:         30 * time.Second,
		WaitingTimeout:     24 * time.Hour,
		StaleCheckInterval: time.Minute,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = d.JobTimeout
	}
	if c.WaitingTimeout <= 0 {
		c.WaitingTimeout = d.WaitingTimeout
	}
	if c.StaleCheckInterval <= 0 {
		c.StaleCheckInterval = d.StaleCheckInterval
	}
	return c
}

// TickResult summarizes one scan.
type TickResult struct {
	Due        int
	Dispatched int
	// Skipped counts tasks someone else claimed between the scan and the claim.
	Skipped int
	// Released counts claims handed back because the queue was full or closed.
	Released int
	Failed   int
}

// Scheduler polls for due tasks and dispatches notifications on a worker pool.
type Scheduler struct {
	tasks    TaskService
	notifier Notifier
	config   Config
	queue    *worker.Queue
	pool     *worker.Pool
	logger   *slog.Logger
	now      func() time.Time

	failedNotifications atomic.Int64
}

// New creates a Scheduler. Zero config fields take their defaults.
func New(tasks TaskService, notifier Notifier, config Config, logger *slog.Logger) (*Scheduler, error) {
	if tasks == nil {
		return nil, fmt.Errorf("%w: tasks", ErrNilDependency)
	}
	if notifier == nil {
		return nil, fmt.Errorf("%w: notifier", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}

	config = config.withDefaults()
	queue := worker.NewQueue(config.QueueSize, logger)
	pool := worker.NewPool(queue, worker.PoolConfig{
		WorkerCount: config.WorkerCount,
		JobTimeout:  config.JobTimeout,
	}, logger)

	s := &Scheduler{
		tasks:    tasks,
		notifier: notifier,
		config:   config,
		queue:    queue,
		pool:     pool,
		logger:   logger.With(slog.String("component", "scheduler")),
		now:      time.Now,
	}
	pool.SetErrorHandler(s.notificationFailed)
	return s, nil
}

// FailedNotifications returns how many notification sends have failed since
// the scheduler was created.
func (s *Scheduler) FailedNotifications() int64 {
	return s.failedNotifications.Load()
}

// notificationFailed runs on a worker after a send error. The task keeps its
// claim; the stale monitor hands it back once WaitingTimeout has passed.
func (s *Scheduler) notificationFailed(job worker.Job, err error) {
	s.failedNotifications.Add(1)
	s.logger.Warn("notification failed, task stays claimed until stale release",
		slog.String("task_id", job.ID().String()),
		slog.String("error", err.Error()))
}

// Run starts the workers and scans for due tasks every PollInterval until ctx
// is cancelled. It then stops scanning, closes the queue and waits for queued
// notifications to be sent. Run always returns nil after a clean shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	s.pool.Start()
	s.logger.Info("scheduler started",
		slog.Duration("poll_interval", s.config.PollInterval),
		slog.Duration("waiting_timeout", s.config.WaitingTimeout))

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		s.staleMonitor(ctx)
	}()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-monitorDone
			s.queue.Close()
			s.pool.Wait()
			s.logger.Info("scheduler stopped")
			return nil

		case <-ticker.C:
			// The tick itself must not be cut short by shutdown half-way
			// through a claim, so it runs on a context that is never cancelled.
			s.Tick(context.WithoutCancel(ctx), s.now())
		}
	}
}

// Tick claims every task due at now and queues its notification.
// A failure on one task never stops the scan.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) TickResult {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result TickResult
	due, err := s.tasks.DueTasks(ctx, now)
	if err != nil {
		log.Error("failed to load due tasks", slog.String("error", err.Error()))
		result.Failed++
		return result
	}
	result.Due = len(due)

	for _, task := range due {
		if err := s.tasks.MarkWaiting(ctx, task); err != nil {
			if errors.Is(err, store.ErrInvalidTransition) {
				log.Debug("task already claimed",
					slog.String("task_id", task.ID.String()))
				result.Skipped++
				continue
			}
			log.Error("failed to claim task",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			result.Failed++
			continue
		}

		if err := s.queue.Enqueue(s.notificationJob(task)); err != nil {
			log.Warn("cannot queue notification, releasing claim",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			if releaseErr := s.tasks.ReleaseClaim(ctx, task); releaseErr != nil {
				log.Error("failed to release claim",
					slog.String("error", releaseErr.Error()),
					slog.String("task_id", task.ID.String()))
				result.Failed++
				continue
			}
			result.Released++
			continue
		}

		result.Dispatched++
	}

	if result.Due > 0 {
		log.Debug("tick completed",
			slog.Int("due", result.Due),
			slog.Int("dispatched", result.Dispatched),
			slog.Int("skipped", result.Skipped),
			slog.Int("released", result.Released),
			slog.Int("failed", result.Failed))
	}
	return result
}

// CheckStale hands back every claim that has waited longer than WaitingTimeout.
func (s *Scheduler) CheckStale(ctx context.Context) (int64, error) {
	released, err := s.tasks.ReleaseStale(ctx, s.config.WaitingTimeout)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to release stale tasks",
			slog.String("error", err.Error()))
		return 0, err
	}
	return released, nil
}

func (s *Scheduler) staleMonitor(ctx context.Context) {
	ticker := time.NewTicker(s.config.StaleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.CheckStale(context.WithoutCancel(ctx))
		}
	}
}

func (s *Scheduler) notificationJob(task *domain.Task) worker.Job {
	task = task.Clone()
	return worker.NewJob(task.ID, NotificationJobType, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, task)
	})
}
