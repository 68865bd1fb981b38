package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-remind/internal/domain"
	"github.com/phrazzld/scry-remind/internal/domain/srs"
	"github.com/phrazzld/scry-remind/internal/platform/logger"
	"github.com/phrazzld/scry-remind/internal/store"
)

// AnswerResult describes the effect of a remember/forgot answer.
type AnswerResult struct {
	// Task is the task as persisted after the answer.
	Task *domain.Task

	// Interval is the wait before the next reminder. Zero when Learned.
	Interval time.Duration

	// Learned is set when the answer retired the task.
	Learned bool
}

// TaskService provides task lifecycle operations
type TaskService interface {
	// CreateTask stores a new active task due immediately.
	// Returns store.ErrDuplicateActiveTask if the chat is already learning the term.
	CreateTask(ctx context.Context, chatID int64, content string) (*domain.Task, error)

	// FindTask returns the non-done task for the chat and term.
	// Returns store.ErrTaskNotFound if there is none.
	FindTask(ctx context.Context, chatID int64, content string) (*domain.Task, error)

	// DueTasks returns the active tasks whose reminder time has come.
	DueTasks(ctx context.Context, now time.Time) ([]*domain.Task, error)

	// MarkWaiting claims an active task for a reminder (active -> waiting_answer).
	// Returns store.ErrInvalidTransition if the task is not active, which is how
	// concurrent callers learn that someone else already claimed it.
	MarkWaiting(ctx context.Context, task *domain.Task) error

	// ReleaseClaim hands a claimed task back (waiting_answer -> active) without
	// touching its schedule.
	ReleaseClaim(ctx context.Context, task *domain.Task) error

	// RecordAnswer applies a remember/forgot answer to a waiting task.
	// Returns store.ErrInvalidTransition if the task is not waiting for an answer.
	RecordAnswer(ctx context.Context, task *domain.Task, remembered bool) (*AnswerResult, error)

	// SetDone retires a task that is waiting for an answer. Returns
	// store.ErrInvalidTransition if the task is already done or the question
	// was handed back by the stale release.
	SetDone(ctx context.Context, task *domain.Task) error

	// ReleaseStale returns tasks that have waited longer than olderThan for an
	// answer to active. Returns the number of tasks released.
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// TaskServiceOption configures a task service.
type TaskServiceOption func(*taskServiceImpl)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	tasks  store.TaskStore
	srs    srs.Service
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	srsService srs.Service,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("%w: tasks", ErrNilDependency)
	}
	if srsService == nil {
		return nil, fmt.Errorf("%w: srsService", ErrNilDependency)
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		tasks:  tasks,
		srs:    srsService,
		logger: logger.With(slog.String("component", "task_service")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(ctx context.Context, chatID int64, content string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(chatID, content, s.now())
	if err != nil {
		log.Debug("rejected task", slog.String("error", err.Error()), slog.Int64("chat_id", chatID))
		return nil, NewTaskServiceError("create_task", "invalid task",
			fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, store.ErrDuplicateActiveTask) {
			return nil, NewTaskServiceError("create_task", "term already being learned", err)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.Int64("chat_id", chatID))
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int64("chat_id", chatID))
	return task, nil
}

// FindTask implements TaskService.FindTask
func (s *taskServiceImpl) FindTask(ctx context.Context, chatID int64, content string) (*domain.Task, error) {
	task, err := s.tasks.FindActive(ctx, chatID, domain.NormalizeContent(content))
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, NewTaskServiceError("find_task", "task not found", store.ErrTaskNotFound)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to find task",
			slog.String("error", err.Error()),
			slog.Int64("chat_id", chatID))
		return nil, NewTaskServiceError("find_task", "failed to load task", err)
	}
	return task, nil
}

// DueTasks implements TaskService.DueTasks
func (s *taskServiceImpl) DueTasks(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	tasks, err := s.tasks.Due(ctx, now)
	if err != nil {
		return nil, NewTaskServiceError("due_tasks", "failed to load due tasks", err)
	}
	return tasks, nil
}

// MarkWaiting implements TaskService.MarkWaiting.
// On success the caller's copy is updated to match the stored task.
func (s *taskServiceImpl) MarkWaiting(ctx context.Context, task *domain.Task) error {
	return s.transition(ctx, "mark_waiting", task,
		domain.TaskStatusActive, domain.TaskStatusWaitingAnswer)
}

// ReleaseClaim implements TaskService.ReleaseClaim
func (s *taskServiceImpl) ReleaseClaim(ctx context.Context, task *domain.Task) error {
	return s.transition(ctx, "release_claim", task,
		domain.TaskStatusWaitingAnswer, domain.TaskStatusActive)
}

func (s *taskServiceImpl) transition(
	ctx context.Context,
	operation string,
	task *domain.Task,
	from, to domain.TaskStatus,
) error {
	if task == nil {
		return NewTaskServiceError(operation, "nil task", store.ErrTaskNotFound)
	}

	now := s.now().UTC()
	if err := s.tasks.CompareAndSetStatus(ctx, task.ID, from, to, now); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return NewTaskServiceError(operation, "task not in expected status", err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to change task status",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("from", string(from)),
			slog.String("to", string(to)))
		return NewTaskServiceError(operation, "failed to change status", err)
	}

	task.Status = to
	task.UpdatedAt = now
	return nil
}

// RecordAnswer implements TaskService.RecordAnswer
func (s *taskServiceImpl) RecordAnswer(
	ctx context.Context,
	task *domain.Task,
	remembered bool,
) (*AnswerResult, error) {
	if task == nil {
		return nil, NewTaskServiceError("record_answer", "nil task", store.ErrTaskNotFound)
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *AnswerResult
	err := s.tasks.InTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		locked, err := tasks.GetForUpdate(ctx, task.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.TaskStatusWaitingAnswer {
			return fmt.Errorf("%w: task %s is %s", store.ErrInvalidTransition, locked.ID, locked.Status)
		}

		outcome, err := s.srs.CalculateNext(locked, remembered, s.now())
		if err != nil {
			return err
		}

		if err := tasks.Update(ctx, outcome.Task); err != nil {
			return err
		}

		result = &AnswerResult{
			Task:     outcome.Task,
			Interval: outcome.Interval,
			Learned:  outcome.Learned,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) || store.IsNotFoundError(err) {
			log.Debug("answer not applicable",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return nil, NewTaskServiceError("record_answer", "task not waiting for an answer", err)
		}
		log.Error("failed to record answer",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return nil, NewTaskServiceError("record_answer", "failed to save answer", err)
	}

	log.Info("answer recorded",
		slog.String("task_id", task.ID.String()),
		slog.Bool("remembered", remembered),
		slog.Int("notification_count", result.Task.NotificationCount),
		slog.Bool("learned", result.Learned))
	return result, nil
}

// SetDone implements TaskService.SetDone
func (s *taskServiceImpl) SetDone(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return NewTaskServiceError("set_done", "nil task", store.ErrTaskNotFound)
	}

	now := s.now().UTC()
	err := s.tasks.InTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		locked, err := tasks.GetForUpdate(ctx, task.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.TaskStatusWaitingAnswer {
			return fmt.Errorf("%w: task %s is %s", store.ErrInvalidTransition, locked.ID, locked.Status)
		}
		return tasks.CompareAndSetStatus(ctx, locked.ID, locked.Status, domain.TaskStatusDone, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) || store.IsNotFoundError(err) {
			return NewTaskServiceError("set_done", "task not awaiting an answer", err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to retire task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return NewTaskServiceError("set_done", "failed to retire task", err)
	}

	task.Status = domain.TaskStatusDone
	task.UpdatedAt = now
	logger.FromContextOrDefault(ctx, s.logger).Info("task retired",
		slog.String("task_id", task.ID.String()))
	return nil
}

// ReleaseStale implements TaskService.ReleaseStale
func (s *taskServiceImpl) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := s.now().UTC()
	released, err := s.tasks.ReleaseStale(ctx, now.Add(-olderThan), now)
	if err != nil {
		return 0, NewTaskServiceError("release_stale", "failed to release stale tasks", err)
	}

	if released > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Info("released unanswered tasks",
			slog.Int64("count", released),
			slog.Duration("older_than", olderThan))
	}
	return released, nil
}
