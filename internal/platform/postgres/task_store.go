package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-remind/internal/domain"
	"github.com/phrazzld/scry-remind/internal/platform/logger"
	"github.com/phrazzld/scry-remind/internal/store"
)

const taskColumns = `id, chat_id, content, status, notification_count,
	next_notification_at, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a store bound to tx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// InTx implements store.TaskStore.InTx.
// A store already bound to a transaction runs fn inside that transaction.
func (s *PostgresTaskStore) InTx(
	ctx context.Context,
	fn func(ctx context.Context, tasks store.TaskStore) error,
) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return fn(ctx, s)
	}

	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.WithTx(tx))
	})
}

// Create implements store.TaskStore.Create.
// The partial unique index on (chat_id, content) for non-done rows turns a
// concurrent duplicate insert into store.ErrDuplicateActiveTask.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.Int64("chat_id", task.ChatID))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.ChatID,
		task.Content,
		task.Status,
		task.NotificationCount,
		task.NextNotificationAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("task already being learned",
				slog.Int64("chat_id", task.ChatID))
			return store.ErrDuplicateActiveTask
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.Int64("chat_id", task.ChatID))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int64("chat_id", task.ChatID))
	return nil
}

// FindActive implements store.TaskStore.FindActive.
func (s *PostgresTaskStore) FindActive(
	ctx context.Context,
	chatID int64,
	content string,
) (*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE chat_id = $1 AND content = $2 AND status <> $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, chatID, content, domain.TaskStatusDone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to find task",
			slog.String("error", err.Error()),
			slog.Int64("chat_id", chatID))
		return nil, MapError(err)
	}

	return task, nil
}

// GetForUpdate implements store.TaskStore.GetForUpdate.
func (s *PostgresTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1
		FOR UPDATE
	`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to lock task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// Due implements store.TaskStore.Due.
func (s *PostgresTaskStore) Due(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = $1 AND next_notification_at <= $2
		ORDER BY next_notification_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, domain.TaskStatusActive, now.UTC())
	if err != nil {
		log.Error("failed to query due tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// CompareAndSetStatus implements store.TaskStore.CompareAndSetStatus.
// The status check and the write are one statement, so two callers racing on
// the same task cannot both succeed.
func (s *PostgresTaskStore) CompareAndSetStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.TaskStatus,
	now time.Time,
) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %w: %s -> %s",
			store.ErrInvalidTransition, domain.ErrInvalidStatusTransition, from, to)
	}

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query, to, now.UTC(), id, from)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("from", string(from)),
			slog.String("to", string(to)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: task %s is not %s", store.ErrInvalidTransition, id, from)
		}
		return err
	}

	return nil
}

// Update implements store.TaskStore.Update.
// Done rows are never rewritten.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET status = $1, notification_count = $2, next_notification_at = $3, updated_at = $4
		WHERE id = $5 AND status <> $6
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Status,
		task.NotificationCount,
		task.NextNotificationAt,
		task.UpdatedAt,
		task.ID,
		domain.TaskStatusDone,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrTaskNotFound
		}
		return err
	}

	log.Debug("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)),
		slog.Int("notification_count", task.NotificationCount))
	return nil
}

// ReleaseStale implements store.TaskStore.ReleaseStale.
func (s *PostgresTaskStore) ReleaseStale(ctx context.Context, cutoff time.Time, now time.Time) (int64, error) {
	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE status = $3 AND updated_at < $4
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusActive,
		now.UTC(),
		domain.TaskStatusWaitingAnswer,
		cutoff.UTC(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to release stale tasks",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	released, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return released, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status string

	err := row.Scan(
		&task.ID,
		&task.ChatID,
		&task.Content,
		&status,
		&task.NotificationCount,
		&task.NextNotificationAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.NextNotificationAt = task.NextNotificationAt.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}
