package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-remind/internal/domain"
)

// TaskStore defines the interface for task persistence.
//
// Every method that changes a task's status is atomic with respect to concurrent
// changes of the same task. Tasks in status done are never returned by lookups
// and never change again.
type TaskStore interface {
	// Create inserts a new task.
	// Returns ErrDuplicateActiveTask if a non-done task with the same
	// (ChatID, Content) exists. Uniqueness is enforced by the storage itself,
	// not by a prior lookup.
	Create(ctx context.Context, task *domain.Task) error

	// FindActive returns the most recent non-done task for the chat and content.
	// Returns ErrTaskNotFound if there is none.
	FindActive(ctx context.Context, chatID int64, content string) (*domain.Task, error)

	// GetForUpdate retrieves a task by ID and locks it until the surrounding
	// transaction ends. Only meaningful inside InTx.
	// Returns ErrTaskNotFound if the task does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Due returns every active task whose NextNotificationAt is at or before now.
	Due(ctx context.Context, now time.Time) ([]*domain.Task, error)

	// CompareAndSetStatus moves a task from one status to another in a single
	// guarded write. Returns ErrInvalidTransition if the task is not currently
	// in status from (or does not exist).
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus, now time.Time) error

	// Update writes the mutable fields of a task: status, notification count,
	// next notification time and updated time.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// ReleaseStale moves waiting_answer tasks last updated before cutoff back to
	// active, leaving their schedule untouched. Returns the number released.
	ReleaseStale(ctx context.Context, cutoff time.Time, now time.Time) (int64, error)

	// InTx runs fn as a single unit of work. Either every write fn makes through
	// the store it receives is applied, or none is. Implementations that are
	// already transactional run fn directly.
	InTx(ctx context.Context, fn func(ctx context.Context, tasks TaskStore) error) error
}
