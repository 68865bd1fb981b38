package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-remind/internal/domain"
	"github.com/phrazzld/scry-remind/internal/store"
)

// taskState is shared by a store and the transactional views it hands out.
type taskState struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

// MockTaskStore implements store.TaskStore in memory for testing.
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn              func(ctx context.Context, task *domain.Task) error
	FindActiveFn          func(ctx context.Context, chatID int64, content string) (*domain.Task, error)
	GetForUpdateFn        func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	DueFn                 func(ctx context.Context, now time.Time) ([]*domain.Task, error)
	CompareAndSetStatusFn func(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus, now time.Time) error
	UpdateFn              func(ctx context.Context, task *domain.Task) error
	ReleaseStaleFn        func(ctx context.Context, cutoff time.Time, now time.Time) (int64, error)

	state *taskState
	// locked is set on the view passed to an InTx callback, which already
	// holds state.mu.
	locked bool
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty in-memory task store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		state: &taskState{tasks: make(map[uuid.UUID]*domain.Task)},
	}
}

// with runs fn while holding the state lock, unless the caller already holds it.
func (m *MockTaskStore) with(fn func(tasks map[uuid.UUID]*domain.Task) error) error {
	if !m.locked {
		m.state.mu.Lock()
		defer m.state.mu.Unlock()
	}
	return fn(m.state.tasks)
}

// Put stores a copy of task as-is, bypassing validation and uniqueness.
func (m *MockTaskStore) Put(task *domain.Task) {
	_ = m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		tasks[task.ID] = task.Clone()
		return nil
	})
}

// Get returns a copy of the stored task, including done tasks.
func (m *MockTaskStore) Get(id uuid.UUID) (*domain.Task, bool) {
	var found *domain.Task
	_ = m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		if task, ok := tasks[id]; ok {
			found = task.Clone()
		}
		return nil
	})
	return found, found != nil
}

// All returns copies of every stored task ordered by creation time.
func (m *MockTaskStore) All() []*domain.Task {
	var all []*domain.Task
	_ = m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		for _, task := range tasks {
			all = append(all, task.Clone())
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all
}

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	return m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		if _, exists := tasks[task.ID]; exists {
			return fmt.Errorf("%w: task %s", store.ErrDuplicate, task.ID)
		}
		if task.Status != domain.TaskStatusDone {
			for _, existing := range tasks {
				if existing.Status != domain.TaskStatusDone &&
					existing.ChatID == task.ChatID &&
					existing.Content == task.Content {
					return store.ErrDuplicateActiveTask
				}
			}
		}
		tasks[task.ID] = task.Clone()
		return nil
	})
}

// FindActive implements store.TaskStore.
func (m *MockTaskStore) FindActive(ctx context.Context, chatID int64, content string) (*domain.Task, error) {
	if m.FindActiveFn != nil {
		return m.FindActiveFn(ctx, chatID, content)
	}

	var found *domain.Task
	_ = m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		for _, task := range tasks {
			if task.Status == domain.TaskStatusDone || task.ChatID != chatID || task.Content != content {
				continue
			}
			if found == nil || task.CreatedAt.After(found.CreatedAt) {
				found = task
			}
		}
		if found != nil {
			found = found.Clone()
		}
		return nil
	})

	if found == nil {
		return nil, store.ErrTaskNotFound
	}
	return found, nil
}

// GetForUpdate implements store.TaskStore. Inside InTx the whole store is
// locked, which covers the row lock.
func (m *MockTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, id)
	}

	task, ok := m.Get(id)
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// Due implements store.TaskStore.
func (m *MockTaskStore) Due(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	if m.DueFn != nil {
		return m.DueFn(ctx, now)
	}

	var due []*domain.Task
	_ = m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		for _, task := range tasks {
			if task.IsDue(now) {
				due = append(due, task.Clone())
			}
		}
		return nil
	})

	sort.Slice(due, func(i, j int) bool {
		return due[i].NextNotificationAt.Before(due[j].NextNotificationAt)
	})
	return due, nil
}

// CompareAndSetStatus implements store.TaskStore.
func (m *MockTaskStore) CompareAndSetStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.TaskStatus,
	now time.Time,
) error {
	if m.CompareAndSetStatusFn != nil {
		return m.CompareAndSetStatusFn(ctx, id, from, to, now)
	}

	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %w: %s -> %s",
			store.ErrInvalidTransition, domain.ErrInvalidStatusTransition, from, to)
	}

	return m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		task, ok := tasks[id]
		if !ok || task.Status != from {
			return fmt.Errorf("%w: task %s is not %s", store.ErrInvalidTransition, id, from)
		}
		task.Status = to
		task.UpdatedAt = now.UTC()
		return nil
	})
}

// Update implements store.TaskStore.
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	return m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		existing, ok := tasks[task.ID]
		if !ok || existing.Status == domain.TaskStatusDone {
			return store.ErrTaskNotFound
		}
		existing.Status = task.Status
		existing.NotificationCount = task.NotificationCount
		existing.NextNotificationAt = task.NextNotificationAt
		existing.UpdatedAt = task.UpdatedAt
		return nil
	})
}

// ReleaseStale implements store.TaskStore.
func (m *MockTaskStore) ReleaseStale(ctx context.Context, cutoff time.Time, now time.Time) (int64, error) {
	if m.ReleaseStaleFn != nil {
		return m.ReleaseStaleFn(ctx, cutoff, now)
	}

	var released int64
	_ = m.with(func(tasks map[uuid.UUID]*domain.Task) error {
		for _, task := range tasks {
			if task.Status == domain.TaskStatusWaitingAnswer && task.UpdatedAt.Before(cutoff) {
				task.Status = domain.TaskStatusActive
				task.UpdatedAt = now.UTC()
				released++
			}
		}
		return nil
	})
	return released, nil
}

// InTx implements store.TaskStore. Transactions are serialized; if fn fails
// or panics every change it made is discarded.
func (m *MockTaskStore) InTx(ctx context.Context, fn func(ctx context.Context, tasks store.TaskStore) error) error {
	if m.locked {
		return fn(ctx, m)
	}

	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	snapshot := make(map[uuid.UUID]*domain.Task, len(m.state.tasks))
	for id, task := range m.state.tasks {
		snapshot[id] = task.Clone()
	}

	committed := false
	defer func() {
		if !committed {
			m.state.tasks = snapshot
		}
	}()

	view := *m
	view.locked = true

	if err := fn(ctx, &view); err != nil {
		return err
	}
	committed = true
	return nil
}
