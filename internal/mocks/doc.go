// Package mocks provides shared test doubles.
//
// MockTaskStore is an in-memory store.TaskStore with the same observable
// semantics as the PostgreSQL store: guarded status changes, the one
// non-done task per (chat, content) rule, and all-or-nothing InTx. Each
// method can be overridden with a function field to inject failures:
//
//	tasks := mocks.NewMockTaskStore()
//	tasks.DueFn = func(ctx context.Context, now time.Time) ([]*domain.Task, error) {
//	    return nil, errors.New("database unavailable")
//	}
package mocks
