package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents where a task is in its reminder lifecycle
type TaskStatus string

// Possible task status values
const (
	// TaskStatusActive tasks are scheduled and become due at NextNotificationAt.
	TaskStatusActive TaskStatus = "active"

	// TaskStatusWaitingAnswer tasks have a question in flight.
	TaskStatusWaitingAnswer TaskStatus = "waiting_answer"

	// TaskStatusDone tasks are learned or removed. Terminal.
	TaskStatusDone TaskStatus = "done"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskChatID      = errors.New("task chat ID cannot be empty")
	ErrEmptyTaskContent     = fmt.Errorf("task %w", ErrEmptyContent)
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrNegativeNotification = errors.New("notification count cannot be negative")
)

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusActive, TaskStatusWaitingAnswer, TaskStatusDone:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
//
//	active         -> waiting_answer, done
//	waiting_answer -> active, done
//	done           -> (nothing)
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case TaskStatusActive:
		return next == TaskStatusWaitingAnswer || next == TaskStatusDone
	case TaskStatusWaitingAnswer:
		return next == TaskStatusActive || next == TaskStatusDone
	default:
		return false
	}
}

// Task is a single term a chat is learning, with its own schedule.
type Task struct {
	ID                 uuid.UUID  `json:"id"`
	ChatID             int64      `json:"chat_id"`
	Content            string     `json:"content"`
	Status             TaskStatus `json:"status"`
	NotificationCount  int        `json:"notification_count"`
	NextNotificationAt time.Time  `json:"next_notification_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewTask creates an active task for chatID that is due immediately.
// Content is normalized before validation.
func NewTask(chatID int64, content string, now time.Time) (*Task, error) {
	now = now.UTC()
	task := &Task{
		ID:                 uuid.New(),
		ChatID:             chatID,
		Content:            NormalizeContent(content),
		Status:             TaskStatusActive,
		NotificationCount:  0,
		NextNotificationAt: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.ChatID == 0 {
		return ErrEmptyTaskChatID
	}

	if strings.TrimSpace(t.Content) == "" {
		return ErrEmptyTaskContent
	}

	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, t.Status)
	}

	if t.NotificationCount < 0 {
		return ErrNegativeNotification
	}

	return nil
}

// IsDue reports whether the task should be asked about at now.
func (t *Task) IsDue(now time.Time) bool {
	return t.Status == TaskStatusActive && !now.Before(t.NextNotificationAt)
}

// Clone returns a copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// NormalizeContent trims the term and collapses runs of whitespace into one space,
// so "  cell   wall " and "cell wall" are the same term.
func NormalizeContent(content string) string {
	return strings.Join(strings.Fields(content), " ")
}
