package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-remind/internal/domain"
)

func newWaitingTask(count int) *domain.Task {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:                 uuid.New(),
		ChatID:             42,
		Content:            "osmosis",
		Status:             domain.TaskStatusWaitingAnswer,
		NotificationCount:  count,
		NextNotificationAt: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestCalculateInterval(t *testing.T) {
	t.Parallel()
	params := &Params{BaseInterval: time.Minute, GrowthFactor: 2, LearnedThreshold: 5}

	testCases := []struct {
		name     string
		count    int
		expected time.Duration
	}{
		{name: "zero count uses base", count: 0, expected: time.Minute},
		{name: "first confirmation", count: 1, expected: 2 * time.Minute},
		{name: "second confirmation", count: 2, expected: 4 * time.Minute},
		{name: "fourth confirmation", count: 4, expected: 16 * time.Minute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := calculateInterval(tc.count, params); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestCalculateNextTaskRemembered(t *testing.T) {
	t.Parallel()
	params := &Params{BaseInterval: time.Minute, GrowthFactor: 3, LearnedThreshold: 4}
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	task := newWaitingTask(0)

	next, interval, learned := calculateNextTask(task, true, now, params)

	if learned {
		t.Fatal("Task must not be learned after one confirmation")
	}
	if next.NotificationCount != 1 {
		t.Errorf("Expected count 1, got %d", next.NotificationCount)
	}
	if interval != 3*time.Minute {
		t.Errorf("Expected interval base*growth = 3m, got %v", interval)
	}
	if !next.NextNotificationAt.Equal(now.Add(3 * time.Minute)) {
		t.Errorf("Expected next notification at %v, got %v", now.Add(3*time.Minute), next.NextNotificationAt)
	}
	if next.Status != domain.TaskStatusActive {
		t.Errorf("Expected status active, got %s", next.Status)
	}
	if task.NotificationCount != 0 || task.Status != domain.TaskStatusWaitingAnswer {
		t.Error("Original task must not be modified")
	}
}

func TestCalculateNextTaskLearned(t *testing.T) {
	t.Parallel()
	params := &Params{BaseInterval: time.Minute, GrowthFactor: 2, LearnedThreshold: 3}
	now := time.Now().UTC()
	task := newWaitingTask(2)

	next, interval, learned := calculateNextTask(task, true, now, params)

	if !learned {
		t.Fatal("Expected task to be learned at the threshold")
	}
	if interval != 0 {
		t.Errorf("Learned tasks get no interval, got %v", interval)
	}
	if next.Status != domain.TaskStatusDone {
		t.Errorf("Expected status done, got %s", next.Status)
	}
	if next.NotificationCount != 3 {
		t.Errorf("Expected count 3, got %d", next.NotificationCount)
	}
}

func TestCalculateNextTaskForgot(t *testing.T) {
	t.Parallel()
	params := &Params{BaseInterval: 5 * time.Minute, GrowthFactor: 2, LearnedThreshold: 10}
	now := time.Now().UTC()

	for _, count := range []int{0, 1, 4, 9} {
		task := newWaitingTask(count)
		next, interval, learned := calculateNextTask(task, false, now, params)

		if learned {
			t.Errorf("count %d: forgetting must never retire a task", count)
		}
		if next.NotificationCount != 0 {
			t.Errorf("count %d: expected count reset to 0, got %d", count, next.NotificationCount)
		}
		if interval != params.BaseInterval {
			t.Errorf("count %d: expected base interval, got %v", count, interval)
		}
		if !next.NextNotificationAt.Equal(now.Add(params.BaseInterval)) {
			t.Errorf("count %d: expected reschedule at now+base", count)
		}
		if next.Status != domain.TaskStatusActive {
			t.Errorf("count %d: expected active, got %s", count, next.Status)
		}
	}
}

func TestIntervalsStrictlyIncreaseUntilLearned(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Now().UTC()
	task := newWaitingTask(0)

	var previous time.Duration
	for i := 1; ; i++ {
		next, interval, learned := calculateNextTask(task, true, now, params)
		if learned {
			if i != params.LearnedThreshold {
				t.Fatalf("Expected retirement at answer %d, got %d", params.LearnedThreshold, i)
			}
			if next.Status != domain.TaskStatusDone {
				t.Fatalf("Expected done status, got %s", next.Status)
			}
			return
		}
		if interval <= previous {
			t.Fatalf("Interval %d (%v) is not greater than previous (%v)", i, interval, previous)
		}
		if got := next.NextNotificationAt.Sub(now); got != interval {
			t.Fatalf("Next notification offset %v does not match interval %v", got, interval)
		}
		previous = interval
		next.Status = domain.TaskStatusWaitingAnswer
		task = next
	}
}
