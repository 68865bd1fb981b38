package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-remind/internal/domain"
)

// calculateInterval returns the wait before the next reminder for a task that has
// been confirmed count times: BaseInterval * GrowthFactor^count.
func calculateInterval(count int, params *Params) time.Duration {
	if count <= 0 {
		return params.BaseInterval
	}
	return time.Duration(float64(params.BaseInterval) * math.Pow(params.GrowthFactor, float64(count)))
}

// calculateNextTask creates a new Task with updated schedule values based on the answer.
//
// Remembered:
//   - NotificationCount is incremented
//   - reaching LearnedThreshold retires the task (status done, no interval)
//   - otherwise the task is rescheduled after calculateInterval(NotificationCount)
//
// Forgot:
//   - NotificationCount is reset to 0 and the task is rescheduled after BaseInterval
//
// The original task is never modified.
func calculateNextTask(
	task *domain.Task,
	remembered bool,
	now time.Time,
	params *Params,
) (*domain.Task, time.Duration, bool) {
	next := task.Clone()
	next.UpdatedAt = now

	if !remembered {
		next.NotificationCount = 0
		next.Status = domain.TaskStatusActive
		next.NextNotificationAt = now.Add(params.BaseInterval)
		return next, params.BaseInterval, false
	}

	next.NotificationCount++
	if next.NotificationCount >= params.LearnedThreshold {
		next.Status = domain.TaskStatusDone
		return next, 0, true
	}

	interval := calculateInterval(next.NotificationCount, params)
	next.Status = domain.TaskStatusActive
	next.NextNotificationAt = now.Add(interval)
	return next, interval, false
}
