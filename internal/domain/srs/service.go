package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/scry-remind/internal/domain"
)

// Common errors
var (
	ErrNilTask = errors.New("task cannot be nil")
)

// Outcome is the schedule change produced by one answer.
type Outcome struct {
	// Task is the updated copy of the answered task.
	Task *domain.Task

	// Interval is the wait before the next reminder. Zero when Learned.
	Interval time.Duration

	// Learned is set when the answer retired the task.
	Learned bool
}

// Service defines the interface for interval policy operations
type Service interface {
	// CalculateNext computes the task state after a remember/forgot answer
	CalculateNext(task *domain.Task, remembered bool, now time.Time) (*Outcome, error)

	// Params returns the parameters the service schedules with
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid srs parameters: %w", err)
	}

	p := *params
	return &defaultService{params: &p}, nil
}

// CalculateNext implements the Service interface
func (s *defaultService) CalculateNext(
	task *domain.Task,
	remembered bool,
	now time.Time,
) (*Outcome, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	next, interval, learned := calculateNextTask(task, remembered, now.UTC(), s.params)

	return &Outcome{
		Task:     next,
		Interval: interval,
		Learned:  learned,
	}, nil
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	return *s.params
}
