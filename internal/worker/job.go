package worker

import (
	"context"

	"github.com/google/uuid"
)

// Job represents a unit of background work to be processed
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier, used in logs
	Type() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// funcJob adapts a function to the Job interface.
type funcJob struct {
	id  uuid.UUID
	typ string
	fn  func(ctx context.Context) error
}

// NewJob wraps fn as a Job of the given type.
func NewJob(id uuid.UUID, typ string, fn func(ctx context.Context) error) Job {
	return &funcJob{id: id, typ: typ, fn: fn}
}

func (j *funcJob) ID() uuid.UUID { return j.id }

func (j *funcJob) Type() string { return j.typ }

func (j *funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }

// QueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue
type QueueReader interface {
	// Jobs returns a read-only channel for consuming jobs
	Jobs() <-chan Job
}

// QueueWriter provides write access to the job queue
type QueueWriter interface {
	// Enqueue adds a job to the queue for processing.
	// Returns ErrQueueFull or ErrQueueClosed without blocking.
	Enqueue(job Job) error

	// Close closes the queue, preventing further submission
	Close()
}
