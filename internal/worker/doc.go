// Package worker runs background jobs on a fixed pool of goroutines fed by a
// bounded queue. Producers never block: when the queue is full Enqueue fails
// with ErrQueueFull and the producer decides what to do with the job.
package worker
