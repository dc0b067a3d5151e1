package pipeline

import (
	"context"
	"sync"

	"github.com/pyrooka/mail2mp3/dto"
	er "github.com/pyrooka/mail2mp3/internal/errors"
)

// Queue is the single shared resource between the poller and the workers:
// a bounded, channel-backed FIFO of jobs. A full queue blocks the producer
// rather than growing without bound.
type Queue struct {
	jobs      chan dto.Job
	closeOnce sync.Once
	done      chan struct{}
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1024
	}
	return &Queue{
		jobs: make(chan dto.Job, size),
		done: make(chan struct{}),
	}
}

// Enqueue blocks until the job is accepted, the queue is closed, or ctx
// is cancelled.
func (q *Queue) Enqueue(ctx context.Context, job dto.Job) error {
	select {
	case <-q.done:
		return er.ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- job:
		return nil
	case <-q.done:
		return er.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a job is available, the queue is closed and
// drained, or ctx is cancelled. Once the queue is closed, jobs already
// buffered are delivered even when ctx is cancelled: close-and-drain wins
// over cancellation so no accepted job is lost. The second return value
// is false when no job was delivered.
func (q *Queue) Dequeue(ctx context.Context) (dto.Job, bool) {
	select {
	case <-q.done:
		// Closed: deliver what is already queued, then report empty.
		select {
		case job := <-q.jobs:
			return job, true
		default:
			return dto.Job{}, false
		}
	default:
	}

	select {
	case job := <-q.jobs:
		return job, true
	case <-ctx.Done():
		return dto.Job{}, false
	case <-q.done:
		select {
		case job := <-q.jobs:
			return job, true
		default:
			return dto.Job{}, false
		}
	}
}

// Len reports the number of queued jobs not yet picked up by a worker.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Closed reports whether the queue no longer accepts jobs.
func (q *Queue) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Close stops accepting new jobs. Jobs already queued are still delivered
// to workers that keep calling Dequeue.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
