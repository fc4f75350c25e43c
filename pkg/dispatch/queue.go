// Package dispatch provides the single goroutine on which crop sessions
// mutate their state. Background work hands its results back with Post.
package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is posted to a closed queue
var ErrClosed = errors.New("dispatch: queue closed")

// Queue runs posted functions one at a time, in order, on the goroutine
// that calls Run.
type Queue struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewQueue creates a queue buffering up to size pending functions
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Run executes posted functions until ctx is done or Close is called. The
// queue is closed when Run returns, so later posts fail instead of blocking.
func (q *Queue) Run(ctx context.Context) error {
	defer q.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		case fn := <-q.tasks:
			fn()
		}
	}
}

// Post schedules fn and reports whether it was accepted. It blocks while the
// buffer is full.
func (q *Queue) Post(fn func()) bool {
	return q.post(context.Background(), fn) == nil
}

func (q *Queue) post(ctx context.Context, fn func()) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.tasks <- fn:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the queue and waits for it to finish
func (q *Queue) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	finished := make(chan struct{})
	if err := q.post(ctx, func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	}
}

// Close stops Run. Functions still buffered are dropped.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}
