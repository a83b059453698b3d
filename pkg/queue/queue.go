// Package queue serialises operations against a half-duplex resource such
// as a smart card: a single worker goroutine runs submitted functions one
// at a time, in submission order, so that at most one operation is ever
// outstanding.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned when submitting to a closed Queue.
var ErrClosed = errors.New("queue closed")

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Queue owns the single outstanding operation. It is safe for concurrent
// use: callers on different goroutines are served one after the other.
type Queue struct {
	jobs chan job
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
	log  *slog.Logger
}

// New starts a Queue worker. Call Close to stop it. A nil logger uses slog.Default().
func New(log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	q := &Queue{
		jobs: make(chan job),
		quit: make(chan struct{}),
		log:  log.With("component", "queue"),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.quit:
			return
		case j := <-q.jobs:
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			j.done <- q.exec(j)
		}
	}
}

func (q *Queue) exec(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("panic recovered", "error", r)
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return j.fn(j.ctx)
}

// Do runs fn on the worker and waits for it to settle. fn starts only after
// every previously accepted operation has returned. If ctx ends before the
// worker accepts fn, Do returns ctx.Err() and fn never runs; once accepted,
// Do waits for fn to return.
func (q *Queue) Do(ctx context.Context, fn func(context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	select {
	case <-q.quit:
		return ErrClosed
	default:
	}

	select {
	case q.jobs <- j:
	case <-q.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-j.done
}

// Close stops the worker after the running operation, if any, returns.
// Pending and later submissions fail with ErrClosed.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.quit) })
	q.wg.Wait()
}
