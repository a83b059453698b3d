package queue

import (
	"context"
	"errors"
)

// Task is one step of a Sequence.
type Task[T any] func(ctx context.Context) (T, error)

// Failure records a step that did not produce an accepted result.
type Failure struct {
	Index int
	Err   error
}

func (f Failure) Error() string {
	return f.Err.Error()
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Sequence runs tasks through q in order, each starting after the previous
// one settled. A result is kept when its task succeeds and accept (if not
// nil) returns nil; otherwise the step is recorded as a Failure and the
// sequence continues. Results keep submission order.
//
// Sequence stops early only when ctx ends or q is closed, returning the
// partial results together with that error. A step that settles after ctx
// ended is discarded.
func Sequence[T any](ctx context.Context, q *Queue, tasks []Task[T], accept func(T) error) ([]T, []Failure, error) {
	var (
		results  []T
		failures []Failure
	)

	for i, task := range tasks {
		var res T
		err := q.Do(ctx, func(ctx context.Context) error {
			var err error
			res, err = task(ctx)
			return err
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return results, failures, ctxErr
		}
		if err == nil && accept != nil {
			err = accept(res)
		}

		if err != nil {
			if errors.Is(err, ErrClosed) {
				return results, failures, err
			}
			q.log.Warn("step failed", "index", i, "error", err)
			failures = append(failures, Failure{Index: i, Err: err})
			continue
		}

		results = append(results, res)
	}

	return results, failures, nil
}
