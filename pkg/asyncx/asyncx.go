// Package asyncx provides the few concurrency helpers the service needs:
// settled fan-out for health checks, bounded retries for startup
// dependencies and detached fire-and-forget work.
package asyncx

import (
	"context"
	"sync"
	"time"
)

// Result holds the outcome of a single settled operation.
type Result[T any] struct {
	Name  string
	Value T
	Err   error
}

// OK reports whether the result carries no error.
func (r Result[T]) OK() bool { return r.Err == nil }

// Task is a named unit of work for AllSettled.
type Task[T any] struct {
	Name string
	Fn   func(context.Context) (T, error)
}

// AllSettled runs every task concurrently and waits for all of them. It
// never short-circuits: one Result per task, in input order.
func AllSettled[T any](ctx context.Context, tasks ...Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))

	for i, task := range tasks {
		go func() {
			defer wg.Done()
			v, err := task.Fn(ctx)
			results[i] = Result[T]{Name: task.Name, Value: v, Err: err}
		}()
	}
	wg.Wait()
	return results
}

// RetryWithBackoff calls fn up to attempts times with exponential backoff
// starting at initialDelay. Cancellation is honoured between attempts.
func RetryWithBackoff[T any](
	ctx context.Context,
	attempts int,
	initialDelay time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	var (
		zero  T
		err   error
		val   T
		delay = initialDelay
	)
	for i := range attempts {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		val, err = fn(ctx)
		if err == nil {
			return val, nil
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return zero, err
}

// Detach runs fn in a goroutine with a fresh context bounded by timeout, so
// the work outlives the request that triggered it.
func Detach(timeout time.Duration, fn func(context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx)
	}()
}
