// Package dataflow provides small channel-based stream stages: sources,
// concurrent maps with retry and sinks.
package dataflow

import (
	"context"
	"sync"
	"time"
)

// Stream is a read-only channel of messages.
type Stream[T any] <-chan T

// From creates a stream from a slice of data.
func From[T any](ctx context.Context, items ...T) Stream[T] {
	out := make(chan T, len(items))
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case out <- item:
			}
		}
	}()
	return out
}

// New wraps an existing channel into a Stream.
func New[T any](c <-chan T) Stream[T] {
	return Stream[T](c)
}

// call runs fn with the configured retries. A backoff interrupted by ctx
// returns ctx.Err().
func call[In, Out any](ctx context.Context, cfg *config, msg In, fn func(context.Context, In) (Out, error)) (Out, error) {
	res, err := fn(ctx, msg)
	for i := 1; err != nil && i <= cfg.maxRetries; i++ {
		if cfg.backoff != nil {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(cfg.backoff(i)):
			}
		}
		res, err = fn(ctx, msg)
	}
	return res, err
}

// Map transforms the stream using the provided function.
// Supports parallelism via WithWorkers; output order is not preserved when
// more than one worker runs. Failed items are passed to the error handler and
// dropped.
func Map[In, Out any](ctx context.Context, input Stream[In], fn func(context.Context, In) (Out, error), opts ...Option) Stream[Out] {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	out := make(chan Out, cfg.bufferSize)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}

				res, err := call(ctx, cfg, msg, fn)
				if err != nil && ctx.Err() != nil {
					return
				}
				if err != nil {
					if cfg.errorHandler != nil {
						cfg.errorHandler(err)
					}
					continue
				}

				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// ForEach executes an action for every item in the stream.
// It blocks until the stream is exhausted or context cancelled and returns
// the first unhandled error.
func ForEach[T any](ctx context.Context, input Stream[T], fn func(context.Context, T) error, opts ...Option) error {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}
				_, err := call(ctx, cfg, msg, func(ctx context.Context, m T) (struct{}, error) {
					return struct{}{}, fn(ctx, m)
				})
				if err != nil && ctx.Err() != nil {
					return
				}
				if err != nil {
					if cfg.errorHandler != nil && cfg.errorHandler(err) {
						continue
					}
					errOnce.Do(func() {
						firstErr = err
					})
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return firstErr
}

// Collect drains a stream into a slice.
func Collect[T any](ctx context.Context, input Stream[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, input, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}
