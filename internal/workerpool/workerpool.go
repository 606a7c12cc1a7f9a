// Package workerpool runs independent units of work on a bounded set of
// goroutines and returns their results in submission order.
package workerpool

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size used when a caller passes workers <= 0.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// Map calls fn once per item on at most workers goroutines. out[i] is the
// result for items[i] regardless of completion order. The first error (or
// panic) cancels the context passed to the remaining calls and is
// returned; no partial results are returned with it.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	out := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("workerpool: item %d panicked: %v", i, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, items[i])
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
