// Package batch evaluates slices of kernel requests on a bounded pool of
// goroutines. Results keep the order of their inputs; an item that fails
// is logged, counted and reported in place without stopping the batch.
package batch

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shin107/Anisotropic-SNANA/internal/metrics"
)

// WorkerPool bounds the number of concurrent evaluations.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a pool with the given number of workers. A
// non-positive count uses GOMAXPROCS.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the concurrency limit.
func (wp *WorkerPool) Workers() int { return wp.workers }

// Item is one evaluated input.
type Item[T any] struct {
	Value T
	Err   error
}

// Summary counts outcomes of a batch.
type Summary struct {
	OK       int           `json:"ok"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"-"`
}

// run applies fn to every input. It returns ctx.Err() if the context is
// cancelled before all items are evaluated.
func run[In, Out any](ctx context.Context, wp *WorkerPool, op string, inputs []In, fn func(In) (Out, error)) ([]Item[Out], Summary, error) {
	if len(inputs) == 0 {
		return nil, Summary{}, nil
	}

	start := time.Now()
	items := make([]Item[Out], len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workers)

	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fn(in)
			items[i] = Item[Out]{Value: v, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Summary{}, err
	}

	var sum Summary
	for i, it := range items {
		if it.Err != nil {
			sum.Failed++
			wp.logger.Warn("batch item failed",
				"op", op,
				"index", i,
				"error", it.Err,
			)
			continue
		}
		sum.OK++
	}
	sum.Duration = time.Since(start)

	metrics.ObserveBatch(op, sum.OK, sum.Failed, sum.Duration)
	wp.logger.Debug("batch complete",
		"op", op,
		"items", len(inputs),
		"ok", sum.OK,
		"failed", sum.Failed,
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return items, sum, nil
}
