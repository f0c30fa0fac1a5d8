// Package worker runs bounded fan-out jobs, such as per-round strokes-gained
// enrichment for leaderboards and rolling averages.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/sgengine/pkg/logger"
	"github.com/okian/sgengine/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()

// Pool bounds how many jobs of one Run execute at once. It holds no
// goroutines between runs, so it needs no shutdown.
type Pool struct {
	size   int
	name   string
	logger logger.Logger
}

// NewPool creates a pool running at most size jobs at a time.
// A size below 1 selects 2x the CPU count.
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{size: size, name: "worker-pool"}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	metrics.UpdateWorkerCount(size)
	return p
}

// Size returns the concurrency limit.
func (p *Pool) Size() int { return p.size }

// Run calls fn for every index in [0, n). The first error cancels the
// context handed to the remaining jobs, no further jobs start, and that
// error is returned. A cancelled ctx stops the run with ctx's error.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return ctx.Err()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			err := fn(gctx, i)
			metrics.RecordWorkerJob(metrics.Since(start))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Debug(ctx, "run aborted", logger.Int("jobs", n), logger.Error(err))
		return err
	}
	return ctx.Err()
}

// Map applies fn to every item on p and returns the results in input order.
// It returns no results when any call fails.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	err := p.Run(ctx, len(items), func(ctx context.Context, i int) error {
		r, err := fn(ctx, items[i])
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
