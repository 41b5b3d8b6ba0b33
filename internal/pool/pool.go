// Package pool drains a task list with a fixed number of workers.
package pool

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/log"
)

// Worker processes one task. A returned error is logged and the worker
// moves on to the next task; it never stops the pool.
type Worker[T any] func(ctx context.Context, task T) error

// Stats reports how a run went.
type Stats struct {
	Completed int // tasks whose worker returned nil
	Failed    int // tasks whose worker returned an error
	Skipped   int // tasks never started because ctx was done
}

// Total returns the number of tasks the run was given.
func (s Stats) Total() int {
	return s.Completed + s.Failed + s.Skipped
}

// Run processes tasks with width concurrent workers and blocks until every
// task is done or skipped. Each worker claims the next task by advancing a
// shared cursor and claims again as soon as it finishes, so at most width
// tasks are in flight at any instant. Completion order is unspecified.
//
// Once ctx is done no new task is started; tasks already running are left to
// observe ctx themselves. A width of zero or less uses the default width.
func Run[T any](ctx context.Context, tasks []T, width int, worker Worker[T]) Stats {
	if width <= 0 {
		width = constants.EnrichmentWidth
	}
	width = min(width, len(tasks))

	var (
		cursor    atomic.Int64
		completed atomic.Int64
		failed    atomic.Int64
	)

	var g errgroup.Group
	for w := 0; w < width; w++ {
		g.Go(func() error {
			for {
				if ctx.Err() != nil {
					return nil
				}
				i := int(cursor.Add(1)) - 1
				if i >= len(tasks) {
					return nil
				}
				if err := worker(ctx, tasks[i]); err != nil {
					failed.Add(1)
					log.Debug("pool task failed", "worker", w, "task", i, "error", err)
					continue
				}
				completed.Add(1)
			}
		})
	}
	_ = g.Wait()

	stats := Stats{
		Completed: int(completed.Load()),
		Failed:    int(failed.Load()),
	}
	stats.Skipped = len(tasks) - stats.Completed - stats.Failed
	return stats
}
