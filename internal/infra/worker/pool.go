// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type Task func(ctx context.Context) error

// Pool runs a batch of tasks with a bounded number in flight. It starts no
// goroutines of its own: every Run returns only after all of its tasks have
// finished.
type Pool struct {
	n int
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{n: workers}
}

// Size is the concurrency bound.
func (p *Pool) Size() int { return p.n }

// Run executes tasks and waits for all of them. A failing task does not
// cancel the others; the failures are returned joined.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	errs := make([]error, len(tasks))

	var g errgroup.Group
	g.SetLimit(p.n)
	for i, task := range tasks {
		if task == nil {
			errs[i] = errors.New("nil task")
			continue
		}
		g.Go(func() error {
			errs[i] = task(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
