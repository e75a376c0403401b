package ingest

import (
	"context"
	"time"

	"github.com/metrico/nebula/meta"
	"github.com/metrico/nebula/utils/promise"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Coordinator drives the ingest loop: refresh the spec repo, then hand
// claimable units to a bounded pool of executor workers. It is the
// single writer of spec state transitions' scheduling; executors only
// move their own claimed unit.
type Coordinator struct {
	Repo     *SpecRepo
	Exec     *Executor
	Cluster  *meta.ClusterInfo
	Workers  int
	Interval time.Duration
}

func NewCoordinator(repo *SpecRepo, exec *Executor, ci *meta.ClusterInfo, workers int, interval time.Duration) *Coordinator {
	if workers <= 0 {
		workers = 1
	}
	return &Coordinator{Repo: repo, Exec: exec, Cluster: ci, Workers: workers, Interval: interval}
}

// Run loops until the context ends.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		c.Cycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cycle performs one refresh + dispatch round and returns a promise per
// dispatched unit. Worker failures resolve the unit's promise; they do
// not cancel siblings.
func (c *Coordinator) Cycle(ctx context.Context) []*promise.Promise[int32] {
	if err := c.Repo.Refresh(ctx, c.Cluster); err != nil {
		zap.L().Error("refresh failed", zap.Error(err))
	}

	specs := c.Repo.Claimable()
	if len(specs) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(int64(c.Workers))
	var g errgroup.Group
	ps := make([]*promise.Promise[int32], 0, len(specs))
	for _, spec := range specs {
		spec := spec
		p := promise.New[int32]()
		ps = append(ps, p)
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				p.Done(int32(StateFailed), err)
				return nil
			}
			defer sem.Release(1)
			err := c.Exec.Work(ctx, spec)
			p.Done(int32(spec.State()), err)
			return nil
		})
	}
	g.Wait()
	return ps
}
