package airtable

import (
	"context"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// RunGuard keeps at most one run per kind in flight. The in-process flag is
// the authority (LoadOrStore is the atomic check-and-set); when a redis lock
// client is available it also fences overlapping runs across replicas.
type RunGuard struct {
	active sync.Map
	locker *redislock.Client
	ttl    time.Duration
}

func NewRunGuard(locker *redislock.Client) *RunGuard {
	return &RunGuard{
		locker: locker,
		ttl:    5 * time.Minute,
	}
}

// Acquire returns a release func and true when this caller owns the run.
// A second trigger for an active kind gets false: a silent no-op, never
// queued, never an error.
func (g *RunGuard) Acquire(ctx context.Context, kind string) (func(), bool) {
	if _, loaded := g.active.LoadOrStore(kind, true); loaded {
		return nil, false
	}
	releaseLocal := func() { g.active.Delete(kind) }

	if g.locker == nil {
		return releaseLocal, true
	}

	lock, err := g.locker.Obtain(ctx, "syncrun:"+kind, g.ttl, nil)
	if err == redislock.ErrNotObtained {
		releaseLocal()
		return nil, false
	}
	if err != nil {
		// Redis unavailable: the in-process flag still holds for this replica.
		return releaseLocal, true
	}
	return func() {
		_ = lock.Release(context.Background())
		releaseLocal()
	}, true
}
