package airtable

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunGuardSingleWinner(t *testing.T) {
	guard := NewRunGuard(nil)
	ctx := context.Background()

	var wins int64
	var wg sync.WaitGroup
	releases := make(chan func(), 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if release, ok := guard.Acquire(ctx, "user_sync"); ok {
				atomic.AddInt64(&wins, 1)
				releases <- release
			}
		}()
	}
	wg.Wait()
	close(releases)

	if wins != 1 {
		t.Fatalf("expected exactly one acquisition, got %d", wins)
	}
	for release := range releases {
		release()
	}
}

func TestRunGuardReleaseAllowsReacquire(t *testing.T) {
	guard := NewRunGuard(nil)
	ctx := context.Background()

	release, ok := guard.Acquire(ctx, "user_sync")
	if !ok {
		t.Fatal("first acquire should succeed")
	}
	if _, ok := guard.Acquire(ctx, "user_sync"); ok {
		t.Fatal("second acquire while held should fail")
	}
	release()
	release2, ok := guard.Acquire(ctx, "user_sync")
	if !ok {
		t.Fatal("acquire after release should succeed")
	}
	release2()
}

func TestRunGuardKindsAreIndependent(t *testing.T) {
	guard := NewRunGuard(nil)
	ctx := context.Background()

	releaseA, ok := guard.Acquire(ctx, "user_sync")
	if !ok {
		t.Fatal("acquire user_sync should succeed")
	}
	defer releaseA()

	releaseB, ok := guard.Acquire(ctx, "shop_order_sync")
	if !ok {
		t.Fatal("acquire of a different kind should succeed while the first is held")
	}
	releaseB()
}
