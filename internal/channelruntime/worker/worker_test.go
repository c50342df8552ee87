package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPoolSerializesPerChannel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0
	done := make(chan struct{}, 8)

	pool := NewPool(Options[int]{
		Ctx:            ctx,
		MaxConcurrency: 8,
		Handle: func(_ context.Context, _ int) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			done <- struct{}{}
		},
	})

	for i := 0; i < 4; i++ {
		if err := pool.Enqueue(ctx, "chan-1", i); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("job %d did not finish", i)
		}
	}

	mu.Lock()
	got := maxInFlight
	mu.Unlock()
	if got != 1 {
		t.Fatalf("max in-flight for one channel = %d, want 1", got)
	}
}

func TestPoolRunsChannelsConcurrently(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan string, 2)
	release := make(chan struct{})
	pool := NewPool(Options[string]{
		Ctx:            ctx,
		MaxConcurrency: 2,
		Handle: func(_ context.Context, job string) {
			started <- job
			<-release
		},
	})

	if err := pool.Enqueue(ctx, "a", "job-a"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := pool.Enqueue(ctx, "b", "job-b"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case job := <-started:
			seen[job] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("expected both channels to start, saw %v", seen)
		}
	}
	close(release)

	if !seen["job-a"] || !seen["job-b"] {
		t.Fatalf("started jobs = %v, want both channels", seen)
	}
}

func TestEnqueueCanceledContext(t *testing.T) {
	t.Parallel()

	poolCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool := NewPool(Options[int]{
		Ctx:            poolCtx,
		MaxConcurrency: 1,
		Buffer:         1,
		Handle:         func(context.Context, int) { select {} },
	})

	// Fill the queue, then a canceled caller ctx must fail fast.
	_ = pool.Enqueue(poolCtx, "c", 1)
	_ = pool.Enqueue(poolCtx, "c", 2)
	callerCtx, callerCancel := context.WithCancel(context.Background())
	callerCancel()
	if err := pool.Enqueue(callerCtx, "c", 3); err == nil {
		t.Fatalf("Enqueue() error = nil, want context error")
	}
}
