package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestUploadLimiter_AcquireRelease(t *testing.T) {
	limiter := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	release1, err := limiter.Acquire(ctx)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	release2, err := limiter.Acquire(ctx)
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	if got := limiter.Active(); got != 2 {
		t.Errorf("after two Acquire, Active = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("after two Acquire, Available = %d, want 0", got)
	}

	release1()
	release1() // second call is a no-op

	if got := limiter.Active(); got != 1 {
		t.Errorf("after Release, Active = %d, want 1", got)
	}

	release2()

	status := limiter.Status()
	if status.Active != 0 || status.Available != 2 || status.MaxConcurrent != 2 {
		t.Errorf("Status() = %+v, want idle limiter with 2 slots", status)
	}
}

func TestUploadLimiter_BlocksWhenFull(t *testing.T) {
	limiter := NewUploadLimiter(1, 100*time.Millisecond)
	ctx := context.Background()

	release, err := limiter.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	start := time.Now()
	_, err = limiter.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("expected ErrTooManyUploads, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}
}

func TestUploadLimiter_ContextCancelled(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Minute)

	release, err := limiter.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := limiter.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUploadLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	const totalRequests = 10

	limiter := NewUploadLimiter(maxConcurrent, 5*time.Second)

	var wg sync.WaitGroup
	var current, maxObserved atomic.Int64

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := limiter.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer release()

			n := current.Add(1)
			for {
				old := maxObserved.Load()
				if n <= old || maxObserved.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}

	wg.Wait()

	if got := maxObserved.Load(); got > maxConcurrent {
		t.Errorf("observed %d concurrent holders, limit is %d", got, maxConcurrent)
	}
	if got := limiter.Active(); got != 0 {
		t.Errorf("after all releases, Active = %d, want 0", got)
	}
}

func TestUploadLimiter_WaitForDrain(t *testing.T) {
	limiter := NewUploadLimiter(2, time.Second)

	release, err := limiter.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	go func() {
		time.Sleep(60 * time.Millisecond)
		release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := limiter.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain() error = %v", err)
	}
}

func TestUploadLimiter_WaitForDrainTimeout(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Second)

	release, err := limiter.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain() error = %v, want deadline exceeded", err)
	}
}

func TestNewUploadLimiter_Defaults(t *testing.T) {
	limiter := NewUploadLimiter(0, 0)
	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentUploads {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentUploads)
	}
}
