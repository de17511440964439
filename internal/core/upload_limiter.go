package core

// upload_limiter.go bounds how many upload requests parse files at once.
//
// Parsing holds whole datasets in memory, so the number of requests doing
// it concurrently is capped. A request that finds every slot taken waits up
// to maxWait and then fails with ErrTooManyUploads. On shutdown,
// WaitForDrain blocks until in-flight uploads have finished.

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTooManyUploads is returned when all upload slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	// DefaultMaxConcurrentUploads is the default limit for parallel uploads.
	DefaultMaxConcurrentUploads = 5

	// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
	DefaultMaxWaitTime = 30 * time.Second
)

// UploadLimiter is a counting semaphore over upload requests.
type UploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	active atomic.Int64
}

// NewUploadLimiter allows at most maxConcurrent simultaneous uploads.
// Non-positive arguments select the defaults.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &UploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. On success the returned function releases it
// and must be called exactly once.
func (l *UploadLimiter) Acquire(ctx context.Context) (release func(), err error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-timer.C:
		return nil, ErrTooManyUploads
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.active.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Add(-1)
			<-l.slots
		})
	}, nil
}

// Active returns the number of uploads holding a slot.
func (l *UploadLimiter) Active() int {
	return int(l.active.Load())
}

// Available returns the number of free slots.
func (l *UploadLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// MaxConcurrent returns the slot count.
func (l *UploadLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// drainPoll is how often WaitForDrain checks for released slots.
const drainPoll = 50 * time.Millisecond

// WaitForDrain blocks until every acquired slot has been released or ctx
// is done.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	if l.Active() == 0 {
		return nil
	}

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Active() == 0 {
				return nil
			}
		}
	}
}

// UploadLimiterStatus is a snapshot of the limiter for health output.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the current limiter state.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	return UploadLimiterStatus{
		Active:        l.Active(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
