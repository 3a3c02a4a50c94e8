package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool bounds how many jobs run at once and spaces their starts by a
// minimum interval.
type WorkerPool struct {
	rateLimit time.Duration
	semaphore chan struct{}
	mu        sync.Mutex
	lastStart time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
func NewWorkerPool(maxWorkers int, rateLimit time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		rateLimit: rateLimit,
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Run waits for a free slot, then runs job on the calling goroutine.
// It returns ctx.Err() if the context ends before a slot frees up.
func (wp *WorkerPool) Run(ctx context.Context, job func() error) error {
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-wp.semaphore }()

	if err := wp.enforceRateLimit(ctx); err != nil {
		return err
	}
	return job()
}

func (wp *WorkerPool) enforceRateLimit(ctx context.Context) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wait := wp.rateLimit - time.Since(wp.lastStart); wait > 0 && !wp.lastStart.IsZero() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	wp.lastStart = time.Now()
	return nil
}

// InFlight tracks keys of actions that are currently running, so a second
// copy of the same action can be turned away instead of re-entering.
type InFlight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// NewInFlight creates an empty InFlight set.
func NewInFlight() *InFlight {
	return &InFlight{running: make(map[string]struct{})}
}

// TryAcquire marks key as running. It returns false if key already is;
// otherwise the returned release func must be called when the action ends.
func (f *InFlight) TryAcquire(key string) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.running[key]; busy {
		return nil, false
	}
	f.running[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.running, key)
			f.mu.Unlock()
		})
	}, true
}
