package service

import (
	"context"
	"sync"
	"time"
)

// ─────────────────────────────────────────────────────────────
// runGuard: keeps pipeline runs from overlapping
// ─────────────────────────────────────────────────────────────

// runGuard admits one run at a time and tracks it for shutdown. Once
// wait has been called no further run is admitted.
type runGuard struct {
	mu      sync.Mutex
	active  bool
	closing bool
	started time.Time
	wg      sync.WaitGroup
}

// tryAcquire marks a run as active. It fails with ErrAlreadyRunning while
// another run is active and with ErrShuttingDown after wait.
func (g *runGuard) tryAcquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closing {
		return ErrShuttingDown
	}
	if g.active {
		return ErrAlreadyRunning
	}
	g.active = true
	g.started = time.Now()
	g.wg.Add(1)
	return nil
}

// release ends the active run. Must follow a successful tryAcquire.
func (g *runGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
	g.started = time.Time{}
	g.wg.Done()
}

// running reports whether a run is active and when it started.
func (g *runGuard) running() (bool, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active, g.started
}

// wait stops admitting runs, then blocks until the active run completes
// or ctx is cancelled.
func (g *runGuard) wait(ctx context.Context) error {
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
