package device

import (
	"context"
	"sync"
	"sync/atomic"
)

// Lifecycle carries the running flag shared by all device implementations.
// Embed it and bracket Run with Begin and End.
type Lifecycle struct {
	running atomic.Bool

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
}

// Begin marks the device running and returns the context the run must watch.
// The context is cancelled by Stop.
func (l *Lifecycle) Begin(ctx context.Context) (context.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return nil, ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.active = true
	l.cancel = cancel
	l.running.Store(true)
	return runCtx, nil
}

// End clears the running flag and releases the run context.
func (l *Lifecycle) End() {
	l.running.Store(false)

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.active = false
	l.mu.Unlock()
}

func (l *Lifecycle) Running() bool {
	return l.running.Load()
}

// Stop never blocks beyond the brief critical section guarding the cancel
// func, and is safe to call repeatedly or when nothing is running.
func (l *Lifecycle) Stop() {
	l.running.Store(false)

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()
}
