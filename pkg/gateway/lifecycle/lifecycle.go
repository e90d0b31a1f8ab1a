// Package lifecycle tracks process lifecycle state shared across handlers:
// the draining flag flipped during graceful shutdown, and the set of calls
// still bridged so shutdown can wait for them. Websocket connections are
// hijacked from the HTTP server, so http.Server.Shutdown alone would not
// wait for active calls.
package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type Lifecycle struct {
	draining atomic.Bool

	mu    sync.Mutex
	calls int
}

func (l *Lifecycle) SetDraining(draining bool) {
	if l == nil {
		return
	}
	l.draining.Store(draining)
}

func (l *Lifecycle) IsDraining() bool {
	if l == nil {
		return false
	}
	return l.draining.Load()
}

// CallStarted registers one bridged call. It reports false when the process
// is draining and the call should be refused.
func (l *Lifecycle) CallStarted() bool {
	if l == nil {
		return true
	}
	if l.draining.Load() {
		return false
	}
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return true
}

func (l *Lifecycle) CallEnded() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.calls > 0 {
		l.calls--
	}
	l.mu.Unlock()
}

func (l *Lifecycle) ActiveCalls() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// WaitIdle blocks until no calls remain or the context ends, reporting
// whether the process went idle.
func (l *Lifecycle) WaitIdle(ctx context.Context) bool {
	if l == nil {
		return true
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if l.ActiveCalls() == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return l.ActiveCalls() == 0
		case <-ticker.C:
		}
	}
}
