// Package ratelimit implements the per-source-address fixed window limiter
// guarding token minting. Callers pass in the current time so the window
// logic is deterministic under test.
package ratelimit

import (
	"sync"
	"time"
)

type Config struct {
	// Max requests allowed per address within one window.
	Max    int
	Window time.Duration

	// Operational bound for the in-memory map (single-process only).
	MaxEntries int
}

type record struct {
	count       int
	windowStart time.Time
}

type Limiter struct {
	cfg Config

	mu sync.Mutex
	m  map[string]*record
}

func New(cfg Config) *Limiter {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10_000
	}
	return &Limiter{
		cfg: cfg,
		m:   make(map[string]*record),
	}
}

// Allow records one request from addr and reports whether it is within the
// window budget. The count resets to 1 whenever a full window has elapsed
// since the window started; expired entries are pruned by the same rule.
func (l *Limiter) Allow(addr string, now time.Time) bool {
	if l.cfg.Max <= 0 || l.cfg.Window <= 0 {
		return true
	}
	if addr == "" {
		addr = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.m[addr]
	if !ok {
		if len(l.m) >= l.cfg.MaxEntries {
			l.gcLocked(now)
			// Still full: drop one arbitrary entry. Bounded memory wins over
			// perfect fairness at this scale.
			if len(l.m) >= l.cfg.MaxEntries {
				for k := range l.m {
					delete(l.m, k)
					break
				}
			}
		}
		l.m[addr] = &record{count: 1, windowStart: now}
		return true
	}

	if now.Sub(rec.windowStart) > l.cfg.Window {
		rec.count = 1
		rec.windowStart = now
		return true
	}

	rec.count++
	return rec.count <= l.cfg.Max
}

func (l *Limiter) gcLocked(now time.Time) {
	for k, v := range l.m {
		if now.Sub(v.windowStart) > l.cfg.Window {
			delete(l.m, k)
		}
	}
}
