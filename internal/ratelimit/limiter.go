// Package ratelimit throttles abuse-prone endpoints, primarily login. The
// sliding-window limiter tracks request timestamps per key so bursts at
// window boundaries cannot double the effective limit.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports a single admission decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// InMemoryLimiter keeps sliding windows in process memory. Suitable for a
// single node; distributed deployments share the Redis session registry but
// throttle per instance.
type InMemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	now     func() time.Time
}

type slidingWindow struct {
	timestamps []time.Time
}

// NewInMemory constructs an empty limiter.
func NewInMemory() *InMemoryLimiter {
	return &InMemoryLimiter{
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

// Allow records the request if the key is under its limit.
func (l *InMemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok {
		w = &slidingWindow{}
		l.windows[key] = w
	}
	w.cleanup(now.Add(-window))

	if len(w.timestamps) >= limit {
		return &Result{
			Allowed: false,
			ResetAt: w.timestamps[0].Add(window),
		}, nil
	}

	w.timestamps = append(w.timestamps, now)
	return &Result{
		Allowed:   true,
		Remaining: limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(window),
	}, nil
}

// Reset clears the window for a key. Called after successful logins so a
// correct password is never penalized by earlier failures.
func (l *InMemoryLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// cleanup drops timestamps older than the cutoff.
func (w *slidingWindow) cleanup(cutoff time.Time) {
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept
}
