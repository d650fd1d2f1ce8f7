package limiter

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process sliding-window limiter.  Counters reset on
// restart, which is acceptable: this is a best-effort abuse guard, not a
// durability guarantee.
type Memory struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewMemory returns a Memory limiter allowing max requests per key in
// each sliding window.
func NewMemory(max int, window time.Duration) *Memory {
	return &Memory{
		max:       max,
		window:    window,
		hits:      make(map[string][]time.Time),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// sweep drops keys whose newest hit has aged out of the window so the
// map does not grow without bound under client churn.  Caller holds mu.
func (m *Memory) sweep(cutoff time.Time) {
	for k, ts := range m.hits {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(m.hits, k)
		}
	}
}

// Check records a hit for key when allowed and reports the decision.
func (m *Memory) Check(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)

	if now.Sub(m.lastSweep) >= m.window {
		m.sweep(cutoff)
		m.lastSweep = now
	}

	recent := m.hits[key][:0]
	for _, t := range m.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= m.max {
		m.hits[key] = recent
		// The window frees a slot when its oldest hit ages out.
		retry := recent[0].Add(m.window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}

	recent = append(recent, now)
	m.hits[key] = recent
	return Decision{Allowed: true, Remaining: m.max - len(recent)}, nil
}
