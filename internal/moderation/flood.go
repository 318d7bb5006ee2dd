package moderation

import (
	"sync"
	"time"
)

// FloodTracker keeps a sliding window of message timestamps per state
// key. Timestamp sequences are insertion-ordered, so eviction is a
// prefix trim.
type FloodTracker struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string][]time.Time
}

func NewFloodTracker(window time.Duration) *FloodTracker {
	return &FloodTracker{
		window: window,
		seen:   map[string][]time.Time{},
	}
}

// RecordAndCount appends now to the key's sequence, evicts entries that
// have fallen out of the trailing window and returns the resulting
// count.
func (t *FloodTracker) RecordAndCount(key string, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	times := append(t.seen[key], now)
	start := 0
	for start < len(times) && now.Sub(times[start]) >= t.window {
		start++
	}
	times = times[start:]
	t.seen[key] = times
	return len(times)
}

// Reset clears the key's sequence. Called after a flood mute so the same
// burst is not immediately re-penalized.
func (t *FloodTracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, key)
}
