package moderation

import "sync"

// WarnLedger counts manual admin warnings per state key. It is a
// separate track from the offense escalation cycle: manual warnings and
// automated ad offenses have different consequences and never share
// counters.
type WarnLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewWarnLedger() *WarnLedger {
	return &WarnLedger{counts: map[string]int{}}
}

// Warn increments the key's count and returns the new value.
func (l *WarnLedger) Warn(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key]
}

// ConsumeIfThreshold resets the count and reports true when it has
// reached the threshold. The crossing is edge-triggered: once consumed,
// the count starts over from zero.
func (l *WarnLedger) ConsumeIfThreshold(key string, threshold int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if threshold <= 0 || l.counts[key] < threshold {
		return false
	}
	delete(l.counts, key)
	return true
}
