package moderation

import (
	"sync"
	"time"
)

// OffenseOutcome is the escalation decision for one qualifying violation.
type OffenseOutcome string

const (
	// FirstOffense starts a restriction cycle for a clean user.
	FirstOffense OffenseOutcome = "first_offense"
	// HeldDuringRestriction records a repeat violation while the current
	// restriction is still running; no new enforcement is due.
	HeldDuringRestriction OffenseOutcome = "held_during_restriction"
	// KickDue means the user violated again after the restriction ran
	// out. The caller executes the kick and must then call Reset.
	KickDue OffenseOutcome = "kick_due"
)

type OffenseDecision struct {
	Outcome OffenseOutcome
	Until   time.Time
	Count   int
}

type offenseState struct {
	count           int
	restrictedUntil time.Time
}

// OffenseTracker owns the per-user escalation cycle:
// clean -> restricted -> (held while restricted | kick once it lapsed).
// It only decides; executing the kick and resetting the cycle is the
// caller's job, which keeps side effects out of the state transition.
type OffenseTracker struct {
	mu          sync.Mutex
	restriction time.Duration
	states      map[string]*offenseState
}

func NewOffenseTracker(restriction time.Duration) *OffenseTracker {
	return &OffenseTracker{
		restriction: restriction,
		states:      map[string]*offenseState{},
	}
}

// OnViolation runs one atomic read-decide-write transition for the key.
func (t *OffenseTracker) OnViolation(key string, now time.Time) OffenseDecision {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[key]
	if !ok || state.count == 0 {
		until := now.Add(t.restriction)
		t.states[key] = &offenseState{count: 1, restrictedUntil: until}
		return OffenseDecision{Outcome: FirstOffense, Until: until, Count: 1}
	}
	if now.Before(state.restrictedUntil) {
		state.count++
		return OffenseDecision{Outcome: HeldDuringRestriction, Until: state.restrictedUntil, Count: state.count}
	}
	return OffenseDecision{Outcome: KickDue, Until: state.restrictedUntil, Count: state.count}
}

// Reset removes the key's cycle entirely, returning the user to clean.
func (t *OffenseTracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, key)
}
