package moderation

import (
	"testing"
	"time"
)

func TestFloodTrackerWindowEviction(t *testing.T) {
	t.Parallel()

	tracker := NewFloodTracker(8 * time.Second)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		got := tracker.RecordAndCount("42", base.Add(time.Duration(i)*time.Second))
		if got != i+1 {
			t.Fatalf("count after event %d = %d, want %d", i, got, i+1)
		}
	}

	// At t=10 everything recorded at t<=2 has aged out of the 8s window.
	if got := tracker.RecordAndCount("42", base.Add(10*time.Second)); got != 3 {
		t.Fatalf("count at t=10 = %d, want 3 (t=3, t=4, t=10)", got)
	}
}

func TestFloodTrackerKeysAreIndependent(t *testing.T) {
	t.Parallel()

	tracker := NewFloodTracker(time.Minute)
	now := time.Now()
	tracker.RecordAndCount("1", now)
	tracker.RecordAndCount("1", now)
	if got := tracker.RecordAndCount("2", now); got != 1 {
		t.Fatalf("fresh key count = %d, want 1", got)
	}
}

func TestFloodTrackerReset(t *testing.T) {
	t.Parallel()

	tracker := NewFloodTracker(time.Minute)
	now := time.Now()
	for i := 0; i < 4; i++ {
		tracker.RecordAndCount("7", now)
	}
	tracker.Reset("7")
	if got := tracker.RecordAndCount("7", now); got != 1 {
		t.Fatalf("count after reset = %d, want 1", got)
	}
}
