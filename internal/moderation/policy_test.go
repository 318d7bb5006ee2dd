package moderation

import (
	"testing"
	"time"

	"github.com/groupwarden/modbot/internal/config"
)

const dealerAdText = "Selling bulk, dm for price, wa.me/qwerty"

func testModerationConfig() config.Moderation {
	return config.Moderation{
		FloodLimit:          5,
		FloodWindow:         8 * time.Second,
		WarnBeforeMute:      2,
		MuteDuration:        10 * time.Minute,
		AdScoreThreshold:    3,
		RestrictionDuration: 72 * time.Hour,
		LinkFilter:          true,
		AdminBypass:         true,
		OffenseScope:        "global",
	}
}

func newTestPolicy(t *testing.T, cfg config.Moderation) *Policy {
	t.Helper()
	classifier, err := NewDefaultClassifier()
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}
	return NewPolicy(cfg, classifier)
}

func testEvent(userID int64, text string, at time.Time) Event {
	return Event{
		UserID:      userID,
		ChatID:      -100,
		MessageID:   1,
		DisplayName: "Test User",
		Text:        text,
		Time:        at,
	}
}

func TestEvaluateTrustShortCircuits(t *testing.T) {
	t.Parallel()

	policy := newTestPolicy(t, testModerationConfig())
	now := time.Now()

	trusted := testEvent(10, dealerAdText, now)
	trusted.IsTrusted = true
	for i := 0; i < 10; i++ {
		if got := policy.Evaluate(trusted); got.Kind != ActionAllow {
			t.Fatalf("trusted message action = %s, want %s", got.Kind, ActionAllow)
		}
	}

	// Trusted traffic must not have touched any per-user state: the same
	// user posting untrusted is still on a first offense, not held.
	untrusted := testEvent(10, dealerAdText, now)
	if got := policy.Evaluate(untrusted); got.Kind != ActionDeleteAndRestrict {
		t.Fatalf("first untrusted violation action = %s, want %s", got.Kind, ActionDeleteAndRestrict)
	}
}

func TestEvaluateAdminBypass(t *testing.T) {
	t.Parallel()

	now := time.Now()

	bypass := newTestPolicy(t, testModerationConfig())
	admin := testEvent(11, dealerAdText, now)
	admin.IsAdmin = true
	if got := bypass.Evaluate(admin); got.Kind != ActionAllow {
		t.Fatalf("admin action with bypass = %s, want %s", got.Kind, ActionAllow)
	}

	cfg := testModerationConfig()
	cfg.AdminBypass = false
	strict := newTestPolicy(t, cfg)
	if got := strict.Evaluate(admin); got.Kind != ActionDeleteAndRestrict {
		t.Fatalf("admin action without bypass = %s, want %s", got.Kind, ActionDeleteAndRestrict)
	}
}

func TestEvaluateAdEscalation(t *testing.T) {
	t.Parallel()

	cfg := testModerationConfig()
	policy := newTestPolicy(t, cfg)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first := policy.Evaluate(testEvent(20, dealerAdText, now))
	if first.Kind != ActionDeleteAndRestrict || first.Reason != ReasonDealerAd {
		t.Fatalf("first violation = %#v, want delete-and-restrict for dealer_ad", first)
	}
	if want := now.Add(cfg.RestrictionDuration); !first.Until.Equal(want) {
		t.Fatalf("restriction until = %v, want %v", first.Until, want)
	}
	if first.Score < cfg.AdScoreThreshold {
		t.Fatalf("violation score = %d, below threshold %d", first.Score, cfg.AdScoreThreshold)
	}

	held := policy.Evaluate(testEvent(20, dealerAdText, now.Add(30*time.Minute)))
	if held.Kind != ActionDeleteAndHold {
		t.Fatalf("violation during restriction = %s, want %s", held.Kind, ActionDeleteAndHold)
	}
	if !held.Until.Equal(first.Until) {
		t.Fatalf("held action moved the deadline: %v -> %v", first.Until, held.Until)
	}

	kick := policy.Evaluate(testEvent(20, dealerAdText, first.Until))
	if kick.Kind != ActionKick {
		t.Fatalf("post-restriction violation = %s, want %s", kick.Kind, ActionKick)
	}

	policy.ResetOffense(-100, 20)
	again := policy.Evaluate(testEvent(20, dealerAdText, first.Until))
	if again.Kind != ActionDeleteAndRestrict {
		t.Fatalf("violation after reset = %s, want %s", again.Kind, ActionDeleteAndRestrict)
	}
}

func TestEvaluateBannedWord(t *testing.T) {
	t.Parallel()

	cfg := testModerationConfig()
	cfg.BannedWords = []string{"Nastyword1", " "}
	policy := newTestPolicy(t, cfg)

	got := policy.Evaluate(testEvent(30, "you are a NASTYWORD1 mate", time.Now()))
	if got.Kind != ActionDeleteAndWarn || got.Reason != ReasonBannedWord {
		t.Fatalf("banned word action = %#v, want delete-and-warn for banned_word", got)
	}
}

func TestEvaluateLinkFilter(t *testing.T) {
	t.Parallel()

	now := time.Now()

	policy := newTestPolicy(t, testModerationConfig())
	got := policy.Evaluate(testEvent(40, "check this https://example.com out", now))
	if got.Kind != ActionDeleteAndWarn || got.Reason != ReasonLink {
		t.Fatalf("link action = %#v, want delete-and-warn for link", got)
	}
	if got := policy.Evaluate(testEvent(40, "see t.me/somechannel", now)); got.Reason != ReasonLink {
		t.Fatalf("t.me link reason = %s, want %s", got.Reason, ReasonLink)
	}

	cfg := testModerationConfig()
	cfg.LinkFilter = false
	lenient := newTestPolicy(t, cfg)
	if got := lenient.Evaluate(testEvent(40, "check this https://example.com out", now)); got.Kind != ActionAllow {
		t.Fatalf("link action with filter disabled = %s, want %s", got.Kind, ActionAllow)
	}
}

func TestEvaluateFloodMute(t *testing.T) {
	t.Parallel()

	cfg := testModerationConfig()
	policy := newTestPolicy(t, cfg)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < cfg.FloodLimit-1; i++ {
		got := policy.Evaluate(testEvent(50, "hello there friend", base.Add(time.Duration(i)*time.Second)))
		if got.Kind != ActionAllow {
			t.Fatalf("message %d action = %s, want %s", i, got.Kind, ActionAllow)
		}
	}

	muted := policy.Evaluate(testEvent(50, "hello there friend", base.Add(5*time.Second)))
	if muted.Kind != ActionMuteForFlood {
		t.Fatalf("flood action = %s, want %s", muted.Kind, ActionMuteForFlood)
	}
	if muted.Duration != cfg.MuteDuration {
		t.Fatalf("mute duration = %v, want %v", muted.Duration, cfg.MuteDuration)
	}

	// The tracker was reset, so the next message is not re-penalized.
	if got := policy.Evaluate(testEvent(50, "hello there friend", base.Add(6*time.Second))); got.Kind != ActionAllow {
		t.Fatalf("post-mute action = %s, want %s", got.Kind, ActionAllow)
	}
}

func TestManualWarnAutoMute(t *testing.T) {
	t.Parallel()

	cfg := testModerationConfig()
	policy := newTestPolicy(t, cfg)

	count, action := policy.ManualWarn(-100, 60)
	if count != 1 || action.Kind != ActionAllow {
		t.Fatalf("first warn = (%d, %s), want (1, %s)", count, action.Kind, ActionAllow)
	}
	count, action = policy.ManualWarn(-100, 60)
	if count != 2 || action.Kind != ActionAutoMuteForWarnings {
		t.Fatalf("second warn = (%d, %s), want (2, %s)", count, action.Kind, ActionAutoMuteForWarnings)
	}
	if action.Duration != cfg.MuteDuration {
		t.Fatalf("auto-mute duration = %v, want %v", action.Duration, cfg.MuteDuration)
	}
	count, action = policy.ManualWarn(-100, 60)
	if count != 1 || action.Kind != ActionAllow {
		t.Fatalf("warn after auto-mute = (%d, %s), want (1, %s)", count, action.Kind, ActionAllow)
	}
}

func TestStateKeyScope(t *testing.T) {
	t.Parallel()

	global := newTestPolicy(t, testModerationConfig())
	if got := global.StateKey(55, 100); got != "100" {
		t.Fatalf("global scope key = %q, want %q", got, "100")
	}

	cfg := testModerationConfig()
	cfg.OffenseScope = ScopeChat
	perChat := newTestPolicy(t, cfg)
	if got := perChat.StateKey(55, 100); got != "55:100" {
		t.Fatalf("chat scope key = %q, want %q", got, "55:100")
	}
}
