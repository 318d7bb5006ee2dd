package moderation

import (
	"strconv"
	"strings"
	"time"

	"github.com/groupwarden/modbot/internal/config"
)

type ActionKind string

const (
	ActionAllow               ActionKind = "allow"
	ActionDeleteAndWarn       ActionKind = "delete_and_warn"
	ActionDeleteAndRestrict   ActionKind = "delete_and_restrict"
	ActionDeleteAndHold       ActionKind = "delete_and_hold"
	ActionKick                ActionKind = "kick"
	ActionMuteForFlood        ActionKind = "mute_for_flood"
	ActionAutoMuteForWarnings ActionKind = "auto_mute_for_warnings"
)

type Reason string

const (
	ReasonDealerAd       Reason = "dealer_ad"
	ReasonBannedWord     Reason = "banned_word"
	ReasonLink           Reason = "link"
	ReasonFlood          Reason = "flood"
	ReasonRepeatWarnings Reason = "repeat_warnings"
)

// Action is the single moderation verdict for one message. It is
// consumed exactly once by the transport glue and the audit formatter.
type Action struct {
	Kind     ActionKind
	Reason   Reason
	Until    time.Time
	Duration time.Duration
	Score    int
	Signals  []SignalKind
}

// ScopeChat keys moderation state per chat+user instead of per user.
const ScopeChat = "chat"

// Policy evaluates incoming messages in strict priority order and owns
// all mutable per-user moderation state. State mutation happens inside a
// per-key exclusive section; no method blocks or performs I/O, so
// transport calls always run after the decision is final.
type Policy struct {
	cfg         config.Moderation
	classifier  *Classifier
	flood       *FloodTracker
	offenses    *OffenseTracker
	warns       *WarnLedger
	keys        keyedMutex
	bannedWords []string
}

func NewPolicy(cfg config.Moderation, classifier *Classifier) *Policy {
	banned := make([]string, 0, len(cfg.BannedWords))
	for _, word := range cfg.BannedWords {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			banned = append(banned, word)
		}
	}
	return &Policy{
		cfg:         cfg,
		classifier:  classifier,
		flood:       NewFloodTracker(cfg.FloodWindow),
		offenses:    NewOffenseTracker(cfg.RestrictionDuration),
		warns:       NewWarnLedger(),
		bannedWords: banned,
	}
}

// StateKey derives the identity all per-user state is keyed by,
// according to the configured offense scope.
func (p *Policy) StateKey(chatID, userID int64) string {
	if p.cfg.OffenseScope == ScopeChat {
		return strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
	}
	return strconv.FormatInt(userID, 10)
}

// Evaluate produces exactly one action for the event. First match wins:
// trust/admin bypass, ad escalation, banned words, link filter, flood,
// allow.
func (p *Policy) Evaluate(ev Event) Action {
	if ev.IsTrusted || (p.cfg.AdminBypass && ev.IsAdmin) {
		return Action{Kind: ActionAllow}
	}

	blob := Aggregate(ev)
	result := p.classifier.Classify(blob)

	key := p.StateKey(ev.ChatID, ev.UserID)
	unlock := p.keys.lock(key)
	defer unlock()

	if p.cfg.AdScoreThreshold > 0 && result.Score >= p.cfg.AdScoreThreshold {
		decision := p.offenses.OnViolation(key, ev.Time)
		action := Action{
			Reason:  ReasonDealerAd,
			Until:   decision.Until,
			Score:   result.Score,
			Signals: result.Signals,
		}
		switch decision.Outcome {
		case FirstOffense:
			action.Kind = ActionDeleteAndRestrict
		case HeldDuringRestriction:
			action.Kind = ActionDeleteAndHold
		case KickDue:
			action.Kind = ActionKick
		}
		return action
	}

	lower := strings.ToLower(blob)
	for _, word := range p.bannedWords {
		if strings.Contains(lower, word) {
			return Action{Kind: ActionDeleteAndWarn, Reason: ReasonBannedWord}
		}
	}

	if p.cfg.LinkFilter && !ev.IsAdmin && containsLink(lower) {
		return Action{Kind: ActionDeleteAndWarn, Reason: ReasonLink}
	}

	if count := p.flood.RecordAndCount(key, ev.Time); count >= p.cfg.FloodLimit {
		p.flood.Reset(key)
		return Action{Kind: ActionMuteForFlood, Reason: ReasonFlood, Duration: p.cfg.MuteDuration}
	}

	return Action{Kind: ActionAllow}
}

// ResetOffense returns the user's escalation cycle to clean. The
// transport glue calls it after a KickDue verdict has been enforced.
func (p *Policy) ResetOffense(chatID, userID int64) {
	p.offenses.Reset(p.StateKey(chatID, userID))
}

// ManualWarn records one admin-issued warning and reports whether the
// auto-mute threshold was crossed. Crossing consumes the counter.
func (p *Policy) ManualWarn(chatID, userID int64) (int, Action) {
	key := p.StateKey(chatID, userID)
	unlock := p.keys.lock(key)
	defer unlock()

	count := p.warns.Warn(key)
	if p.warns.ConsumeIfThreshold(key, p.cfg.WarnBeforeMute) {
		return count, Action{
			Kind:     ActionAutoMuteForWarnings,
			Reason:   ReasonRepeatWarnings,
			Duration: p.cfg.MuteDuration,
		}
	}
	return count, Action{Kind: ActionAllow}
}

func containsLink(lower string) bool {
	return strings.Contains(lower, "http://") ||
		strings.Contains(lower, "https://") ||
		strings.Contains(lower, "t.me/")
}
