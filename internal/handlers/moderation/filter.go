package handlers

import (
	"context"
	"fmt"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/groupwarden/modbot/internal/bot"
	"github.com/groupwarden/modbot/internal/event"
	"github.com/groupwarden/modbot/internal/moderation"
	"github.com/groupwarden/modbot/internal/observability"
)

// AuditEventType identifies moderation audit records on the event bus.
const AuditEventType = "moderation_audit"

const auditEventTTL = 10 * time.Minute

// AuditEvent carries one rendered-ready audit record to whichever
// subscriber delivers it, usually the admin log chat.
type AuditEvent struct {
	*event.Base
	Record moderation.AuditRecord
}

func NewAuditEvent(record moderation.AuditRecord) *AuditEvent {
	return &AuditEvent{
		Base:   event.CreateBase(AuditEventType, time.Now().Add(auditEventTTL)),
		Record: record,
	}
}

// Filter turns group messages into moderation events, asks the policy
// for a verdict and enforces it. Enforcement is best effort: a failed
// transport call is logged and the remaining steps still run.
type Filter struct {
	s      bot.Service
	policy *moderation.Policy
	admins *bot.AdminCache
}

func NewFilter(s bot.Service, policy *moderation.Policy, admins *bot.AdminCache) *Filter {
	return &Filter{
		s:      s,
		policy: policy,
		admins: admins,
	}
}

func (f *Filter) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return true, nil
	}
	msg := u.Message
	if user.IsBot || msg.IsCommand() {
		return true, nil
	}

	entry := f.getLogEntry().WithField("chat_id", chat.ID).WithField("user_id", user.ID)

	if settings, err := f.s.GetDB().GetSettings(ctx, chat.ID); err != nil {
		entry.WithField("error", err.Error()).Warn("cant load chat settings")
	} else if settings != nil && !settings.Enabled {
		return true, nil
	}

	done := observability.StartMessageProcessing()

	isTrusted, err := f.s.GetDB().IsTrusted(ctx, user.ID)
	if err != nil {
		entry.WithField("error", err.Error()).Warn("trusted lookup failed, treating as not trusted")
		isTrusted = false
	}

	ev := f.buildEvent(msg, chat, user, isTrusted)
	action := f.policy.Evaluate(ev)
	if observability.Logger != nil {
		observability.Logger.Info("decision",
			zap.Int64("chat_id", ev.ChatID),
			zap.Int64("user_id", ev.UserID),
			zap.String("action", string(action.Kind)),
			zap.String("reason", string(action.Reason)),
			zap.Int("score", action.Score),
		)
	}
	observability.RecordAction(string(action.Kind))
	if action.Reason == moderation.ReasonDealerAd {
		observability.RecordAdScore(action.Score)
	}

	if action.Kind == moderation.ActionAllow {
		done(string(action.Kind))
		return true, nil
	}

	f.enforce(ctx, ev, chat, action)
	event.Bus.NQ(NewAuditEvent(moderation.NewAuditRecord(ev, chat.Title, action)))
	done(string(action.Kind))
	return false, nil
}

func (f *Filter) enforce(ctx context.Context, ev moderation.Event, chat *api.Chat, action moderation.Action) {
	entry := f.getLogEntry().
		WithField("chat_id", ev.ChatID).
		WithField("user_id", ev.UserID).
		WithField("action", action.Kind)
	b := f.s.GetBot()

	switch action.Kind {
	case moderation.ActionDeleteAndWarn:
		f.deleteMessage(ctx, ev, entry)
		notice := "that language is not allowed."
		if action.Reason == moderation.ReasonLink {
			notice = "links are not allowed."
		}
		f.notify(ctx, ev, notice, entry)

	case moderation.ActionDeleteAndRestrict:
		f.deleteMessage(ctx, ev, entry)
		if !action.Until.IsZero() {
			if err := bot.RestrictChatting(ctx, b, ev.UserID, ev.ChatID, action.Until); err != nil {
				entry.WithField("error", err.Error()).Error("cant restrict offender")
			}
		}
		f.notify(ctx, ev, "your message was removed for suspected illicit content. Another one before your restriction expires and you are out.", entry)

	case moderation.ActionDeleteAndHold:
		f.deleteMessage(ctx, ev, entry)

	case moderation.ActionKick:
		f.deleteMessage(ctx, ev, entry)
		if err := bot.KickUserFromChat(ctx, b, ev.UserID, ev.ChatID); err != nil {
			entry.WithField("error", err.Error()).Error("cant kick offender")
		}
		f.policy.ResetOffense(ev.ChatID, ev.UserID)

	case moderation.ActionMuteForFlood:
		until := ev.Time.Add(action.Duration)
		if err := bot.RestrictChatting(ctx, b, ev.UserID, ev.ChatID, until); err != nil {
			entry.WithField("error", err.Error()).Error("cant mute flooder")
		}
		f.notify(ctx, ev, fmt.Sprintf("slow down. You are muted for %s.", action.Duration), entry)

	default:
		entry.Warn("unknown action kind, nothing enforced")
	}
}

func (f *Filter) deleteMessage(ctx context.Context, ev moderation.Event, entry *log.Entry) {
	if err := bot.DeleteChatMessage(ctx, f.s.GetBot(), ev.ChatID, ev.MessageID); err != nil {
		entry.WithField("error", err.Error()).Error("cant delete message")
	}
}

func (f *Filter) notify(ctx context.Context, ev moderation.Event, notice string, entry *log.Entry) {
	text := fmt.Sprintf("%s, %s", ev.DisplayName, notice)
	if err := bot.SendChatMessage(ctx, f.s.GetBot(), ev.ChatID, text); err != nil {
		entry.WithField("error", err.Error()).Error("cant send notice")
	}
}

func (f *Filter) buildEvent(msg *api.Message, chat *api.Chat, user *api.User, isTrusted bool) moderation.Event {
	spans, links := collectLinks(msg)
	return moderation.Event{
		UserID:      user.ID,
		ChatID:      chat.ID,
		MessageID:   msg.MessageID,
		DisplayName: bot.GetFullName(user),
		IsAdmin:     f.admins.IsAdmin(chat.ID, user.ID),
		IsTrusted:   isTrusted,
		Text:        msg.Text,
		Caption:     msg.Caption,
		LinkSpans:   spans,
		Links:       links,
		Time:        time.Unix(int64(msg.Date), 0),
	}
}

// collectLinks extracts url entity spans and hidden text_link targets
// from both the message body and the caption. Offsets stay in UTF-16
// code units, the way Telegram reports them.
func collectLinks(msg *api.Message) ([]moderation.Span, []string) {
	var spans []moderation.Span
	var links []string
	entities := msg.Entities
	if msg.Text == "" {
		entities = msg.CaptionEntities
	}
	for _, e := range entities {
		switch e.Type {
		case "url":
			spans = append(spans, moderation.Span{Offset: e.Offset, Length: e.Length})
		case "text_link":
			if e.URL != "" {
				links = append(links, e.URL)
			}
		}
	}
	return spans, links
}

func (f *Filter) getLogEntry() *log.Entry {
	return log.WithField("context", "moderation_filter")
}
