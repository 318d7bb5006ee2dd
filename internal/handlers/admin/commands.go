package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/groupwarden/modbot/internal/bot"
	"github.com/groupwarden/modbot/internal/config"
	"github.com/groupwarden/modbot/internal/db"
	"github.com/groupwarden/modbot/internal/event"
	modfilter "github.com/groupwarden/modbot/internal/handlers/moderation"
	"github.com/groupwarden/modbot/internal/moderation"
)

const helpText = `I keep this group clean.

Everyone:
/rules - group rules
/help - this message

Admins, reply to a message with:
/ban - ban the author
/kick - remove the author, they may rejoin
/mute [minutes] - mute the author
/unmute - lift restrictions from the author
/warn - warn the author, repeat warnings mute automatically
/pin - pin the message
/trust - exempt the author from moderation
/untrust - revoke the exemption

Admins, anywhere:
/trusted - list trusted user ids
/enable /disable - toggle moderation for this chat`

const rulesText = `Group rules:
1. No advertising, selling or soliciting.
2. No flooding.
3. Respect the admins. Repeat warnings end in a mute.`

// Admin handles slash commands. Moderation side effects of /warn go
// through the same policy the automatic filter uses, so manual and
// automatic warnings share one ledger.
type Admin struct {
	s      bot.Service
	policy *moderation.Policy
	admins *bot.AdminCache
}

func NewAdmin(s bot.Service, policy *moderation.Policy, admins *bot.AdminCache) *Admin {
	return &Admin{
		s:      s,
		policy: policy,
		admins: admins,
	}
}

func (a *Admin) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	msg := u.Message
	if !msg.IsCommand() {
		return true, nil
	}

	switch msg.Command() {
	case "start", "help":
		a.reply(ctx, chat.ID, helpText)
		return false, nil
	case "rules":
		a.reply(ctx, chat.ID, rulesText)
		return false, nil
	case "ban", "kick", "mute", "unmute", "pin", "warn", "trust", "untrust", "trusted", "enable", "disable":
		if !chat.IsGroup() && !chat.IsSuperGroup() {
			a.reply(ctx, chat.ID, "that command only works in groups.")
			return false, nil
		}
		if !a.admins.IsAdmin(chat.ID, user.ID) {
			a.reply(ctx, chat.ID, "that command is for admins only.")
			return false, nil
		}
		a.runAdminCommand(ctx, msg, chat, user)
		return false, nil
	default:
		return true, nil
	}
}

func (a *Admin) runAdminCommand(ctx context.Context, msg *api.Message, chat *api.Chat, admin *api.User) {
	entry := a.getLogEntry().
		WithField("chat_id", chat.ID).
		WithField("admin_id", admin.ID).
		WithField("command", msg.Command())
	b := a.s.GetBot()

	switch msg.Command() {
	case "enable", "disable":
		enabled := msg.Command() == "enable"
		settings, err := a.s.GetDB().GetSettings(ctx, chat.ID)
		if err != nil {
			entry.WithField("error", err.Error()).Error("cant load chat settings")
			return
		}
		if settings == nil {
			settings = &db.Settings{ID: chat.ID, Language: "en"}
		}
		settings.Enabled = enabled
		if err := a.s.GetDB().SetSettings(ctx, settings); err != nil {
			entry.WithField("error", err.Error()).Error("cant save chat settings")
			return
		}
		if enabled {
			a.reply(ctx, chat.ID, "moderation is on.")
		} else {
			a.reply(ctx, chat.ID, "moderation is off.")
		}

	case "trusted":
		ids, err := a.s.GetDB().GetTrusted(ctx)
		if err != nil {
			entry.WithField("error", err.Error()).Error("cant list trusted users")
			return
		}
		if len(ids) == 0 {
			a.reply(ctx, chat.ID, "nobody is trusted yet.")
			return
		}
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
		a.reply(ctx, chat.ID, "trusted: "+strings.Join(parts, ", "))

	case "pin":
		if msg.ReplyToMessage == nil {
			a.reply(ctx, chat.ID, "reply to the message you want to pin.")
			return
		}
		if err := bot.PinChatMessage(ctx, b, chat.ID, msg.ReplyToMessage.MessageID); err != nil {
			entry.WithField("error", err.Error()).Error("cant pin message")
		}

	default:
		target := commandTarget(msg)
		if target == nil {
			a.reply(ctx, chat.ID, "reply to a message from the user, or pass a user id.")
			return
		}
		a.runTargetedCommand(ctx, msg, chat, admin, target)
	}
}

func (a *Admin) runTargetedCommand(ctx context.Context, msg *api.Message, chat *api.Chat, admin *api.User, target *api.User) {
	entry := a.getLogEntry().
		WithField("chat_id", chat.ID).
		WithField("admin_id", admin.ID).
		WithField("target_id", target.ID).
		WithField("command", msg.Command())
	b := a.s.GetBot()
	name := displayName(target)

	switch msg.Command() {
	case "ban":
		if err := bot.BanUserFromChat(ctx, b, target.ID, chat.ID); err != nil {
			entry.WithField("error", err.Error()).Error("cant ban user")
			return
		}
		a.reply(ctx, chat.ID, fmt.Sprintf("%s is banned.", name))

	case "kick":
		if err := bot.KickUserFromChat(ctx, b, target.ID, chat.ID); err != nil {
			entry.WithField("error", err.Error()).Error("cant kick user")
			return
		}
		a.reply(ctx, chat.ID, fmt.Sprintf("%s was removed.", name))

	case "mute":
		duration := config.Get().Moderation.MuteDuration
		if arg := strings.Fields(msg.CommandArguments()); len(arg) > 0 {
			if minutes, err := strconv.Atoi(arg[0]); err == nil && minutes > 0 {
				duration = time.Duration(minutes) * time.Minute
			}
		}
		if err := bot.RestrictChatting(ctx, b, target.ID, chat.ID, time.Now().Add(duration)); err != nil {
			entry.WithField("error", err.Error()).Error("cant mute user")
			return
		}
		a.reply(ctx, chat.ID, fmt.Sprintf("%s is muted for %s.", name, duration))

	case "unmute":
		if err := bot.UnrestrictChatting(ctx, b, target.ID, chat.ID); err != nil {
			entry.WithField("error", err.Error()).Error("cant unmute user")
			return
		}
		a.reply(ctx, chat.ID, fmt.Sprintf("%s can talk again.", name))

	case "warn":
		a.warn(ctx, chat, target, name, entry)

	case "trust":
		if err := a.s.GetDB().AddTrusted(ctx, target.ID, admin.ID); err != nil {
			entry.WithField("error", err.Error()).Error("cant add trusted user")
			return
		}
		a.reply(ctx, chat.ID, fmt.Sprintf("%s is now trusted.", name))

	case "untrust":
		if err := a.s.GetDB().RemoveTrusted(ctx, target.ID); err != nil {
			entry.WithField("error", err.Error()).Error("cant remove trusted user")
			return
		}
		a.reply(ctx, chat.ID, fmt.Sprintf("%s is no longer trusted.", name))
	}
}

func (a *Admin) warn(ctx context.Context, chat *api.Chat, target *api.User, name string, entry *log.Entry) {
	count, action := a.policy.ManualWarn(chat.ID, target.ID)
	threshold := config.Get().Moderation.WarnBeforeMute

	if action.Kind != moderation.ActionAutoMuteForWarnings {
		a.reply(ctx, chat.ID, fmt.Sprintf("%s, warning %d of %d.", name, count, threshold))
		return
	}

	until := time.Now().Add(action.Duration)
	if err := bot.RestrictChatting(ctx, a.s.GetBot(), target.ID, chat.ID, until); err != nil {
		entry.WithField("error", err.Error()).Error("cant mute repeatedly warned user")
	}
	a.reply(ctx, chat.ID, fmt.Sprintf("%s collected %d warnings and is muted for %s.", name, count, action.Duration))

	record := moderation.NewAuditRecord(moderation.Event{
		UserID:      target.ID,
		ChatID:      chat.ID,
		DisplayName: name,
		Time:        time.Now(),
	}, chat.Title, action)
	event.Bus.NQ(modfilter.NewAuditEvent(record))
}

func (a *Admin) reply(ctx context.Context, chatID int64, text string) {
	if err := bot.SendChatMessage(ctx, a.s.GetBot(), chatID, text); err != nil {
		a.getLogEntry().WithField("error", err.Error()).WithField("chat_id", chatID).Error("cant send reply")
	}
}

// commandTarget resolves the user a command acts on, preferring the
// replied-to author and falling back to a numeric id argument.
func commandTarget(msg *api.Message) *api.User {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return msg.ReplyToMessage.From
	}
	if arg := strings.Fields(msg.CommandArguments()); len(arg) > 0 {
		if id, err := strconv.ParseInt(arg[0], 10, 64); err == nil && id > 0 {
			return &api.User{ID: id}
		}
	}
	return nil
}

func displayName(user *api.User) string {
	if name := bot.GetFullName(user); name != "" {
		return name
	}
	return strconv.FormatInt(user.ID, 10)
}

func (a *Admin) getLogEntry() *log.Entry {
	return log.WithField("context", "admin_commands")
}
