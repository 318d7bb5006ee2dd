package handlers

import (
	"context"
	"fmt"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/groupwarden/modbot/internal/bot"
)

// Greeter welcomes newly joined members and points them at the rules.
type Greeter struct {
	s bot.Service
}

func NewGreeter(s bot.Service) *Greeter {
	return &Greeter{s: s}
}

func (g *Greeter) Handle(ctx context.Context, u *api.Update, chat *api.Chat, _ *api.User) (bool, error) {
	if u == nil || u.Message == nil || chat == nil {
		return true, nil
	}
	if len(u.Message.NewChatMembers) == 0 {
		return true, nil
	}

	self := g.s.GetBot().Self.ID
	for _, member := range u.Message.NewChatMembers {
		if member.IsBot || member.ID == self {
			continue
		}
		text := fmt.Sprintf("Welcome, %s! Please read the rules with /rules before posting.", bot.GetFullName(&member))
		if err := bot.SendChatMessage(ctx, g.s.GetBot(), chat.ID, text); err != nil {
			log.WithField("error", err.Error()).WithField("chat_id", chat.ID).Error("cant greet new member")
		}
	}
	return false, nil
}
