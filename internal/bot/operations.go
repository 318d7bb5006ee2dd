package bot

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
)

// Transport operations the moderation pipeline enforces decisions with.
// Every call is best-effort from the pipeline's point of view: the
// caller logs a failure and carries on with the remaining steps.

func DeleteChatMessage(ctx context.Context, bot *api.BotAPI, chatID int64, messageID int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Request(api.NewDeleteMessage(chatID, messageID)); err != nil {
			return errors.WithMessage(err, "cant delete message")
		}
		return nil
	}
}

func BanUserFromChat(ctx context.Context, bot *api.BotAPI, userID int64, chatID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Request(api.BanChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				UserID: userID,
			},
			RevokeMessages: true,
		}); err != nil {
			return errors.WithMessage(err, "cant ban")
		}
		return nil
	}
}

func UnbanUserFromChat(ctx context.Context, bot *api.BotAPI, userID int64, chatID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Request(api.UnbanChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				UserID: userID,
			},
			OnlyIfBanned: true,
		}); err != nil {
			return errors.WithMessage(err, "cant unban")
		}
		return nil
	}
}

// KickUserFromChat is a ban immediately followed by an unban, which
// removes the user while letting them rejoin later.
func KickUserFromChat(ctx context.Context, bot *api.BotAPI, userID int64, chatID int64) error {
	if err := BanUserFromChat(ctx, bot, userID, chatID); err != nil {
		return err
	}
	return UnbanUserFromChat(ctx, bot, userID, chatID)
}

func RestrictChatting(ctx context.Context, bot *api.BotAPI, userID int64, chatID int64, until time.Time) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Request(api.RestrictChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				UserID: userID,
			},
			UntilDate:   until.Unix(),
			Permissions: &api.ChatPermissions{},

			UseIndependentChatPermissions: true,
		}); err != nil {
			return errors.WithMessage(err, "cant restrict")
		}
		return nil
	}
}

func UnrestrictChatting(ctx context.Context, bot *api.BotAPI, userID int64, chatID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Request(api.RestrictChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				UserID: userID,
			},
			Permissions: &api.ChatPermissions{
				CanSendMessages:       true,
				CanSendAudios:         true,
				CanSendDocuments:      true,
				CanSendPhotos:         true,
				CanSendVideos:         true,
				CanSendVideoNotes:     true,
				CanSendVoiceNotes:     true,
				CanSendPolls:          true,
				CanSendOtherMessages:  true,
				CanAddWebPagePreviews: true,
			},
		}); err != nil {
			return errors.WithMessage(err, "cant unrestrict")
		}
		return nil
	}
}

func SendChatMessage(ctx context.Context, bot *api.BotAPI, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Send(api.NewMessage(chatID, text)); err != nil {
			return errors.WithMessage(err, "cant send message")
		}
		return nil
	}
}

func SendHTMLMessage(ctx context.Context, bot *api.BotAPI, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		msg := api.NewMessage(chatID, text)
		msg.ParseMode = api.ModeHTML
		if _, err := bot.Send(msg); err != nil {
			return errors.WithMessage(err, "cant send html message")
		}
		return nil
	}
}

func PinChatMessage(ctx context.Context, bot *api.BotAPI, chatID int64, messageID int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Request(api.PinChatMessageConfig{
			BaseChatMessage: api.BaseChatMessage{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				MessageID: messageID,
			},
		}); err != nil {
			return errors.WithMessage(err, "cant pin message")
		}
		return nil
	}
}

func IsChatAdmin(bot *api.BotAPI, chatID int64, userID int64) (bool, error) {
	chatMember, err := bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			UserID: userID,
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
		},
	})
	if err != nil {
		return false, errors.WithMessage(err, "cant get chat member")
	}
	return chatMember.IsCreator() || chatMember.IsAdministrator(), nil
}
