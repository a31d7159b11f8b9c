package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"telegram-moderation-bot/moderation"
)

// Telegram adapts the telego client to the moderation.Platform interface so
// the engine never touches Telegram types directly.
type Telegram struct {
	api *telego.Bot
}

func NewTelegram(api *telego.Bot) *Telegram {
	return &Telegram{api: api}
}

func (t *Telegram) GetMembership(ctx context.Context, chat moderation.ChatRef, userID int64) (moderation.MemberStatus, error) {
	var chatID telego.ChatID
	if chat.Username != "" {
		chatID = tu.Username(chat.Username)
	} else {
		chatID = tu.ID(chat.ID)
	}

	member, err := t.api.GetChatMember(&telego.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get chat member: %w", err)
	}
	return moderation.MemberStatus(member.MemberStatus()), nil
}

func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return t.api.DeleteMessage(&telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
}

func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string, opts *moderation.SendOptions) (int, error) {
	params := tu.Message(tu.ID(chatID), text)
	if opts != nil {
		if opts.HTML {
			params = params.WithParseMode(telego.ModeHTML)
		}
		if len(opts.Buttons) > 0 {
			params = params.WithReplyMarkup(inlineKeyboard(opts.Buttons))
		}
	}

	msg, err := t.api.SendMessage(params)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return msg.MessageID, nil
}

func (t *Telegram) RestrictSend(ctx context.Context, chatID, userID int64, until time.Time) error {
	return t.api.RestrictChatMember(&telego.RestrictChatMemberParams{
		ChatID:      tu.ID(chatID),
		UserID:      userID,
		Permissions: telego.ChatPermissions{},
		UntilDate:   until.Unix(),
	})
}

func (t *Telegram) BanUser(ctx context.Context, chatID, userID int64) error {
	return t.api.BanChatMember(&telego.BanChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
}

func (t *Telegram) UnbanUser(ctx context.Context, chatID, userID int64) error {
	return t.api.UnbanChatMember(&telego.UnbanChatMemberParams{
		ChatID:       tu.ID(chatID),
		UserID:       userID,
		OnlyIfBanned: true,
	})
}

func inlineKeyboard(rows [][]moderation.Button) *telego.InlineKeyboardMarkup {
	keyboard := make([][]telego.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, telego.InlineKeyboardButton{
				Text:         b.Text,
				URL:          b.URL,
				CallbackData: b.CallbackData,
			})
		}
		keyboard = append(keyboard, buttons)
	}
	return &telego.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
