package bot

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"telegram-moderation-bot/moderation"
)

// newMembersHandler welcomes newly joined users, optionally muting them for
// the configured duration. Bots are ignored.
func (b *Bot) newMembersHandler(bot *telego.Bot, update telego.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	if err := b.store.UpsertGroup(chatID, msg.Chat.Title, 0, true); err != nil {
		slog.Error("bot: Failed to upsert group", "error", err, "chat_id", chatID)
	}
	cfg, err := b.store.EnsureSettings(chatID)
	if err != nil {
		slog.Error("bot: Failed to load settings", "error", err, "chat_id", chatID)
		return
	}

	for _, user := range msg.NewChatMembers {
		if user.IsBot {
			continue
		}

		if cfg.MuteNewMembers && cfg.MuteNewMembersDuration > 0 {
			until := time.Now().Add(time.Duration(cfg.MuteNewMembersDuration) * time.Second)
			err := bot.RestrictChatMember(&telego.RestrictChatMemberParams{
				ChatID:      tu.ID(chatID),
				UserID:      user.ID,
				Permissions: telego.ChatPermissions{},
				UntilDate:   until.Unix(),
			})
			if err != nil {
				slog.Warn("bot: Failed to mute new member", "error", err,
					"chat_id", chatID, "user_id", user.ID)
			}
		}

		if !cfg.WelcomeEnabled {
			continue
		}

		text := cfg.WelcomeMessage
		text = strings.ReplaceAll(text, "{user}", mentionHTML(user))
		text = strings.ReplaceAll(text, "{group}", moderation.EscapeHTML(msg.Chat.Title))

		params := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
		if cfg.ForceJoinEnabled && len(cfg.ForceJoinChannels) > 0 {
			params = params.WithReplyMarkup(forceJoinKeyboard(chatID, cfg.ForceJoinChannels))
		}
		if _, err := bot.SendMessage(params); err != nil {
			slog.Warn("bot: Failed to send welcome message", "error", err, "chat_id", chatID)
		}
	}
}

func forceJoinKeyboard(chatID int64, channels []string) *telego.InlineKeyboardMarkup {
	rows := make([][]telego.InlineKeyboardButton, 0, len(channels)+1)
	for _, channel := range channels {
		rows = append(rows, []telego.InlineKeyboardButton{{
			Text: fmt.Sprintf("Gabung @%s", channel),
			URL:  fmt.Sprintf("https://t.me/%s", channel),
		}})
	}
	rows = append(rows, []telego.InlineKeyboardButton{{
		Text:         "Sudah Gabung",
		CallbackData: fmt.Sprintf("forcejoin_check_%d", chatID),
	}})
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// callbackHandler answers the "Sudah Gabung" verification button by
// re-checking the required memberships for the pressing user.
func (b *Bot) callbackHandler(bot *telego.Bot, update telego.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	answer := func(text string, alert bool) {
		err := bot.AnswerCallbackQuery(&telego.AnswerCallbackQueryParams{
			CallbackQueryID: query.ID,
			Text:            text,
			ShowAlert:       alert,
		})
		if err != nil {
			slog.Warn("bot: Failed to answer callback query", "error", err)
		}
	}

	const prefix = "forcejoin_check_"
	if !strings.HasPrefix(query.Data, prefix) {
		answer("", false)
		return
	}
	chatID, err := strconv.ParseInt(strings.TrimPrefix(query.Data, prefix), 10, 64)
	if err != nil {
		answer("", false)
		return
	}

	cfg, err := b.store.EnsureSettings(chatID)
	if err != nil {
		slog.Error("bot: Failed to load settings", "error", err, "chat_id", chatID)
		answer("Terjadi kesalahan. Coba lagi nanti.", true)
		return
	}

	missing := b.engine.MissingMemberships(update.Context(), cfg, query.From.ID)
	if len(missing) == 0 {
		answer("Terima kasih! Kamu sudah bergabung ke semua channel wajib.", false)
		return
	}
	answer(fmt.Sprintf("Kamu belum bergabung ke: @%s", strings.Join(missing, ", @")), true)
}
