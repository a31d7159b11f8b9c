package moderation

import (
	"context"
	"fmt"
	"time"

	"telegram-moderation-bot/storage"
)

// forceJoinFilter gates participation on membership in the configured
// channels. Channel handles are stored without the leading "@".
type forceJoinFilter struct {
	e *Engine
}

func (f *forceJoinFilter) Name() string { return ActionForceJoin }

func (f *forceJoinFilter) Check(ctx context.Context, msg *Message, cfg *storage.GroupSettings, exempt bool) bool {
	if exempt || !cfg.ForceJoinEnabled || len(cfg.ForceJoinChannels) == 0 {
		return true
	}

	for _, channel := range cfg.ForceJoinChannels {
		status, err := f.e.platform.GetMembership(ctx, ChatRef{Username: "@" + channel}, msg.UserID)
		if err != nil {
			// Unresolvable channel (bot not a member, typo) never locks
			// users out.
			continue
		}
		if status != MemberStatusLeft && status != MemberStatusKicked {
			continue
		}

		f.e.deleteMessage(ctx, msg.ChatID, msg.MessageID)

		buttons := make([][]Button, 0, len(cfg.ForceJoinChannels)+1)
		for _, ch := range cfg.ForceJoinChannels {
			buttons = append(buttons, []Button{{
				Text: fmt.Sprintf("Gabung @%s", ch),
				URL:  fmt.Sprintf("https://t.me/%s", ch),
			}})
		}
		buttons = append(buttons, []Button{{
			Text:         "Sudah Gabung",
			CallbackData: fmt.Sprintf("forcejoin_check_%d", msg.ChatID),
		}})

		text := fmt.Sprintf("%s, kamu harus bergabung ke channel/grup yang diwajibkan sebelum bisa mengirim pesan di sini.", msg.Mention)
		f.e.notify(ctx, msg.ChatID, text, &SendOptions{HTML: true, Buttons: buttons}, 30*time.Second)

		f.e.incrementStat(msg.ChatID, storage.StatForceJoinBlocked)
		f.e.incrementStat(msg.ChatID, storage.StatMessagesDeleted)
		f.e.logAction(msg.ChatID, ActionForceJoin, msg.UserName, PerformerBot,
			"Pesan dihapus - belum bergabung ke channel wajib")

		// Fail on the first missing membership; remaining channels are
		// not checked for this message.
		return false
	}
	return true
}

// MissingMemberships returns the configured channels the user has left or
// been kicked from. Used by the "Sudah Gabung" verification callback.
func (e *Engine) MissingMemberships(ctx context.Context, cfg *storage.GroupSettings, userID int64) []string {
	var missing []string
	for _, channel := range cfg.ForceJoinChannels {
		status, err := e.platform.GetMembership(ctx, ChatRef{Username: "@" + channel}, userID)
		if err != nil {
			continue
		}
		if status == MemberStatusLeft || status == MemberStatusKicked {
			missing = append(missing, channel)
		}
	}
	return missing
}
