package moderation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"telegram-moderation-bot/storage"
)

// urlPattern matches http/https URLs, www. links and t.me/ links anywhere
// in the text.
var urlPattern = regexp.MustCompile(`(?i)https?://\S+|www\.\S+|t\.me/\S+`)

// transientWarningTTL is how long the anti-link and word-filter notices
// stay before the scheduled cleanup removes them.
const transientWarningTTL = 10 * time.Second

// antiLinkFilter deletes messages containing links.
type antiLinkFilter struct {
	e *Engine
}

func (f *antiLinkFilter) Name() string { return ActionAntiLink }

func (f *antiLinkFilter) Check(ctx context.Context, msg *Message, cfg *storage.GroupSettings, exempt bool) bool {
	if exempt || !cfg.AntiLinkEnabled || msg.Text == "" {
		return true
	}
	if !urlPattern.MatchString(msg.Text) {
		return true
	}

	f.e.deleteMessage(ctx, msg.ChatID, msg.MessageID)
	f.e.notify(ctx, msg.ChatID,
		fmt.Sprintf("%s, mengirim link tidak diperbolehkan di grup ini.", msg.Mention),
		&SendOptions{HTML: true}, transientWarningTTL)

	f.e.incrementStat(msg.ChatID, storage.StatMessagesDeleted)
	f.e.logAction(msg.ChatID, ActionAntiLink, msg.UserName, PerformerBot,
		"Pesan dihapus - mengandung link")
	return false
}

// bannedWordFilter deletes messages containing any configured banned word,
// matched as a case-insensitive substring.
type bannedWordFilter struct {
	e *Engine
}

func (f *bannedWordFilter) Name() string { return ActionWordFilter }

func (f *bannedWordFilter) Check(ctx context.Context, msg *Message, cfg *storage.GroupSettings, exempt bool) bool {
	if exempt || !cfg.WordFilterEnabled || msg.Text == "" || len(cfg.BannedWords) == 0 {
		return true
	}

	lower := strings.ToLower(msg.Text)
	matched := false
	for _, word := range cfg.BannedWords {
		if word == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(word)) {
			matched = true
			break
		}
	}
	if !matched {
		return true
	}

	f.e.deleteMessage(ctx, msg.ChatID, msg.MessageID)
	f.e.notify(ctx, msg.ChatID,
		fmt.Sprintf("%s, pesanmu mengandung kata terlarang dan telah dihapus.", msg.Mention),
		&SendOptions{HTML: true}, transientWarningTTL)

	f.e.incrementStat(msg.ChatID, storage.StatMessagesDeleted)
	f.e.logAction(msg.ChatID, ActionWordFilter, msg.UserName, PerformerBot,
		"Pesan dihapus - mengandung kata terlarang")
	return false
}
