package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"telegram-moderation-bot/storage"
)

// classifierMinLength is the length floor below which the classifier is not
// worth a network call.
const classifierMinLength = 5

// aiModeratorFilter asks the external classifier whether the text violates
// the group rules. Classifier failures are fail-open: a broken or slow
// classifier must never block the pipeline.
type aiModeratorFilter struct {
	e *Engine
}

func (f *aiModeratorFilter) Name() string { return ActionAIModerator }

func (f *aiModeratorFilter) Check(ctx context.Context, msg *Message, cfg *storage.GroupSettings, exempt bool) bool {
	if exempt || !cfg.AIModeratorEnabled || msg.Text == "" || f.e.classifier == nil {
		return true
	}
	if utf8.RuneCountInString(msg.Text) < classifierMinLength {
		return true
	}

	verdict, err := f.e.classifier.Classify(ctx, msg.Text)
	if err != nil {
		slog.Warn("moderation: Classifier error, passing message", "error", err,
			"chat_id", msg.ChatID)
		return true
	}
	if !verdict.Violation {
		return true
	}

	reason := verdict.Reason
	if reason == "" {
		reason = "Melanggar aturan grup"
	}

	f.e.deleteMessage(ctx, msg.ChatID, msg.MessageID)
	f.e.notify(ctx, msg.ChatID,
		fmt.Sprintf("%s, pesanmu dihapus oleh AI Moderator.\nAlasan: %s", msg.Mention, EscapeHTML(reason)),
		&SendOptions{HTML: true}, 15*time.Second)

	f.e.incrementStat(msg.ChatID, storage.StatMessagesDeleted)
	f.e.logAction(msg.ChatID, ActionAIModerator, msg.UserName, "AI Moderator",
		fmt.Sprintf("Pesan dihapus - %s", reason))
	return false
}
