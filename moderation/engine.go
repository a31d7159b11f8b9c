package moderation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"telegram-moderation-bot/metrics"
	"telegram-moderation-bot/storage"
)

// Filter is one step of the moderation chain. Check returns true when the
// message passes. A filter returning false has already applied its side
// effects (delete, notify, stats, log); the chain stops there.
type Filter interface {
	Name() string
	Check(ctx context.Context, msg *Message, cfg *storage.GroupSettings, exempt bool) bool
}

// Engine runs the moderation filter chain over inbound group messages.
type Engine struct {
	platform   Platform
	store      Store
	classifier Classifier
	ownerID    int64

	// now and schedule exist so tests can inject a clock and run delayed
	// cleanups synchronously.
	now      func() time.Time
	schedule func(d time.Duration, f func())

	spam    *RateTracker
	flood   *RateTracker
	filters []Filter
}

// NewEngine builds the engine with the fixed production filter order:
// force-join, anti-spam, anti-link, word filter, anti-flood, AI moderator.
// Membership gating is cheapest and most fundamental; rate checks shed load
// before string scans; the classifier runs last because it is the most
// expensive. classifier may be nil, which disables the AI filter.
func NewEngine(platform Platform, store Store, classifier Classifier, ownerID int64) *Engine {
	e := &Engine{
		platform:   platform,
		store:      store,
		classifier: classifier,
		ownerID:    ownerID,
		now:        time.Now,
		schedule:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		spam:       NewRateTracker(),
		flood:      NewRateTracker(),
	}
	e.filters = []Filter{
		&forceJoinFilter{e},
		&antiSpamFilter{e},
		&antiLinkFilter{e},
		&bannedWordFilter{e},
		&antiFloodFilter{e},
		&aiModeratorFilter{e},
	}
	return e
}

// IsOwner reports whether userID is the configured bot owner.
func (e *Engine) IsOwner(userID int64) bool {
	return e.ownerID != 0 && userID == e.ownerID
}

// IsAdmin reports whether userID is a creator or administrator of the chat.
// Lookup failures count as "not an admin", like the original behavior.
func (e *Engine) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	status, err := e.platform.GetMembership(ctx, ChatRef{ID: chatID}, userID)
	if err != nil {
		slog.Debug("moderation: Membership lookup failed", "error", err,
			"chat_id", chatID, "user_id", userID)
		return false
	}
	return status == MemberStatusCreator || status == MemberStatusAdministrator
}

// ProcessMessage is the per-message entry point for group messages. It
// ensures the group and its settings exist, counts the message and runs the
// filter chain in order, stopping at the first violation.
func (e *Engine) ProcessMessage(ctx context.Context, msg *Message) {
	if msg.Private {
		return
	}
	// Command-shaped messages belong to the command handlers, whether or
	// not a handler matched; bot senders are not moderated. Neither counts
	// as a processed message.
	if msg.UserIsBot || strings.HasPrefix(msg.Text, "/") {
		return
	}

	if err := e.store.UpsertGroup(msg.ChatID, msg.ChatTitle, 0, true); err != nil {
		slog.Error("moderation: Failed to upsert group", "error", err, "chat_id", msg.ChatID)
	}
	cfg, err := e.store.EnsureSettings(msg.ChatID)
	if err != nil {
		slog.Error("moderation: Failed to load settings", "error", err, "chat_id", msg.ChatID)
		return
	}

	e.incrementStat(msg.ChatID, storage.StatMessagesProcessed)
	metrics.MessagesProcessed.Inc()

	if e.IsOwner(msg.UserID) {
		return
	}

	// Resolved once per message; every filter honors it instead of
	// re-querying the platform.
	exempt := e.IsAdmin(ctx, msg.ChatID, msg.UserID)

	for _, filter := range e.filters {
		if !filter.Check(ctx, msg, cfg, exempt) {
			slog.Info("moderation: Message blocked", "filter", filter.Name(),
				"chat_id", msg.ChatID, "user_id", msg.UserID)
			metrics.FilterBlocks.WithLabelValues(filter.Name()).Inc()
			return
		}
	}
}

// deleteMessage removes a message, logging failures without propagating
// them: a missing permission must not abort the rest of a filter's effects.
func (e *Engine) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if err := e.platform.DeleteMessage(ctx, chatID, messageID); err != nil {
		slog.Warn("moderation: Failed to delete message", "error", err,
			"chat_id", chatID, "message_id", messageID)
	}
}

// notify sends a chat message and, when cleanupAfter is positive, schedules
// a best-effort delete of it. The delayed delete is fire-and-forget; if the
// notification is already gone the delete is a no-op.
func (e *Engine) notify(ctx context.Context, chatID int64, text string, opts *SendOptions, cleanupAfter time.Duration) {
	messageID, err := e.platform.SendMessage(ctx, chatID, text, opts)
	if err != nil {
		slog.Warn("moderation: Failed to send notification", "error", err, "chat_id", chatID)
		return
	}
	if cleanupAfter <= 0 {
		return
	}
	e.schedule(cleanupAfter, func() {
		if err := e.platform.DeleteMessage(context.Background(), chatID, messageID); err != nil {
			slog.Debug("moderation: Notification cleanup failed", "error", err,
				"chat_id", chatID, "message_id", messageID)
		}
	})
}

// logRestrictFailure records a failed mute attempt. The message still
// counts as blocked, but no stats, log entry or tracker reset happen, so a
// later message can re-attempt the mute.
func (e *Engine) logRestrictFailure(err error, msg *Message) {
	slog.Warn("moderation: Failed to restrict user", "error", err,
		"chat_id", msg.ChatID, "user_id", msg.UserID)
}

func (e *Engine) incrementStat(chatID int64, stat storage.Stat) {
	if err := e.store.IncrementStat(chatID, stat, 1); err != nil {
		slog.Error("moderation: Failed to increment stat", "error", err,
			"chat_id", chatID, "stat", stat)
	}
}

func (e *Engine) logAction(chatID int64, action, targetUser, performedBy, details string) {
	entry := &storage.ActivityLog{
		ChatID:      chatID,
		Action:      action,
		TargetUser:  targetUser,
		PerformedBy: performedBy,
		Details:     details,
	}
	if err := e.store.AddLog(entry); err != nil {
		slog.Error("moderation: Failed to add log entry", "error", err,
			"chat_id", chatID, "action", action)
	}
	metrics.ModerationActions.WithLabelValues(action).Inc()
}
