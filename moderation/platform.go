// Package moderation implements the message moderation engine: the ordered
// filter chain, the sliding-window rate trackers behind the anti-spam and
// anti-flood filters, the warning ledger and its escalation policy. The
// Telegram client, the content classifier and the persistent store are
// consumed through the interfaces below so the engine stays testable.
package moderation

import (
	"context"
	"strings"
	"time"

	"telegram-moderation-bot/storage"
)

// MemberStatus mirrors the Telegram chat member statuses.
type MemberStatus string

const (
	MemberStatusCreator       MemberStatus = "creator"
	MemberStatusAdministrator MemberStatus = "administrator"
	MemberStatusMember        MemberStatus = "member"
	MemberStatusRestricted    MemberStatus = "restricted"
	MemberStatusLeft          MemberStatus = "left"
	MemberStatusKicked        MemberStatus = "kicked"
)

// ChatRef addresses a chat either by numeric ID or by public @username.
type ChatRef struct {
	ID       int64
	Username string
}

// Button is one inline keyboard button attached to a notification.
type Button struct {
	Text         string
	URL          string
	CallbackData string
}

// SendOptions controls formatting and keyboard of an outgoing message.
type SendOptions struct {
	HTML    bool
	Buttons [][]Button
}

// Platform is the subset of the chat platform the engine needs. Every call
// may fail; callers log and continue rather than abort the pipeline.
type Platform interface {
	GetMembership(ctx context.Context, chat ChatRef, userID int64) (MemberStatus, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (int, error)
	RestrictSend(ctx context.Context, chatID, userID int64, until time.Time) error
	BanUser(ctx context.Context, chatID, userID int64) error
	UnbanUser(ctx context.Context, chatID, userID int64) error
}

// Verdict is the outcome of a content classification.
type Verdict struct {
	Violation bool   `json:"violation"`
	Reason    string `json:"reason"`
}

// Classifier reviews message text. It is treated as untrusted and possibly
// slow; errors never block the pipeline.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// Store is the persistence surface the engine depends on.
// *storage.Storage satisfies it.
type Store interface {
	UpsertGroup(chatID int64, title string, memberCount int, active bool) error
	EnsureSettings(chatID int64) (*storage.GroupSettings, error)
	IncrementStat(chatID int64, stat storage.Stat, amount int64) error
	AddWarning(w *storage.Warning) error
	WarningCount(chatID, userID int64) (int64, error)
	Warnings(chatID, userID int64) ([]storage.Warning, error)
	ClearWarnings(chatID, userID int64) error
	AddLog(entry *storage.ActivityLog) error
}

// Message is the engine's view of one inbound group message.
type Message struct {
	ChatID    int64
	ChatTitle string
	MessageID int
	UserID    int64
	UserIsBot bool
	// UserName is the display name used in logs, e.g. "@handle" or "First Last".
	UserName string
	// Mention is an HTML link mentioning the sender, safe to embed as-is.
	Mention string
	Text    string
	Private bool
}

// Activity log action tags.
const (
	ActionWarn        = "warn"
	ActionUnwarn      = "unwarn"
	ActionBan         = "ban"
	ActionUnban       = "unban"
	ActionKick        = "kick"
	ActionMute        = "mute"
	ActionUnmute      = "unmute"
	ActionForceJoin   = "force_join"
	ActionSpam        = "spam"
	ActionAntiLink    = "anti_link"
	ActionWordFilter  = "word_filter"
	ActionFlood       = "flood"
	ActionAIModerator = "ai_moderator"
	ActionPromote     = "promote"
	ActionDemote      = "demote"
)

// PerformerBot marks log entries produced by the bot itself.
const PerformerBot = "bot"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeHTML escapes text for inclusion in HTML-formatted messages.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
