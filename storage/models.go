package storage

import (
	"gorm.io/gorm"
)

// Warn escalation actions.
const (
	WarnActionMute = "mute"
	WarnActionKick = "kick"
	WarnActionBan  = "ban"
)

// DefaultWelcomeMessage supports {user} and {group} placeholders.
const DefaultWelcomeMessage = "Selamat datang {user} di {group}! Silakan patuhi aturan grup."

// Group represents a Telegram chat the bot moderates
type Group struct {
	gorm.Model
	ChatID      int64  `gorm:"uniqueIndex" json:"chatId"`
	Title       string `json:"title"`
	MemberCount int    `json:"memberCount"`
	IsActive    bool   `json:"isActive"`
}

// GroupSettings holds the per-group moderation configuration.
// Exactly one row exists per chat; it is created lazily with defaults
// the first time the bot sees a message or command in the chat.
type GroupSettings struct {
	gorm.Model
	ChatID                 int64    `gorm:"uniqueIndex" json:"chatId"`
	WelcomeEnabled         bool     `json:"welcomeEnabled"`
	WelcomeMessage         string   `json:"welcomeMessage"`
	ForceJoinEnabled       bool     `json:"forceJoinEnabled"`
	ForceJoinChannels      []string `gorm:"serializer:json" json:"forceJoinChannels"`
	AntiSpamEnabled        bool     `json:"antiSpamEnabled"`
	AntiSpamMaxMessages    int      `json:"antiSpamMaxMessages"`
	AntiLinkEnabled        bool     `json:"antiLinkEnabled"`
	WordFilterEnabled      bool     `json:"wordFilterEnabled"`
	BannedWords            []string `gorm:"serializer:json" json:"bannedWords"`
	AntiFloodEnabled       bool     `json:"antiFloodEnabled"`
	AntiFloodMessages      int      `json:"antiFloodMessages"`
	AntiFloodSeconds       int      `json:"antiFloodSeconds"`
	WarnLimit              int      `json:"warnLimit"`
	WarnAction             string   `json:"warnAction"`
	MuteNewMembers         bool     `json:"muteNewMembers"`
	MuteNewMembersDuration int      `json:"muteNewMembersDuration"`
	AIModeratorEnabled     bool     `json:"aiModeratorEnabled"`
}

// Warning is a single issued warning. Warnings are append-only and are
// bulk-deleted for a (chat, user) pair by /unwarn or after escalation.
type Warning struct {
	gorm.Model
	ChatID   int64  `gorm:"index:idx_warnings_target" json:"chatId"`
	UserID   int64  `gorm:"index:idx_warnings_target" json:"userId"`
	UserName string `json:"userName"`
	Reason   string `json:"reason"`
	WarnedBy string `json:"warnedBy"`
}

// BotStats holds the per-group moderation counters. Counters only grow;
// there is no administrative reset.
type BotStats struct {
	gorm.Model
	ChatID            int64 `gorm:"uniqueIndex" json:"chatId"`
	MessagesProcessed int64 `json:"messagesProcessed"`
	MessagesDeleted   int64 `json:"messagesDeleted"`
	UsersWarned       int64 `json:"usersWarned"`
	UsersBanned       int64 `json:"usersBanned"`
	UsersKicked       int64 `json:"usersKicked"`
	UsersMuted        int64 `json:"usersMuted"`
	SpamBlocked       int64 `json:"spamBlocked"`
	ForceJoinBlocked  int64 `json:"forceJoinBlocked"`
}

// ActivityLog is an append-only audit record of a moderation action.
type ActivityLog struct {
	gorm.Model
	ChatID      int64  `gorm:"index" json:"chatId"`
	Action      string `json:"action"`
	TargetUser  string `json:"targetUser"`
	PerformedBy string `json:"performedBy"`
	Details     string `json:"details"`
}

// DefaultSettings returns the settings row a chat starts with.
func DefaultSettings(chatID int64) *GroupSettings {
	return &GroupSettings{
		ChatID:                 chatID,
		WelcomeEnabled:         true,
		WelcomeMessage:         DefaultWelcomeMessage,
		AntiSpamEnabled:        true,
		AntiSpamMaxMessages:    5,
		AntiFloodEnabled:       true,
		AntiFloodMessages:      10,
		AntiFloodSeconds:       60,
		WarnLimit:              3,
		WarnAction:             WarnActionMute,
		MuteNewMembersDuration: 300,
	}
}
