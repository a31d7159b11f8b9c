package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Stat names a BotStats counter column.
type Stat string

const (
	StatMessagesProcessed Stat = "messages_processed"
	StatMessagesDeleted   Stat = "messages_deleted"
	StatUsersWarned       Stat = "users_warned"
	StatUsersBanned       Stat = "users_banned"
	StatUsersKicked       Stat = "users_kicked"
	StatUsersMuted        Stat = "users_muted"
	StatSpamBlocked       Stat = "spam_blocked"
	StatForceJoinBlocked  Stat = "force_join_blocked"
)

var statColumns = map[Stat]struct{}{
	StatMessagesProcessed: {},
	StatMessagesDeleted:   {},
	StatUsersWarned:       {},
	StatUsersBanned:       {},
	StatUsersKicked:       {},
	StatUsersMuted:        {},
	StatSpamBlocked:       {},
	StatForceJoinBlocked:  {},
}

type Storage struct {
	db *gorm.DB
}

func New(dbPath string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		slog.Error("storage: Failed to connect to database", "error", err, "path", dbPath)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) migrate() error {
	err := s.db.AutoMigrate(&Group{}, &GroupSettings{}, &Warning{}, &BotStats{}, &ActivityLog{})
	if err != nil {
		slog.Error("storage: Failed to migrate database", "error", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// UpsertGroup creates or refreshes the registration row for a chat.
func (s *Storage) UpsertGroup(chatID int64, title string, memberCount int, active bool) error {
	var group Group
	result := s.db.Where("chat_id = ?", chatID).First(&group)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Error("storage: Failed to look up group", "error", result.Error, "chat_id", chatID)
			return fmt.Errorf("failed to look up group: %w", result.Error)
		}
		group = Group{ChatID: chatID, Title: title, MemberCount: memberCount, IsActive: active}
		if err := s.db.Create(&group).Error; err != nil {
			slog.Error("storage: Failed to create group", "error", err, "chat_id", chatID)
			return fmt.Errorf("failed to create group: %w", err)
		}
		return nil
	}

	group.Title = title
	group.IsActive = active
	if memberCount > 0 {
		group.MemberCount = memberCount
	}
	if err := s.db.Save(&group).Error; err != nil {
		slog.Error("storage: Failed to update group", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group registration by chat ID.
func (s *Storage) GetGroup(chatID int64) (*Group, error) {
	var group Group
	result := s.db.Where("chat_id = ?", chatID).First(&group)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get group", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get group: %w", result.Error)
	}
	return &group, nil
}

// Groups retrieves all registered groups.
func (s *Storage) Groups() ([]Group, error) {
	var groups []Group
	result := s.db.Find(&groups)
	if result.Error != nil {
		slog.Error("storage: Failed to get groups", "error", result.Error)
		return nil, fmt.Errorf("failed to get groups: %w", result.Error)
	}
	return groups, nil
}

// IncrementStat adds amount to one counter of a group's stats row, creating
// the row first if needed. The increment is a single UPDATE so concurrent
// increments never lose updates.
func (s *Storage) IncrementStat(chatID int64, stat Stat, amount int64) error {
	if _, ok := statColumns[stat]; !ok {
		return fmt.Errorf("unknown stat column %q", stat)
	}

	err := s.db.Where(BotStats{ChatID: chatID}).FirstOrCreate(&BotStats{ChatID: chatID}).Error
	if err != nil {
		slog.Error("storage: Failed to ensure stats row", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to ensure stats row: %w", err)
	}

	col := string(stat)
	result := s.db.Model(&BotStats{}).
		Where("chat_id = ?", chatID).
		UpdateColumn(col, gorm.Expr(col+" + ?", amount))
	if result.Error != nil {
		slog.Error("storage: Failed to increment stat", "error", result.Error,
			"chat_id", chatID, "stat", stat)
		return fmt.Errorf("failed to increment stat: %w", result.Error)
	}
	return nil
}

// GetStats retrieves the counters for a group.
func (s *Storage) GetStats(chatID int64) (*BotStats, error) {
	var stats BotStats
	result := s.db.Where("chat_id = ?", chatID).First(&stats)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get stats", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get stats: %w", result.Error)
	}
	return &stats, nil
}

// AllStats retrieves the counters of every group.
func (s *Storage) AllStats() ([]BotStats, error) {
	var stats []BotStats
	result := s.db.Find(&stats)
	if result.Error != nil {
		slog.Error("storage: Failed to get all stats", "error", result.Error)
		return nil, fmt.Errorf("failed to get all stats: %w", result.Error)
	}
	return stats, nil
}

// AddWarning appends a warning record.
func (s *Storage) AddWarning(w *Warning) error {
	result := s.db.Create(w)
	if result.Error != nil {
		slog.Error("storage: Failed to add warning", "error", result.Error,
			"chat_id", w.ChatID, "user_id", w.UserID)
		return fmt.Errorf("failed to add warning: %w", result.Error)
	}
	return nil
}

// WarningCount returns the live number of warnings for a user in a chat.
func (s *Storage) WarningCount(chatID, userID int64) (int64, error) {
	var count int64
	result := s.db.Model(&Warning{}).Where("chat_id = ? AND user_id = ?", chatID, userID).Count(&count)
	if result.Error != nil {
		slog.Error("storage: Failed to count warnings", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return 0, fmt.Errorf("failed to count warnings: %w", result.Error)
	}
	return count, nil
}

// Warnings lists a user's warnings in a chat, newest first.
func (s *Storage) Warnings(chatID, userID int64) ([]Warning, error) {
	var warnings []Warning
	result := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).
		Order("created_at DESC").Find(&warnings)
	if result.Error != nil {
		slog.Error("storage: Failed to list warnings", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return nil, fmt.Errorf("failed to list warnings: %w", result.Error)
	}
	return warnings, nil
}

// ChatWarnings lists every active warning in a chat, newest first.
func (s *Storage) ChatWarnings(chatID int64) ([]Warning, error) {
	var warnings []Warning
	result := s.db.Where("chat_id = ?", chatID).Order("created_at DESC").Find(&warnings)
	if result.Error != nil {
		slog.Error("storage: Failed to list chat warnings", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list chat warnings: %w", result.Error)
	}
	return warnings, nil
}

// ClearWarnings removes every warning for a user in a chat.
func (s *Storage) ClearWarnings(chatID, userID int64) error {
	result := s.db.Unscoped().Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&Warning{})
	if result.Error != nil {
		slog.Error("storage: Failed to clear warnings", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return fmt.Errorf("failed to clear warnings: %w", result.Error)
	}
	return nil
}

// AddLog appends an activity log entry.
func (s *Storage) AddLog(entry *ActivityLog) error {
	result := s.db.Create(entry)
	if result.Error != nil {
		slog.Error("storage: Failed to add log entry", "error", result.Error,
			"chat_id", entry.ChatID, "action", entry.Action)
		return fmt.Errorf("failed to add log entry: %w", result.Error)
	}
	return nil
}

// Logs lists a group's activity log entries, newest first.
func (s *Storage) Logs(chatID int64, limit int) ([]ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []ActivityLog
	result := s.db.Where("chat_id = ?", chatID).Order("created_at DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		slog.Error("storage: Failed to list logs", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list logs: %w", result.Error)
	}
	return logs, nil
}

// RecentLogs lists the most recent activity log entries across all groups.
func (s *Storage) RecentLogs(limit int) ([]ActivityLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []ActivityLog
	result := s.db.Order("created_at DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		slog.Error("storage: Failed to list recent logs", "error", result.Error)
		return nil, fmt.Errorf("failed to list recent logs: %w", result.Error)
	}
	return logs, nil
}
