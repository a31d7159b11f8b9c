package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"telegram-moderation-bot/metrics"
	"telegram-moderation-bot/storage"
)

const escalationMuteDuration = time.Hour

// Escalator executes the punitive action configured for a group once a
// user's warning count reaches the group's warn limit.
type Escalator struct {
	platform Platform
	store    Store
	ledger   *Ledger
	now      func() time.Time
}

func NewEscalator(platform Platform, store Store, ledger *Ledger) *Escalator {
	return &Escalator{
		platform: platform,
		store:    store,
		ledger:   ledger,
		now:      time.Now,
	}
}

// Apply runs the configured warn action (mute for an hour, kick, or ban)
// against the user and clears their warnings on success. When the punitive
// platform call fails the warnings are deliberately kept, so the next /warn
// finds the count still at or above the limit and re-attempts escalation.
func (esc *Escalator) Apply(ctx context.Context, chatID, userID int64, userName string, cfg *storage.GroupSettings) error {
	action := cfg.WarnAction
	if action == "" {
		action = storage.WarnActionMute
	}

	name := EscapeHTML(userName)

	switch action {
	case storage.WarnActionBan:
		if err := esc.platform.BanUser(ctx, chatID, userID); err != nil {
			slog.Error("moderation: Escalation ban failed", "error", err,
				"chat_id", chatID, "user_id", userID)
			return fmt.Errorf("escalation ban failed: %w", err)
		}
		esc.sendNotice(ctx, chatID, fmt.Sprintf("%s telah <b>dibanned</b> karena mencapai batas peringatan.", name))
		esc.incrementStat(chatID, storage.StatUsersBanned)
		esc.logAction(chatID, ActionBan, userName, "Otomatis dibanned karena mencapai batas peringatan")

	case storage.WarnActionKick:
		if err := esc.platform.BanUser(ctx, chatID, userID); err != nil {
			slog.Error("moderation: Escalation kick failed", "error", err,
				"chat_id", chatID, "user_id", userID)
			return fmt.Errorf("escalation kick failed: %w", err)
		}
		if err := esc.platform.UnbanUser(ctx, chatID, userID); err != nil {
			slog.Error("moderation: Escalation unban failed", "error", err,
				"chat_id", chatID, "user_id", userID)
			return fmt.Errorf("escalation unban failed: %w", err)
		}
		esc.sendNotice(ctx, chatID, fmt.Sprintf("%s telah <b>ditendang</b> karena mencapai batas peringatan.", name))
		esc.incrementStat(chatID, storage.StatUsersKicked)
		esc.logAction(chatID, ActionKick, userName, "Otomatis ditendang karena mencapai batas peringatan")

	default:
		until := esc.now().Add(escalationMuteDuration)
		if err := esc.platform.RestrictSend(ctx, chatID, userID, until); err != nil {
			slog.Error("moderation: Escalation mute failed", "error", err,
				"chat_id", chatID, "user_id", userID)
			return fmt.Errorf("escalation mute failed: %w", err)
		}
		esc.sendNotice(ctx, chatID, fmt.Sprintf("%s telah <b>dibisukan</b> selama 1 jam karena mencapai batas peringatan.", name))
		esc.incrementStat(chatID, storage.StatUsersMuted)
		esc.logAction(chatID, ActionMute, userName, "Otomatis dibisukan selama 1 jam karena mencapai batas peringatan")
	}

	if err := esc.ledger.Clear(chatID, userID); err != nil {
		slog.Error("moderation: Failed to clear warnings after escalation", "error", err,
			"chat_id", chatID, "user_id", userID)
		return err
	}
	return nil
}

func (esc *Escalator) sendNotice(ctx context.Context, chatID int64, text string) {
	if _, err := esc.platform.SendMessage(ctx, chatID, text, &SendOptions{HTML: true}); err != nil {
		slog.Warn("moderation: Failed to send escalation notice", "error", err, "chat_id", chatID)
	}
}

func (esc *Escalator) incrementStat(chatID int64, stat storage.Stat) {
	if err := esc.store.IncrementStat(chatID, stat, 1); err != nil {
		slog.Error("moderation: Failed to increment stat", "error", err,
			"chat_id", chatID, "stat", stat)
	}
}

func (esc *Escalator) logAction(chatID int64, action, targetUser, details string) {
	entry := &storage.ActivityLog{
		ChatID:      chatID,
		Action:      action,
		TargetUser:  targetUser,
		PerformedBy: PerformerBot,
		Details:     details,
	}
	if err := esc.store.AddLog(entry); err != nil {
		slog.Error("moderation: Failed to add log entry", "error", err,
			"chat_id", chatID, "action", action)
	}
	metrics.ModerationActions.WithLabelValues(action).Inc()
}
