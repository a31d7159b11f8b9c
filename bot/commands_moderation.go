package bot

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"telegram-moderation-bot/metrics"
	"telegram-moderation-bot/moderation"
	"telegram-moderation-bot/storage"
)

func (b *Bot) incrementStat(chatID int64, stat storage.Stat) {
	if err := b.store.IncrementStat(chatID, stat, 1); err != nil {
		slog.Error("bot: Failed to increment stat", "error", err,
			"chat_id", chatID, "stat", stat)
	}
}

func (b *Bot) logAction(chatID int64, action, targetUser, performedBy, details string) {
	entry := &storage.ActivityLog{
		ChatID:      chatID,
		Action:      action,
		TargetUser:  targetUser,
		PerformedBy: performedBy,
		Details:     details,
	}
	if err := b.store.AddLog(entry); err != nil {
		slog.Error("bot: Failed to add log entry", "error", err,
			"chat_id", chatID, "action", action)
	}
	metrics.ModerationActions.WithLabelValues(action).Inc()
}

// refuseProtected rejects bots and chat admins as punitive targets.
func (b *Bot) refuseProtected(chatID int64, t *target) bool {
	if t.isBot {
		b.reply(chatID, "Tidak bisa menindak bot.")
		return true
	}
	if b.isOwner(t.id) || b.isAdmin(chatID, t.id) {
		b.reply(chatID, "Tidak bisa menindak admin grup.")
		return true
	}
	return false
}

func (b *Bot) warnHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, rest, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}
	if b.refuseProtected(chatID, t) {
		return
	}

	reason := strings.Join(rest, " ")
	if reason == "" {
		reason = "Tidak ada alasan"
	}

	cfg, err := b.store.EnsureSettings(chatID)
	if err != nil {
		slog.Error("bot: Failed to load settings", "error", err, "chat_id", chatID)
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}

	admin := displayName(*msg.From)
	count, err := b.ledger.Add(chatID, t.id, t.name, reason, admin)
	if err != nil {
		slog.Error("bot: Failed to add warning", "error", err, "chat_id", chatID)
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}

	b.incrementStat(chatID, storage.StatUsersWarned)
	b.logAction(chatID, moderation.ActionWarn, t.name, admin,
		fmt.Sprintf("Peringatan (%d/%d): %s", count, cfg.WarnLimit, reason))

	b.replyHTML(chatID, fmt.Sprintf("%s mendapat peringatan (%d/%d).\nAlasan: %s",
		t.mention, count, cfg.WarnLimit, moderation.EscapeHTML(reason)))

	if count >= int64(cfg.WarnLimit) {
		if err := b.escalator.Apply(update.Context(), chatID, t.id, t.name, cfg); err != nil {
			slog.Error("bot: Escalation failed", "error", err,
				"chat_id", chatID, "user_id", t.id)
		}
	}
}

func (b *Bot) unwarnHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, _, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}

	if err := b.ledger.Clear(chatID, t.id); err != nil {
		slog.Error("bot: Failed to clear warnings", "error", err, "chat_id", chatID)
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}

	b.logAction(chatID, moderation.ActionUnwarn, t.name, displayName(*msg.From),
		"Semua peringatan dihapus")
	b.replyHTML(chatID, fmt.Sprintf("Semua peringatan untuk %s telah dihapus.", t.mention))
}

func (b *Bot) warningsHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, _, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}

	warnings, err := b.ledger.List(chatID, t.id)
	if err != nil {
		slog.Error("bot: Failed to list warnings", "error", err, "chat_id", chatID)
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}
	if len(warnings) == 0 {
		b.replyHTML(chatID, fmt.Sprintf("%s tidak memiliki peringatan.", t.mention))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Peringatan untuk %s (%d):\n", t.mention, len(warnings))
	for i, w := range warnings {
		fmt.Fprintf(&sb, "%d. %s (oleh %s)\n", i+1,
			moderation.EscapeHTML(w.Reason), moderation.EscapeHTML(w.WarnedBy))
	}
	b.replyHTML(chatID, sb.String())
}

func (b *Bot) banHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, _, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}
	if b.refuseProtected(chatID, t) {
		return
	}

	err := bot.BanChatMember(&telego.BanChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: t.id,
	})
	if err != nil {
		slog.Warn("bot: Failed to ban user", "error", err, "chat_id", chatID, "user_id", t.id)
		b.reply(chatID, "Gagal memban pengguna. Pastikan bot memiliki izin admin.")
		return
	}

	b.incrementStat(chatID, storage.StatUsersBanned)
	b.logAction(chatID, moderation.ActionBan, t.name, displayName(*msg.From), "Dibanned oleh admin")
	b.replyHTML(chatID, fmt.Sprintf("%s telah <b>dibanned</b>.", t.mention))
}

func (b *Bot) unbanHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, _, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}

	err := bot.UnbanChatMember(&telego.UnbanChatMemberParams{
		ChatID:       tu.ID(chatID),
		UserID:       t.id,
		OnlyIfBanned: true,
	})
	if err != nil {
		slog.Warn("bot: Failed to unban user", "error", err, "chat_id", chatID, "user_id", t.id)
		b.reply(chatID, "Gagal membatalkan ban.")
		return
	}

	b.logAction(chatID, moderation.ActionUnban, t.name, displayName(*msg.From), "Ban dibatalkan")
	b.replyHTML(chatID, fmt.Sprintf("Ban untuk %s telah dibatalkan.", t.mention))
}

func (b *Bot) kickHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, _, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}
	if b.refuseProtected(chatID, t) {
		return
	}

	// A kick is a ban immediately followed by an unban, so the user can
	// rejoin via invite link.
	err := bot.BanChatMember(&telego.BanChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: t.id,
	})
	if err == nil {
		err = bot.UnbanChatMember(&telego.UnbanChatMemberParams{
			ChatID: tu.ID(chatID),
			UserID: t.id,
		})
	}
	if err != nil {
		slog.Warn("bot: Failed to kick user", "error", err, "chat_id", chatID, "user_id", t.id)
		b.reply(chatID, "Gagal menendang pengguna. Pastikan bot memiliki izin admin.")
		return
	}

	b.incrementStat(chatID, storage.StatUsersKicked)
	b.logAction(chatID, moderation.ActionKick, t.name, displayName(*msg.From), "Ditendang oleh admin")
	b.replyHTML(chatID, fmt.Sprintf("%s telah <b>ditendang</b> dari grup.", t.mention))
}

func (b *Bot) muteHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, rest, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}
	if b.refuseProtected(chatID, t) {
		return
	}

	minutes := 60
	if len(rest) > 0 {
		if v, err := strconv.Atoi(rest[0]); err == nil && v > 0 {
			minutes = v
		}
	}

	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	err := bot.RestrictChatMember(&telego.RestrictChatMemberParams{
		ChatID:      tu.ID(chatID),
		UserID:      t.id,
		Permissions: telego.ChatPermissions{},
		UntilDate:   until.Unix(),
	})
	if err != nil {
		slog.Warn("bot: Failed to mute user", "error", err, "chat_id", chatID, "user_id", t.id)
		b.reply(chatID, "Gagal membisukan pengguna. Pastikan bot memiliki izin admin.")
		return
	}

	b.incrementStat(chatID, storage.StatUsersMuted)
	b.logAction(chatID, moderation.ActionMute, t.name, displayName(*msg.From),
		fmt.Sprintf("Dibisukan selama %d menit", minutes))
	b.replyHTML(chatID, fmt.Sprintf("%s telah <b>dibisukan</b> selama %d menit.", t.mention, minutes))
}

func (b *Bot) unmuteHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, _, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}

	err := bot.RestrictChatMember(&telego.RestrictChatMemberParams{
		ChatID:      tu.ID(chatID),
		UserID:      t.id,
		Permissions: permissivePermissions(),
	})
	if err != nil {
		slog.Warn("bot: Failed to unmute user", "error", err, "chat_id", chatID, "user_id", t.id)
		b.reply(chatID, "Gagal membatalkan bisu.")
		return
	}

	b.logAction(chatID, moderation.ActionUnmute, t.name, displayName(*msg.From), "Bisu dibatalkan")
	b.replyHTML(chatID, fmt.Sprintf("%s sudah bisa mengirim pesan lagi.", t.mention))
}
