package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"

	"telegram-moderation-bot/storage"
)

// toggleNames maps the /toggle argument to a feature switch.
var toggleNames = map[string]storage.Toggle{
	"welcome":    storage.ToggleWelcome,
	"forcejoin":  storage.ToggleForceJoin,
	"antispam":   storage.ToggleAntiSpam,
	"antilink":   storage.ToggleAntiLink,
	"wordfilter": storage.ToggleWordFilter,
	"antiflood":  storage.ToggleAntiFlood,
	"mutebaru":   storage.ToggleMuteNewMembers,
	"aimod":      storage.ToggleAIModerator,
}

func toggleState(cfg *storage.GroupSettings, toggle storage.Toggle) bool {
	switch toggle {
	case storage.ToggleWelcome:
		return cfg.WelcomeEnabled
	case storage.ToggleForceJoin:
		return cfg.ForceJoinEnabled
	case storage.ToggleAntiSpam:
		return cfg.AntiSpamEnabled
	case storage.ToggleAntiLink:
		return cfg.AntiLinkEnabled
	case storage.ToggleWordFilter:
		return cfg.WordFilterEnabled
	case storage.ToggleAntiFlood:
		return cfg.AntiFloodEnabled
	case storage.ToggleMuteNewMembers:
		return cfg.MuteNewMembers
	case storage.ToggleAIModerator:
		return cfg.AIModeratorEnabled
	}
	return false
}

func (b *Bot) toggleHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		names := make([]string, 0, len(toggleNames))
		for name := range toggleNames {
			names = append(names, name)
		}
		b.reply(chatID, "Gunakan: /toggle <fitur>\nFitur: "+strings.Join(names, ", "))
		return
	}

	toggle, ok := toggleNames[strings.ToLower(args[0])]
	if !ok {
		b.reply(chatID, fmt.Sprintf("Fitur %q tidak dikenal.", args[0]))
		return
	}

	cfg, err := b.store.ToggleSetting(chatID, toggle)
	if err != nil {
		slog.Error("bot: Failed to toggle setting", "error", err, "chat_id", chatID)
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}

	state := "dinonaktifkan"
	if toggleState(cfg, toggle) {
		state = "diaktifkan"
	}
	b.reply(chatID, fmt.Sprintf("Fitur %s telah %s.", args[0], state))
}

func (b *Bot) setWelcomeHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.reply(chatID, "Gunakan: /setwelcome <pesan>\nPlaceholder: {user}, {group}")
		return
	}

	if err := b.updateSettings(chatID, func(cfg *storage.GroupSettings) {
		cfg.WelcomeEnabled = true
		cfg.WelcomeMessage = strings.Join(args, " ")
	}); err != nil {
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}
	b.reply(chatID, "Pesan sambutan telah diperbarui.")
}

func (b *Bot) setForceJoinHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.reply(chatID, "Gunakan: /setforcejoin <@channel>")
		return
	}
	channel := strings.TrimPrefix(args[0], "@")
	if channel == "" {
		b.reply(chatID, "Gunakan: /setforcejoin <@channel>")
		return
	}

	if err := b.updateSettings(chatID, func(cfg *storage.GroupSettings) {
		for _, existing := range cfg.ForceJoinChannels {
			if strings.EqualFold(existing, channel) {
				return
			}
		}
		cfg.ForceJoinChannels = append(cfg.ForceJoinChannels, channel)
		cfg.ForceJoinEnabled = true
	}); err != nil {
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Channel @%s ditambahkan ke daftar wajib gabung.", channel))
}

func (b *Bot) delForceJoinHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.reply(chatID, "Gunakan: /delforcejoin <@channel>")
		return
	}
	channel := strings.TrimPrefix(args[0], "@")

	if err := b.updateSettings(chatID, func(cfg *storage.GroupSettings) {
		kept := cfg.ForceJoinChannels[:0]
		for _, existing := range cfg.ForceJoinChannels {
			if !strings.EqualFold(existing, channel) {
				kept = append(kept, existing)
			}
		}
		cfg.ForceJoinChannels = kept
		if len(kept) == 0 {
			cfg.ForceJoinEnabled = false
		}
	}); err != nil {
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Channel @%s dihapus dari daftar wajib gabung.", channel))
}

func (b *Bot) addWordHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.reply(chatID, "Gunakan: /addword <kata>")
		return
	}
	word := strings.ToLower(args[0])

	if err := b.updateSettings(chatID, func(cfg *storage.GroupSettings) {
		for _, existing := range cfg.BannedWords {
			if existing == word {
				return
			}
		}
		cfg.BannedWords = append(cfg.BannedWords, word)
		cfg.WordFilterEnabled = true
	}); err != nil {
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Kata %q ditambahkan ke daftar terlarang.", word))
}

func (b *Bot) delWordHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.reply(chatID, "Gunakan: /delword <kata>")
		return
	}
	word := strings.ToLower(args[0])

	if err := b.updateSettings(chatID, func(cfg *storage.GroupSettings) {
		kept := cfg.BannedWords[:0]
		for _, existing := range cfg.BannedWords {
			if existing != word {
				kept = append(kept, existing)
			}
		}
		cfg.BannedWords = kept
	}); err != nil {
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Kata %q dihapus dari daftar terlarang.", word))
}

// updateSettings loads the settings row, applies mutate and saves it.
func (b *Bot) updateSettings(chatID int64, mutate func(*storage.GroupSettings)) error {
	cfg, err := b.store.EnsureSettings(chatID)
	if err != nil {
		slog.Error("bot: Failed to load settings", "error", err, "chat_id", chatID)
		return err
	}
	mutate(cfg)
	if err := b.store.SaveSettings(cfg); err != nil {
		slog.Error("bot: Failed to save settings", "error", err, "chat_id", chatID)
		return err
	}
	return nil
}

func warnActionLabel(action string) string {
	switch action {
	case storage.WarnActionBan:
		return "ban"
	case storage.WarnActionKick:
		return "tendang"
	default:
		return "bisu 1 jam"
	}
}

// formatRules derives the member-facing rules summary from the enabled
// feature switches.
func formatRules(cfg *storage.GroupSettings) string {
	var sb strings.Builder
	sb.WriteString("<b>Peraturan grup</b>\n")

	n := 0
	rule := func(text string) {
		n++
		fmt.Fprintf(&sb, "%d. %s\n", n, text)
	}

	if cfg.ForceJoinEnabled && len(cfg.ForceJoinChannels) > 0 {
		rule("Wajib bergabung ke: @" + strings.Join(cfg.ForceJoinChannels, ", @"))
	}
	if cfg.AntiLinkEnabled {
		rule("Dilarang mengirim link.")
	}
	if cfg.WordFilterEnabled && len(cfg.BannedWords) > 0 {
		rule("Dilarang menggunakan kata terlarang.")
	}
	if cfg.AntiSpamEnabled {
		maxMessages := cfg.AntiSpamMaxMessages
		if maxMessages <= 0 {
			maxMessages = 5
		}
		rule(fmt.Sprintf("Maksimal %d pesan dalam 10 detik.", maxMessages))
	}
	if cfg.AntiFloodEnabled {
		maxMessages := cfg.AntiFloodMessages
		if maxMessages <= 0 {
			maxMessages = 10
		}
		seconds := cfg.AntiFloodSeconds
		if seconds <= 0 {
			seconds = 60
		}
		rule(fmt.Sprintf("Maksimal %d pesan dalam %d detik.", maxMessages, seconds))
	}
	if cfg.AIModeratorEnabled {
		rule("Pesan yang melanggar aturan akan dihapus oleh AI Moderator.")
	}
	rule(fmt.Sprintf("%d peringatan berujung %s.", cfg.WarnLimit, warnActionLabel(cfg.WarnAction)))

	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) rulesHandler(bot *telego.Bot, update telego.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	if msg.Chat.Type == telego.ChatTypePrivate {
		b.reply(msg.Chat.ID, "Perintah ini hanya bisa digunakan di dalam grup.")
		return
	}

	cfg, err := b.store.EnsureSettings(msg.Chat.ID)
	if err != nil {
		slog.Error("bot: Failed to load settings", "error", err, "chat_id", msg.Chat.ID)
		b.reply(msg.Chat.ID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}
	b.replyHTML(msg.Chat.ID, formatRules(cfg))
}

// formatSettings renders the admin-facing status of every feature switch.
func formatSettings(cfg *storage.GroupSettings) string {
	onOff := func(enabled bool) string {
		if enabled {
			return "aktif"
		}
		return "nonaktif"
	}

	return fmt.Sprintf(
		"<b>Pengaturan grup</b>\n"+
			"Sambutan: %s\n"+
			"Wajib gabung: %s (%d channel)\n"+
			"Anti-spam: %s (maks %d pesan/10 detik)\n"+
			"Anti-link: %s\n"+
			"Filter kata: %s (%d kata)\n"+
			"Anti-flood: %s (%d pesan/%d detik)\n"+
			"Bisukan anggota baru: %s (%d detik)\n"+
			"AI moderator: %s\n"+
			"Batas peringatan: %d (%s)",
		onOff(cfg.WelcomeEnabled),
		onOff(cfg.ForceJoinEnabled), len(cfg.ForceJoinChannels),
		onOff(cfg.AntiSpamEnabled), cfg.AntiSpamMaxMessages,
		onOff(cfg.AntiLinkEnabled),
		onOff(cfg.WordFilterEnabled), len(cfg.BannedWords),
		onOff(cfg.AntiFloodEnabled), cfg.AntiFloodMessages, cfg.AntiFloodSeconds,
		onOff(cfg.MuteNewMembers), cfg.MuteNewMembersDuration,
		onOff(cfg.AIModeratorEnabled),
		cfg.WarnLimit, warnActionLabel(cfg.WarnAction))
}

func (b *Bot) settingsHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message

	cfg, err := b.store.EnsureSettings(msg.Chat.ID)
	if err != nil {
		slog.Error("bot: Failed to load settings", "error", err, "chat_id", msg.Chat.ID)
		b.reply(msg.Chat.ID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}
	b.replyHTML(msg.Chat.ID, formatSettings(cfg))
}

func (b *Bot) statsHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	stats, err := b.store.GetStats(chatID)
	if errors.Is(err, storage.ErrNotFound) {
		stats = &storage.BotStats{ChatID: chatID}
	} else if err != nil {
		slog.Error("bot: Failed to load stats", "error", err, "chat_id", chatID)
		b.reply(chatID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}

	b.replyHTML(chatID, fmt.Sprintf(
		"<b>Statistik grup</b>\n"+
			"Pesan diproses: %d\n"+
			"Pesan dihapus: %d\n"+
			"Peringatan: %d\n"+
			"Banned: %d\n"+
			"Ditendang: %d\n"+
			"Dibisukan: %d\n"+
			"Spam diblokir: %d\n"+
			"Wajib gabung diblokir: %d",
		stats.MessagesProcessed, stats.MessagesDeleted, stats.UsersWarned,
		stats.UsersBanned, stats.UsersKicked, stats.UsersMuted,
		stats.SpamBlocked, stats.ForceJoinBlocked))
}
