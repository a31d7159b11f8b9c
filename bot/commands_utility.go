package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"telegram-moderation-bot/moderation"
)

const helpText = `<b>Perintah moderasi</b>
/warn - beri peringatan (balas pesan atau sebutkan target)
/unwarn - hapus semua peringatan pengguna
/warnings - lihat peringatan pengguna
/ban, /unban, /kick - kelola keanggotaan
/mute [menit], /unmute - bisukan pengguna

<b>Pengaturan</b>
/rules - lihat peraturan grup
/settings - lihat pengaturan grup
/toggle &lt;fitur&gt; - aktifkan/nonaktifkan fitur
/setwelcome &lt;pesan&gt; - atur pesan sambutan ({user}, {group})
/setforcejoin &lt;@channel&gt;, /delforcejoin &lt;@channel&gt;
/addword &lt;kata&gt;, /delword &lt;kata&gt;
/stats - statistik grup

<b>Utilitas</b>
/pin, /unpin, /del, /purge, /settitle &lt;judul&gt;
/promote, /demote (khusus pemilik grup)
/lock, /unlock - kunci grup`

func (b *Bot) startHandler(bot *telego.Bot, update telego.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	if msg.Chat.Type == telego.ChatTypePrivate {
		b.reply(msg.Chat.ID,
			"Halo! Tambahkan saya ke grup dan jadikan admin untuk mulai memoderasi. Gunakan /help untuk daftar perintah.")
		return
	}

	if err := b.store.UpsertGroup(msg.Chat.ID, msg.Chat.Title, 0, true); err != nil {
		slog.Error("bot: Failed to upsert group", "error", err, "chat_id", msg.Chat.ID)
	}
	b.reply(msg.Chat.ID, "Bot moderasi aktif. Gunakan /help untuk daftar perintah.")
}

func (b *Bot) helpHandler(bot *telego.Bot, update telego.Update) {
	if update.Message == nil {
		return
	}
	b.replyHTML(update.Message.Chat.ID, helpText)
}

func (b *Bot) pinHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	if msg.ReplyToMessage == nil {
		b.reply(msg.Chat.ID, "Balas pesan yang ingin disematkan.")
		return
	}

	err := bot.PinChatMessage(&telego.PinChatMessageParams{
		ChatID:    tu.ID(msg.Chat.ID),
		MessageID: msg.ReplyToMessage.MessageID,
	})
	if err != nil {
		slog.Warn("bot: Failed to pin message", "error", err, "chat_id", msg.Chat.ID)
		b.reply(msg.Chat.ID, "Gagal menyematkan pesan.")
		return
	}
	b.reply(msg.Chat.ID, "Pesan telah disematkan.")
}

func (b *Bot) unpinHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message

	err := bot.UnpinChatMessage(&telego.UnpinChatMessageParams{
		ChatID: tu.ID(msg.Chat.ID),
	})
	if err != nil {
		slog.Warn("bot: Failed to unpin message", "error", err, "chat_id", msg.Chat.ID)
		b.reply(msg.Chat.ID, "Gagal melepas sematan.")
		return
	}
	b.reply(msg.Chat.ID, "Sematan telah dilepas.")
}

func (b *Bot) delHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	if msg.ReplyToMessage == nil {
		b.reply(msg.Chat.ID, "Balas pesan yang ingin dihapus.")
		return
	}

	for _, messageID := range []int{msg.ReplyToMessage.MessageID, msg.MessageID} {
		err := bot.DeleteMessage(&telego.DeleteMessageParams{
			ChatID:    tu.ID(msg.Chat.ID),
			MessageID: messageID,
		})
		if err != nil {
			slog.Warn("bot: Failed to delete message", "error", err,
				"chat_id", msg.Chat.ID, "message_id", messageID)
		}
	}
}

// purgeHandler deletes every message from the replied-to one up to the
// command itself. Individual failures (already deleted, too old) are
// skipped; the summary notice is removed shortly after.
func (b *Bot) purgeHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message
	if msg.ReplyToMessage == nil {
		b.reply(msg.Chat.ID, "Balas pesan awal rentang yang ingin dibersihkan.")
		return
	}

	chatID := msg.Chat.ID
	deleted := 0
	for messageID := msg.ReplyToMessage.MessageID; messageID <= msg.MessageID; messageID++ {
		err := bot.DeleteMessage(&telego.DeleteMessageParams{
			ChatID:    tu.ID(chatID),
			MessageID: messageID,
		})
		if err == nil {
			deleted++
		}
	}

	notice, err := bot.SendMessage(tu.Messagef(tu.ID(chatID), "%d pesan dibersihkan.", deleted))
	if err != nil {
		return
	}
	time.AfterFunc(5*time.Second, func() {
		_ = bot.DeleteMessage(&telego.DeleteMessageParams{
			ChatID:    tu.ID(chatID),
			MessageID: notice.MessageID,
		})
	})
}

func (b *Bot) setTitleHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.reply(msg.Chat.ID, "Gunakan: /settitle <judul baru>")
		return
	}
	title := strings.Join(args, " ")

	err := bot.SetChatTitle(&telego.SetChatTitleParams{
		ChatID: tu.ID(msg.Chat.ID),
		Title:  title,
	})
	if err != nil {
		slog.Warn("bot: Failed to set chat title", "error", err, "chat_id", msg.Chat.ID)
		b.reply(msg.Chat.ID, "Gagal mengubah judul grup.")
		return
	}

	if err := b.store.UpsertGroup(msg.Chat.ID, title, 0, true); err != nil {
		slog.Error("bot: Failed to upsert group", "error", err, "chat_id", msg.Chat.ID)
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Judul grup diubah menjadi %q.", title))
}

// requireCreator gates a command to the group creator or the bot owner.
func (b *Bot) requireCreator(update telego.Update) bool {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return false
	}
	if msg.Chat.Type == telego.ChatTypePrivate {
		b.reply(msg.Chat.ID, "Perintah ini hanya bisa digunakan di dalam grup.")
		return false
	}
	if b.isOwner(msg.From.ID) || b.isCreator(msg.Chat.ID, msg.From.ID) {
		return true
	}
	b.reply(msg.Chat.ID, "Hanya pemilik grup yang bisa menggunakan perintah ini.")
	return false
}

func (b *Bot) promoteHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireCreator(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, _, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}

	err := bot.PromoteChatMember(&telego.PromoteChatMemberParams{
		ChatID:             tu.ID(chatID),
		UserID:             t.id,
		CanDeleteMessages:  telego.ToPtr(true),
		CanRestrictMembers: telego.ToPtr(true),
		CanPinMessages:     telego.ToPtr(true),
		CanInviteUsers:     telego.ToPtr(true),
		CanChangeInfo:      telego.ToPtr(true),
	})
	if err != nil {
		slog.Warn("bot: Failed to promote user", "error", err, "chat_id", chatID, "user_id", t.id)
		b.reply(chatID, "Gagal menjadikan admin.")
		return
	}

	b.logAction(chatID, moderation.ActionPromote, t.name, displayName(*msg.From), "Dijadikan admin")
	b.replyHTML(chatID, fmt.Sprintf("%s sekarang menjadi admin.", t.mention))
}

func (b *Bot) demoteHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireCreator(update) {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	t, _, ok := b.requireTarget(msg, commandArgs(msg.Text))
	if !ok {
		return
	}

	err := bot.PromoteChatMember(&telego.PromoteChatMemberParams{
		ChatID:              tu.ID(chatID),
		UserID:              t.id,
		CanDeleteMessages:   telego.ToPtr(false),
		CanRestrictMembers:  telego.ToPtr(false),
		CanPinMessages:      telego.ToPtr(false),
		CanInviteUsers:      telego.ToPtr(false),
		CanChangeInfo:       telego.ToPtr(false),
		CanPromoteMembers:   telego.ToPtr(false),
		CanManageChat:       telego.ToPtr(false),
		CanManageVideoChats: telego.ToPtr(false),
	})
	if err != nil {
		slog.Warn("bot: Failed to demote user", "error", err, "chat_id", chatID, "user_id", t.id)
		b.reply(chatID, "Gagal mencopot admin.")
		return
	}

	b.logAction(chatID, moderation.ActionDemote, t.name, displayName(*msg.From), "Dicopot dari admin")
	b.replyHTML(chatID, fmt.Sprintf("%s bukan lagi admin.", t.mention))
}

func (b *Bot) lockHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message

	err := bot.SetChatPermissions(&telego.SetChatPermissionsParams{
		ChatID:      tu.ID(msg.Chat.ID),
		Permissions: telego.ChatPermissions{},
	})
	if err != nil {
		slog.Warn("bot: Failed to lock chat", "error", err, "chat_id", msg.Chat.ID)
		b.reply(msg.Chat.ID, "Gagal mengunci grup.")
		return
	}
	b.reply(msg.Chat.ID, "Grup dikunci. Hanya admin yang bisa mengirim pesan.")
}

func (b *Bot) unlockHandler(bot *telego.Bot, update telego.Update) {
	if !b.requireGroupAdmin(update) {
		return
	}
	msg := update.Message

	err := bot.SetChatPermissions(&telego.SetChatPermissionsParams{
		ChatID:      tu.ID(msg.Chat.ID),
		Permissions: permissivePermissions(),
	})
	if err != nil {
		slog.Warn("bot: Failed to unlock chat", "error", err, "chat_id", msg.Chat.ID)
		b.reply(msg.Chat.ID, "Gagal membuka kunci grup.")
		return
	}
	b.reply(msg.Chat.ID, "Grup dibuka. Semua anggota bisa mengirim pesan lagi.")
}

// broadcastHandler fans a message out to every registered group. Owner only.
func (b *Bot) broadcastHandler(bot *telego.Bot, update telego.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.isOwner(msg.From.ID) {
		b.reply(msg.Chat.ID, "Hanya pemilik bot yang bisa menggunakan perintah ini.")
		return
	}

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.reply(msg.Chat.ID, "Gunakan: /broadcast <pesan>")
		return
	}
	text := strings.Join(args, " ")

	groups, err := b.store.Groups()
	if err != nil {
		slog.Error("bot: Failed to list groups", "error", err)
		b.reply(msg.Chat.ID, "Terjadi kesalahan. Coba lagi nanti.")
		return
	}

	sent, failed := 0, 0
	for _, group := range groups {
		if !group.IsActive {
			continue
		}
		if _, err := bot.SendMessage(tu.Message(tu.ID(group.ChatID), text)); err != nil {
			slog.Warn("bot: Broadcast delivery failed", "error", err, "chat_id", group.ChatID)
			failed++
			continue
		}
		sent++
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Broadcast selesai: %d terkirim, %d gagal.", sent, failed))
}
