package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"telegram-moderation-bot/moderation"
)

const adminOnlyMessage = "Hanya admin yang bisa menggunakan perintah ini."

var errNoTarget = errors.New("no target user")

// target is the user a moderation command acts on.
type target struct {
	id      int64
	name    string
	mention string
	isBot   bool
}

// displayName renders a user as "@handle" when available, otherwise the
// full name. Used in logs and plain-text replies.
func displayName(user telego.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return name
}

// mentionHTML renders a clickable HTML mention of the user.
func mentionHTML(user telego.User) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`,
		user.ID, moderation.EscapeHTML(displayName(user)))
}

// commandArgs returns the words after the command itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

func (b *Bot) isOwner(userID int64) bool {
	return b.ownerID != 0 && userID == b.ownerID
}

func (b *Bot) memberStatus(chatID, userID int64) string {
	member, err := b.api.GetChatMember(&telego.GetChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		slog.Debug("bot: Membership lookup failed", "error", err,
			"chat_id", chatID, "user_id", userID)
		return ""
	}
	return member.MemberStatus()
}

func (b *Bot) isAdmin(chatID, userID int64) bool {
	status := b.memberStatus(chatID, userID)
	return status == telego.MemberStatusCreator || status == telego.MemberStatusAdministrator
}

func (b *Bot) isCreator(chatID, userID int64) bool {
	return b.memberStatus(chatID, userID) == telego.MemberStatusCreator
}

// requireGroupAdmin gates a command to group chats and admin (or owner)
// senders. It replies with the refusal itself and reports whether the
// handler may proceed.
func (b *Bot) requireGroupAdmin(update telego.Update) bool {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return false
	}
	if msg.Chat.Type == telego.ChatTypePrivate {
		b.reply(msg.Chat.ID, "Perintah ini hanya bisa digunakan di dalam grup.")
		return false
	}
	if b.isOwner(msg.From.ID) || b.isAdmin(msg.Chat.ID, msg.From.ID) {
		return true
	}
	b.reply(msg.Chat.ID, adminOnlyMessage)
	return false
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.SendMessage(tu.Message(tu.ID(chatID), text)); err != nil {
		slog.Warn("bot: Failed to send reply", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) replyHTML(chatID int64, text string) {
	params := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if _, err := b.api.SendMessage(params); err != nil {
		slog.Warn("bot: Failed to send reply", "error", err, "chat_id", chatID)
	}
}

// resolveTarget determines who a moderation command targets: the sender of
// the replied-to message, a numeric user ID, or an @handle. It returns the
// remaining args (after the target reference was consumed, if any).
func (b *Bot) resolveTarget(msg *telego.Message, args []string) (*target, []string, error) {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		from := *msg.ReplyToMessage.From
		return &target{
			id:      from.ID,
			name:    displayName(from),
			mention: mentionHTML(from),
			isBot:   from.IsBot,
		}, args, nil
	}

	if len(args) == 0 {
		return nil, nil, errNoTarget
	}
	ref := args[0]
	rest := args[1:]

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		member, err := b.api.GetChatMember(&telego.GetChatMemberParams{
			ChatID: tu.ID(msg.Chat.ID),
			UserID: id,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve user %d: %w", id, err)
		}
		user := member.MemberUser()
		return &target{
			id:      user.ID,
			name:    displayName(user),
			mention: mentionHTML(user),
			isBot:   user.IsBot,
		}, rest, nil
	}

	if strings.HasPrefix(ref, "@") {
		chat, err := b.api.GetChat(&telego.GetChatParams{ChatID: tu.Username(ref)})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve %s: %w", ref, err)
		}
		return &target{
			id:      chat.ID,
			name:    ref,
			mention: fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, chat.ID, moderation.EscapeHTML(ref)),
		}, rest, nil
	}

	return nil, nil, errNoTarget
}

// requireTarget resolves the command target and reports refusals to the
// chat itself.
func (b *Bot) requireTarget(msg *telego.Message, args []string) (*target, []string, bool) {
	t, rest, err := b.resolveTarget(msg, args)
	if err != nil {
		if errors.Is(err, errNoTarget) {
			b.reply(msg.Chat.ID, "Balas pesan pengguna atau sebutkan ID/@username sebagai target.")
		} else {
			b.reply(msg.Chat.ID, "Pengguna tidak ditemukan.")
		}
		return nil, nil, false
	}
	return t, rest, true
}

func permissivePermissions() telego.ChatPermissions {
	return telego.ChatPermissions{
		CanSendMessages:       telego.ToPtr(true),
		CanSendAudios:         telego.ToPtr(true),
		CanSendDocuments:      telego.ToPtr(true),
		CanSendPhotos:         telego.ToPtr(true),
		CanSendVideos:         telego.ToPtr(true),
		CanSendVideoNotes:     telego.ToPtr(true),
		CanSendVoiceNotes:     telego.ToPtr(true),
		CanSendPolls:          telego.ToPtr(true),
		CanSendOtherMessages:  telego.ToPtr(true),
		CanAddWebPagePreviews: telego.ToPtr(true),
		CanInviteUsers:        telego.ToPtr(true),
	}
}
