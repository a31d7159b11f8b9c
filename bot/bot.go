// Package bot wires the Telegram transport to the moderation engine: long
// polling, command handlers, member-join handling and callback queries.
package bot

import (
	"errors"
	"log/slog"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"telegram-moderation-bot/moderation"
	"telegram-moderation-bot/storage"
)

var (
	ErrGetMe          = errors.New("cannot retrieve api user")
	ErrUpdatesChannel = errors.New("cannot get updates channel")
	ErrHandlerInit    = errors.New("cannot initialize handler")
)

type Bot struct {
	api       *telego.Bot
	store     *storage.Storage
	engine    *moderation.Engine
	ledger    *moderation.Ledger
	escalator *moderation.Escalator
	ownerID   int64

	handler *th.BotHandler
}

func New(api *telego.Bot, store *storage.Storage, engine *moderation.Engine, ledger *moderation.Ledger, escalator *moderation.Escalator, ownerID int64) *Bot {
	return &Bot{
		api:       api,
		store:     store,
		engine:    engine,
		ledger:    ledger,
		escalator: escalator,
		ownerID:   ownerID,
	}
}

// Run starts long polling and blocks until Stop is called.
func (b *Bot) Run() error {
	botUser, err := b.api.GetMe()
	if err != nil {
		slog.Error("bot: Cannot retrieve api user", "error", err)
		return ErrGetMe
	}

	slog.Info("bot: Running as",
		"id", botUser.ID,
		"username", botUser.Username,
		"name", botUser.FirstName)

	updates, err := b.api.UpdatesViaLongPolling(nil)
	if err != nil {
		slog.Error("bot: Cannot get update channel", "error", err)
		return ErrUpdatesChannel
	}

	bh, err := th.NewBotHandler(b.api, updates)
	if err != nil {
		slog.Error("bot: Cannot initialize bot handler", "error", err)
		return ErrHandlerInit
	}
	b.handler = bh

	bh.Handle(b.startHandler, th.CommandEqual("start"))
	bh.Handle(b.helpHandler, th.CommandEqual("help"))
	bh.Handle(b.rulesHandler, th.CommandEqual("rules"))

	bh.Handle(b.warnHandler, th.CommandEqual("warn"))
	bh.Handle(b.unwarnHandler, th.CommandEqual("unwarn"))
	bh.Handle(b.warningsHandler, th.CommandEqual("warnings"))
	bh.Handle(b.banHandler, th.CommandEqual("ban"))
	bh.Handle(b.unbanHandler, th.CommandEqual("unban"))
	bh.Handle(b.kickHandler, th.CommandEqual("kick"))
	bh.Handle(b.muteHandler, th.CommandEqual("mute"))
	bh.Handle(b.unmuteHandler, th.CommandEqual("unmute"))

	bh.Handle(b.setWelcomeHandler, th.CommandEqual("setwelcome"))
	bh.Handle(b.setForceJoinHandler, th.CommandEqual("setforcejoin"))
	bh.Handle(b.delForceJoinHandler, th.CommandEqual("delforcejoin"))
	bh.Handle(b.addWordHandler, th.CommandEqual("addword"))
	bh.Handle(b.delWordHandler, th.CommandEqual("delword"))
	bh.Handle(b.toggleHandler, th.CommandEqual("toggle"))
	bh.Handle(b.settingsHandler, th.CommandEqual("settings"))
	bh.Handle(b.statsHandler, th.CommandEqual("stats"))

	bh.Handle(b.pinHandler, th.CommandEqual("pin"))
	bh.Handle(b.unpinHandler, th.CommandEqual("unpin"))
	bh.Handle(b.delHandler, th.CommandEqual("del"))
	bh.Handle(b.purgeHandler, th.CommandEqual("purge"))
	bh.Handle(b.setTitleHandler, th.CommandEqual("settitle"))
	bh.Handle(b.promoteHandler, th.CommandEqual("promote"))
	bh.Handle(b.demoteHandler, th.CommandEqual("demote"))
	bh.Handle(b.lockHandler, th.CommandEqual("lock"))
	bh.Handle(b.unlockHandler, th.CommandEqual("unlock"))

	bh.Handle(b.broadcastHandler, th.CommandEqual("broadcast"))

	bh.Handle(b.callbackHandler, th.AnyCallbackQuery())
	bh.Handle(b.newMembersHandler, hasNewMembers)
	bh.Handle(b.messageHandler, th.AnyMessage())

	bh.Start()

	return nil
}

// Stop shuts down the handler and long polling; Run returns afterwards.
func (b *Bot) Stop() {
	if b.handler != nil {
		b.handler.Stop()
	}
	b.api.StopLongPolling()
}

func hasNewMembers(update telego.Update) bool {
	return update.Message != nil && len(update.Message.NewChatMembers) > 0
}

// messageHandler feeds every remaining message through the filter chain.
func (b *Bot) messageHandler(bot *telego.Bot, update telego.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	b.engine.ProcessMessage(update.Context(), &moderation.Message{
		ChatID:    msg.Chat.ID,
		ChatTitle: msg.Chat.Title,
		MessageID: msg.MessageID,
		UserID:    msg.From.ID,
		UserIsBot: msg.From.IsBot,
		UserName:  displayName(*msg.From),
		Mention:   mentionHTML(*msg.From),
		Text:      msg.Text,
		Private:   msg.Chat.Type == telego.ChatTypePrivate,
	})
}
