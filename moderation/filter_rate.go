package moderation

import (
	"context"
	"fmt"
	"time"

	"telegram-moderation-bot/storage"
)

// spamWindow is the fixed anti-spam window; only the threshold is
// configurable. The anti-flood window is configurable per group.
const spamWindow = 10 * time.Second

const (
	spamMuteDuration  = 5 * time.Minute
	floodMuteDuration = 10 * time.Minute
)

// antiSpamFilter mutes users who exceed the per-group message budget within
// a fixed 10 second window.
type antiSpamFilter struct {
	e *Engine
}

func (f *antiSpamFilter) Name() string { return ActionSpam }

func (f *antiSpamFilter) Check(ctx context.Context, msg *Message, cfg *storage.GroupSettings, exempt bool) bool {
	if exempt || !cfg.AntiSpamEnabled {
		return true
	}

	key := rateKey{ChatID: msg.ChatID, UserID: msg.UserID}
	count := f.e.spam.Record(key, f.e.now(), spamWindow)

	maxMessages := cfg.AntiSpamMaxMessages
	if maxMessages <= 0 {
		maxMessages = 5
	}
	if count <= maxMessages {
		return true
	}

	until := f.e.now().Add(spamMuteDuration)
	if err := f.e.platform.RestrictSend(ctx, msg.ChatID, msg.UserID, until); err != nil {
		// Mute failed (usually missing rights); the message still counts
		// as blocked so the chain stops here.
		f.e.logRestrictFailure(err, msg)
		return false
	}

	f.e.notify(ctx, msg.ChatID,
		fmt.Sprintf("%s telah dibisukan selama 5 menit karena spam.", msg.Mention),
		&SendOptions{HTML: true}, 0)

	f.e.incrementStat(msg.ChatID, storage.StatSpamBlocked)
	f.e.incrementStat(msg.ChatID, storage.StatUsersMuted)
	f.e.logAction(msg.ChatID, ActionSpam, msg.UserName, PerformerBot,
		"Otomatis dibisukan karena spam (terlalu banyak pesan dalam 10 detik)")

	f.e.spam.Reset(key)
	return false
}

// antiFloodFilter mutes users who exceed the configurable message budget
// within the configurable window.
type antiFloodFilter struct {
	e *Engine
}

func (f *antiFloodFilter) Name() string { return ActionFlood }

func (f *antiFloodFilter) Check(ctx context.Context, msg *Message, cfg *storage.GroupSettings, exempt bool) bool {
	if exempt || !cfg.AntiFloodEnabled {
		return true
	}

	windowSeconds := cfg.AntiFloodSeconds
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	maxMessages := cfg.AntiFloodMessages
	if maxMessages <= 0 {
		maxMessages = 10
	}

	key := rateKey{ChatID: msg.ChatID, UserID: msg.UserID}
	count := f.e.flood.Record(key, f.e.now(), time.Duration(windowSeconds)*time.Second)
	if count <= maxMessages {
		return true
	}

	until := f.e.now().Add(floodMuteDuration)
	if err := f.e.platform.RestrictSend(ctx, msg.ChatID, msg.UserID, until); err != nil {
		f.e.logRestrictFailure(err, msg)
		return false
	}

	f.e.notify(ctx, msg.ChatID,
		fmt.Sprintf("%s telah dibisukan selama 10 menit karena flood.", msg.Mention),
		&SendOptions{HTML: true}, 0)

	// Flood increments only users_muted, matching the reference counters.
	f.e.incrementStat(msg.ChatID, storage.StatUsersMuted)
	f.e.logAction(msg.ChatID, ActionFlood, msg.UserName, PerformerBot,
		fmt.Sprintf("Otomatis dibisukan karena flood (melebihi %d pesan dalam %d detik)", maxMessages, windowSeconds))

	f.e.flood.Reset(key)
	return false
}
