package moderation

import (
	"telegram-moderation-bot/storage"
)

// Ledger is the append-only warning ledger for (chat, user) pairs. The
// count is always a live aggregate over the stored records, so clearing
// them immediately zeroes it.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Add appends a warning and returns the resulting live count.
func (l *Ledger) Add(chatID, userID int64, userName, reason, warnedBy string) (int64, error) {
	w := &storage.Warning{
		ChatID:   chatID,
		UserID:   userID,
		UserName: userName,
		Reason:   reason,
		WarnedBy: warnedBy,
	}
	if err := l.store.AddWarning(w); err != nil {
		return 0, err
	}
	return l.store.WarningCount(chatID, userID)
}

// Count returns the number of active warnings for a user in a chat.
func (l *Ledger) Count(chatID, userID int64) (int64, error) {
	return l.store.WarningCount(chatID, userID)
}

// List returns a user's warnings in a chat, newest first.
func (l *Ledger) List(chatID, userID int64) ([]storage.Warning, error) {
	return l.store.Warnings(chatID, userID)
}

// Clear removes all warnings for a user in a chat.
func (l *Ledger) Clear(chatID, userID int64) error {
	return l.store.ClearWarnings(chatID, userID)
}
