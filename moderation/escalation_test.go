package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-moderation-bot/storage"
)

func newTestEscalator(platform *fakePlatform, store *fakeStore) (*Escalator, *Ledger) {
	ledger := NewLedger(store)
	esc := NewEscalator(platform, store, ledger)
	esc.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return esc, ledger
}

func addWarnings(t *testing.T, ledger *Ledger, n int) int64 {
	t.Helper()
	var count int64
	var err error
	for i := 0; i < n; i++ {
		count, err = ledger.Add(-100, 7, "@target", "alasan", "@admin")
		require.NoError(t, err)
	}
	return count
}

func TestEscalationMutesAtLimit(t *testing.T) {
	platform := newFakePlatform()
	cfg := storage.DefaultSettings(-100)
	store := newFakeStore(cfg)
	esc, ledger := newTestEscalator(platform, store)

	count := addWarnings(t, ledger, 3)
	require.Equal(t, int64(3), count)
	require.GreaterOrEqual(t, count, int64(cfg.WarnLimit))

	err := esc.Apply(context.Background(), -100, 7, "@target", cfg)
	require.NoError(t, err)

	require.Len(t, platform.restrictions, 1)
	assert.Equal(t, esc.now().Add(time.Hour), platform.restrictions[0].until)
	assert.Equal(t, int64(1), store.stats[storage.StatUsersMuted])
	assert.Equal(t, []string{ActionMute}, store.actionsLogged())

	remaining, err := ledger.Count(-100, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining, "warnings must be cleared after escalation")
}

func TestEscalationBanAction(t *testing.T) {
	platform := newFakePlatform()
	cfg := storage.DefaultSettings(-100)
	cfg.WarnAction = storage.WarnActionBan
	store := newFakeStore(cfg)
	esc, ledger := newTestEscalator(platform, store)

	addWarnings(t, ledger, 3)
	err := esc.Apply(context.Background(), -100, 7, "@target", cfg)
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, platform.banned)
	assert.Empty(t, platform.unbanned)
	assert.Equal(t, int64(1), store.stats[storage.StatUsersBanned])
	assert.Equal(t, []string{ActionBan}, store.actionsLogged())
}

func TestEscalationKickIsBanThenUnban(t *testing.T) {
	platform := newFakePlatform()
	cfg := storage.DefaultSettings(-100)
	cfg.WarnAction = storage.WarnActionKick
	store := newFakeStore(cfg)
	esc, ledger := newTestEscalator(platform, store)

	addWarnings(t, ledger, 3)
	err := esc.Apply(context.Background(), -100, 7, "@target", cfg)
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, platform.banned)
	assert.Equal(t, []int64{7}, platform.unbanned)
	assert.Equal(t, int64(1), store.stats[storage.StatUsersKicked])
	assert.Equal(t, []string{ActionKick}, store.actionsLogged())
}

func TestEscalationFailureKeepsWarnings(t *testing.T) {
	platform := newFakePlatform()
	platform.restrictErr = errors.New("not enough rights")
	cfg := storage.DefaultSettings(-100)
	store := newFakeStore(cfg)
	esc, ledger := newTestEscalator(platform, store)

	addWarnings(t, ledger, 3)
	err := esc.Apply(context.Background(), -100, 7, "@target", cfg)
	require.Error(t, err)

	count, countErr := ledger.Count(-100, 7)
	require.NoError(t, countErr)
	assert.Equal(t, int64(3), count, "a failed punitive action must keep the warnings")
	assert.Equal(t, int64(0), store.stats[storage.StatUsersMuted])
	assert.Empty(t, store.actionsLogged())

	// A later attempt with working permissions succeeds and clears them.
	platform.restrictErr = nil
	err = esc.Apply(context.Background(), -100, 7, "@target", cfg)
	require.NoError(t, err)

	count, countErr = ledger.Count(-100, 7)
	require.NoError(t, countErr)
	assert.Equal(t, int64(0), count)
}

func TestEscalationDefaultsToMute(t *testing.T) {
	platform := newFakePlatform()
	cfg := storage.DefaultSettings(-100)
	cfg.WarnAction = ""
	store := newFakeStore(cfg)
	esc, ledger := newTestEscalator(platform, store)

	addWarnings(t, ledger, 3)
	err := esc.Apply(context.Background(), -100, 7, "@target", cfg)
	require.NoError(t, err)

	assert.Len(t, platform.restrictions, 1)
	assert.Empty(t, platform.banned)
}

func TestLedgerAddReturnsLiveCount(t *testing.T) {
	store := newFakeStore(storage.DefaultSettings(-100))
	ledger := NewLedger(store)

	count, err := ledger.Add(-100, 7, "@target", "pertama", "@admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = ledger.Add(-100, 7, "@target", "kedua", "@admin")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Other users and chats do not affect the count.
	_, err = ledger.Add(-100, 8, "@other", "lain", "@admin")
	require.NoError(t, err)
	_, err = ledger.Add(-200, 7, "@target", "lain", "@admin")
	require.NoError(t, err)

	count, err = ledger.Count(-100, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, ledger.Clear(-100, 7))
	count, err = ledger.Count(-100, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = ledger.Count(-100, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "clearing one user must not touch others")
}
