package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	return s
}

func TestEnsureSettingsCreatesDefaults(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetSettings(-100)
	require.ErrorIs(t, err, ErrNotFound)

	cfg, err := s.EnsureSettings(-100)
	require.NoError(t, err)

	assert.Equal(t, int64(-100), cfg.ChatID)
	assert.True(t, cfg.WelcomeEnabled)
	assert.True(t, cfg.AntiSpamEnabled)
	assert.Equal(t, 5, cfg.AntiSpamMaxMessages)
	assert.True(t, cfg.AntiFloodEnabled)
	assert.Equal(t, 10, cfg.AntiFloodMessages)
	assert.Equal(t, 60, cfg.AntiFloodSeconds)
	assert.Equal(t, 3, cfg.WarnLimit)
	assert.Equal(t, WarnActionMute, cfg.WarnAction)
	assert.False(t, cfg.ForceJoinEnabled)
	assert.False(t, cfg.AntiLinkEnabled)
	assert.False(t, cfg.WordFilterEnabled)
	assert.False(t, cfg.AIModeratorEnabled)

	// A second call returns the persisted row, not a fresh one.
	again, err := s.EnsureSettings(-100)
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, again.ID)
}

func TestToggleSetting(t *testing.T) {
	s := newTestStorage(t)

	cfg, err := s.ToggleSetting(-100, ToggleAntiLink)
	require.NoError(t, err)
	assert.True(t, cfg.AntiLinkEnabled)

	cfg, err = s.ToggleSetting(-100, ToggleAntiLink)
	require.NoError(t, err)
	assert.False(t, cfg.AntiLinkEnabled)

	// Other switches stay untouched.
	assert.True(t, cfg.AntiSpamEnabled)

	_, err = s.ToggleSetting(-100, Toggle(99))
	assert.Error(t, err)
}

func TestUpdateSettingsPartialPatch(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.EnsureSettings(-100)
	require.NoError(t, err)

	cfg, err := s.UpdateSettings(-100, map[string]any{
		"antiLinkEnabled": true,
		"bannedWords":     []any{"judi", "slot"},
		"warnLimit":       float64(5),
		"warnAction":      WarnActionBan,
	})
	require.NoError(t, err)

	assert.True(t, cfg.AntiLinkEnabled)
	assert.Equal(t, []string{"judi", "slot"}, cfg.BannedWords)
	assert.Equal(t, 5, cfg.WarnLimit)
	assert.Equal(t, WarnActionBan, cfg.WarnAction)

	// Fields absent from the patch keep their values.
	assert.True(t, cfg.AntiSpamEnabled)
	assert.Equal(t, DefaultWelcomeMessage, cfg.WelcomeMessage)

	// The patch round-trips through the database, including the JSON
	// serialized slice column.
	stored, err := s.GetSettings(-100)
	require.NoError(t, err)
	assert.Equal(t, []string{"judi", "slot"}, stored.BannedWords)
	assert.Equal(t, 5, stored.WarnLimit)
}

func TestUpdateSettingsRejectsBadInput(t *testing.T) {
	s := newTestStorage(t)

	tests := []struct {
		name  string
		patch map[string]any
	}{
		{name: "unknown field", patch: map[string]any{"noSuchField": true}},
		{name: "wrong type", patch: map[string]any{"antiLinkEnabled": "yes"}},
		{name: "invalid warn action", patch: map[string]any{"warnAction": "explode"}},
		{name: "mixed slice", patch: map[string]any{"bannedWords": []any{"ok", 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.UpdateSettings(-100, tt.patch)
			assert.Error(t, err)
		})
	}

	// Rejected patches leave the stored row untouched.
	cfg, err := s.GetSettings(-100)
	require.NoError(t, err)
	assert.False(t, cfg.AntiLinkEnabled)
	assert.Equal(t, WarnActionMute, cfg.WarnAction)
}

func TestUpsertGroup(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.UpsertGroup(-100, "My Group", 25, true))

	group, err := s.GetGroup(-100)
	require.NoError(t, err)
	assert.Equal(t, "My Group", group.Title)
	assert.Equal(t, 25, group.MemberCount)
	assert.True(t, group.IsActive)

	// A zero member count keeps the previous value; title refreshes.
	require.NoError(t, s.UpsertGroup(-100, "Renamed Group", 0, true))
	group, err = s.GetGroup(-100)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Group", group.Title)
	assert.Equal(t, 25, group.MemberCount)

	groups, err := s.Groups()
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	_, err = s.GetGroup(-999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementStat(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetStats(-100)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.IncrementStat(-100, StatMessagesProcessed, 1))
	require.NoError(t, s.IncrementStat(-100, StatMessagesProcessed, 1))
	require.NoError(t, s.IncrementStat(-100, StatMessagesDeleted, 3))

	stats, err := s.GetStats(-100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.MessagesProcessed)
	assert.Equal(t, int64(3), stats.MessagesDeleted)
	assert.Equal(t, int64(0), stats.UsersWarned)

	err = s.IncrementStat(-100, Stat("drop table"), 1)
	assert.Error(t, err, "unknown columns must be rejected")

	require.NoError(t, s.IncrementStat(-200, StatUsersMuted, 1))
	all, err := s.AllStats()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWarnings(t *testing.T) {
	s := newTestStorage(t)

	count, err := s.WarningCount(-100, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, s.AddWarning(&Warning{ChatID: -100, UserID: 7, UserName: "@a", Reason: "satu", WarnedBy: "@admin"}))
	require.NoError(t, s.AddWarning(&Warning{ChatID: -100, UserID: 7, UserName: "@a", Reason: "dua", WarnedBy: "@admin"}))
	require.NoError(t, s.AddWarning(&Warning{ChatID: -100, UserID: 8, UserName: "@b", Reason: "lain", WarnedBy: "@admin"}))

	count, err = s.WarningCount(-100, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	warnings, err := s.Warnings(-100, 7)
	require.NoError(t, err)
	require.Len(t, warnings, 2)

	chatWide, err := s.ChatWarnings(-100)
	require.NoError(t, err)
	assert.Len(t, chatWide, 3)

	require.NoError(t, s.ClearWarnings(-100, 7))

	count, err = s.WarningCount(-100, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = s.WarningCount(-100, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Cleared warnings never resurface.
	warnings, err = s.Warnings(-100, 7)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestLogs(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddLog(&ActivityLog{ChatID: -100, Action: "warn", TargetUser: "@a", PerformedBy: "@admin"}))
	}
	require.NoError(t, s.AddLog(&ActivityLog{ChatID: -200, Action: "ban", TargetUser: "@b", PerformedBy: "bot"}))

	logs, err := s.Logs(-100, 3)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
	for _, entry := range logs {
		assert.Equal(t, int64(-100), entry.ChatID)
	}

	logs, err = s.Logs(-100, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 5, "non-positive limit falls back to the default")

	recent, err := s.RecentLogs(10)
	require.NoError(t, err)
	assert.Len(t, recent, 6)
}
