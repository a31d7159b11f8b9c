package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-moderation-bot/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Storage) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	return NewServer(store), store
}

func doJSON(t *testing.T, s *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, payload
}

func TestListGroups(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.UpsertGroup(-100, "Group A", 10, true))
	require.NoError(t, store.UpsertGroup(-200, "Group B", 20, true))

	status, body := doJSON(t, s, http.MethodGet, "/api/groups", "")
	require.Equal(t, http.StatusOK, status)

	var groups []storage.Group
	require.NoError(t, json.Unmarshal(body, &groups))
	assert.Len(t, groups, 2)
}

func TestGetSettingsCreatesDefaults(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := doJSON(t, s, http.MethodGet, "/api/groups/-100/settings", "")
	require.Equal(t, http.StatusOK, status)

	var settings storage.GroupSettings
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, int64(-100), settings.ChatID)
	assert.True(t, settings.AntiSpamEnabled)
	assert.Equal(t, 3, settings.WarnLimit)
}

func TestPatchSettings(t *testing.T) {
	s, store := newTestServer(t)

	status, body := doJSON(t, s, http.MethodPatch, "/api/groups/-100/settings",
		`{"antiLinkEnabled": true, "bannedWords": ["judi"], "warnLimit": 5}`)
	require.Equal(t, http.StatusOK, status)

	var settings storage.GroupSettings
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.True(t, settings.AntiLinkEnabled)
	assert.Equal(t, []string{"judi"}, settings.BannedWords)
	assert.Equal(t, 5, settings.WarnLimit)

	// Unpatched fields keep their defaults.
	assert.True(t, settings.AntiSpamEnabled)

	stored, err := store.GetSettings(-100)
	require.NoError(t, err)
	assert.True(t, stored.AntiLinkEnabled)
}

func TestPatchSettingsRejectsUnknownFields(t *testing.T) {
	s, _ := newTestServer(t)

	status, _ := doJSON(t, s, http.MethodPatch, "/api/groups/-100/settings",
		`{"noSuchField": true}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, s, http.MethodPatch, "/api/groups/-100/settings", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetStatsZeroWhenAbsent(t *testing.T) {
	s, store := newTestServer(t)

	status, body := doJSON(t, s, http.MethodGet, "/api/groups/-100/stats", "")
	require.Equal(t, http.StatusOK, status)

	var stats storage.BotStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(-100), stats.ChatID)
	assert.Equal(t, int64(0), stats.MessagesProcessed)

	require.NoError(t, store.IncrementStat(-100, storage.StatMessagesProcessed, 4))

	status, body = doJSON(t, s, http.MethodGet, "/api/groups/-100/stats", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(4), stats.MessagesProcessed)
}

func TestGetLogsAndWarnings(t *testing.T) {
	s, store := newTestServer(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AddLog(&storage.ActivityLog{ChatID: -100, Action: "warn", TargetUser: "@a", PerformedBy: "@admin"}))
	}
	require.NoError(t, store.AddWarning(&storage.Warning{ChatID: -100, UserID: 7, UserName: "@a", Reason: "spam", WarnedBy: "@admin"}))

	status, body := doJSON(t, s, http.MethodGet, "/api/groups/-100/logs?limit=2", "")
	require.Equal(t, http.StatusOK, status)
	var logs []storage.ActivityLog
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Len(t, logs, 2)

	status, body = doJSON(t, s, http.MethodGet, "/api/groups/-100/warnings", "")
	require.Equal(t, http.StatusOK, status)
	var warnings []storage.Warning
	require.NoError(t, json.Unmarshal(body, &warnings))
	require.Len(t, warnings, 1)
	assert.Equal(t, "spam", warnings[0].Reason)

	status, body = doJSON(t, s, http.MethodGet, "/api/logs/recent?limit=2", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Len(t, logs, 2)
}

func TestStatsOverview(t *testing.T) {
	s, store := newTestServer(t)

	require.NoError(t, store.UpsertGroup(-100, "A", 0, true))
	require.NoError(t, store.UpsertGroup(-200, "B", 0, true))
	require.NoError(t, store.IncrementStat(-100, storage.StatMessagesProcessed, 5))
	require.NoError(t, store.IncrementStat(-200, storage.StatMessagesProcessed, 7))
	require.NoError(t, store.IncrementStat(-200, storage.StatUsersMuted, 2))

	status, body := doJSON(t, s, http.MethodGet, "/api/stats/overview", "")
	require.Equal(t, http.StatusOK, status)

	var total overview
	require.NoError(t, json.Unmarshal(body, &total))
	assert.Equal(t, 2, total.Groups)
	assert.Equal(t, int64(12), total.MessagesProcessed)
	assert.Equal(t, int64(2), total.UsersMuted)
}

func TestInvalidChatID(t *testing.T) {
	s, _ := newTestServer(t)

	status, _ := doJSON(t, s, http.MethodGet, "/api/groups/abc/settings", "")
	assert.Equal(t, http.StatusBadRequest, status)
}
