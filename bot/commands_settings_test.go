package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"telegram-moderation-bot/storage"
)

func TestFormatRules(t *testing.T) {
	cfg := storage.DefaultSettings(-100)
	cfg.ForceJoinEnabled = true
	cfg.ForceJoinChannels = []string{"alpha", "beta"}
	cfg.AntiLinkEnabled = true
	cfg.WordFilterEnabled = true
	cfg.BannedWords = []string{"judi"}
	cfg.AIModeratorEnabled = true

	rules := formatRules(cfg)

	assert.Contains(t, rules, "Wajib bergabung ke: @alpha, @beta")
	assert.Contains(t, rules, "Dilarang mengirim link.")
	assert.Contains(t, rules, "Dilarang menggunakan kata terlarang.")
	assert.Contains(t, rules, "Maksimal 5 pesan dalam 10 detik.")
	assert.Contains(t, rules, "Maksimal 10 pesan dalam 60 detik.")
	assert.Contains(t, rules, "AI Moderator")
	assert.Contains(t, rules, "3 peringatan berujung bisu 1 jam.")
}

func TestFormatRulesOnlyListsEnabledFeatures(t *testing.T) {
	cfg := storage.DefaultSettings(-100)
	cfg.AntiSpamEnabled = false
	cfg.AntiFloodEnabled = false

	rules := formatRules(cfg)

	assert.NotContains(t, rules, "Dilarang mengirim link")
	assert.NotContains(t, rules, "dalam 10 detik")
	assert.NotContains(t, rules, "dalam 60 detik")

	// The warning rule is always present.
	assert.Contains(t, rules, "3 peringatan berujung bisu 1 jam.")
}

func TestFormatRulesWarnActionLabels(t *testing.T) {
	cfg := storage.DefaultSettings(-100)

	cfg.WarnAction = storage.WarnActionBan
	assert.Contains(t, formatRules(cfg), "berujung ban.")

	cfg.WarnAction = storage.WarnActionKick
	assert.Contains(t, formatRules(cfg), "berujung tendang.")
}

func TestFormatSettings(t *testing.T) {
	cfg := storage.DefaultSettings(-100)
	cfg.AntiLinkEnabled = true
	cfg.BannedWords = []string{"judi", "slot"}

	view := formatSettings(cfg)

	assert.Contains(t, view, "Sambutan: aktif")
	assert.Contains(t, view, "Wajib gabung: nonaktif (0 channel)")
	assert.Contains(t, view, "Anti-spam: aktif (maks 5 pesan/10 detik)")
	assert.Contains(t, view, "Anti-link: aktif")
	assert.Contains(t, view, "Filter kata: nonaktif (2 kata)")
	assert.Contains(t, view, "Anti-flood: aktif (10 pesan/60 detik)")
	assert.Contains(t, view, "Bisukan anggota baru: nonaktif (300 detik)")
	assert.Contains(t, view, "AI moderator: nonaktif")
	assert.Contains(t, view, "Batas peringatan: 3 (bisu 1 jam)")
}
