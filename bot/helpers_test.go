package bot

import (
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user telego.User
		want string
	}{
		{
			name: "username preferred",
			user: telego.User{ID: 1, Username: "someone", FirstName: "First"},
			want: "@someone",
		},
		{
			name: "first name only",
			user: telego.User{ID: 1, FirstName: "First"},
			want: "First",
		},
		{
			name: "full name",
			user: telego.User{ID: 1, FirstName: "First", LastName: "Last"},
			want: "First Last",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(tt.user))
		})
	}
}

func TestMentionHTMLEscapes(t *testing.T) {
	user := telego.User{ID: 7, FirstName: "<First>"}
	assert.Equal(t, `<a href="tg://user?id=7">&lt;First&gt;</a>`, mentionHTML(user))
}

func TestCommandArgs(t *testing.T) {
	assert.Nil(t, commandArgs("/warn"))
	assert.Equal(t, []string{"@user", "spamming", "links"}, commandArgs("/warn @user spamming links"))
	assert.Equal(t, []string{"x"}, commandArgs("/warn   x"))
}

func TestHasNewMembers(t *testing.T) {
	assert.False(t, hasNewMembers(telego.Update{}))
	assert.False(t, hasNewMembers(telego.Update{Message: &telego.Message{}}))
	assert.True(t, hasNewMembers(telego.Update{Message: &telego.Message{
		NewChatMembers: []telego.User{{ID: 1}},
	}}))
}

func TestForceJoinKeyboard(t *testing.T) {
	markup := forceJoinKeyboard(-100, []string{"alpha", "beta"})
	require.Len(t, markup.InlineKeyboard, 3)

	assert.Equal(t, "Gabung @alpha", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "https://t.me/alpha", markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://t.me/beta", markup.InlineKeyboard[1][0].URL)
	assert.Equal(t, "forcejoin_check_-100", markup.InlineKeyboard[2][0].CallbackData)
}

func TestToggleNamesCoverEverySwitch(t *testing.T) {
	// Every toggle constant must be reachable from /toggle.
	seen := make(map[int]bool)
	for _, toggle := range toggleNames {
		seen[int(toggle)] = true
	}
	assert.Len(t, seen, 8)
}

func TestPermissivePermissions(t *testing.T) {
	perms := permissivePermissions()
	require.NotNil(t, perms.CanSendMessages)
	assert.True(t, *perms.CanSendMessages)
	require.NotNil(t, perms.CanSendOtherMessages)
	assert.True(t, *perms.CanSendOtherMessages)
	require.NotNil(t, perms.CanAddWebPagePreviews)
	assert.True(t, *perms.CanAddWebPagePreviews)
}
