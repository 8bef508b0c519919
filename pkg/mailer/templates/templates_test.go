package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func TestRender_AllTemplates(t *testing.T) {
	for _, name := range []string{Welcome, ProfileUpdated, LoginNotification} {
		t.Run(name, func(t *testing.T) {
			data := NewEmailData("Camelot", "https://camelot.bt/help", name, "arthur@camelot.bt", WithTime(at))
			subject, text, html, err := Render(name, data)
			require.NoError(t, err)
			assert.NotEmpty(t, subject)
			assert.NotContains(t, subject, "\n")
			assert.Contains(t, text, "arthur@camelot.bt")
			assert.Contains(t, html, "arthur@camelot.bt")
		})
	}
}

func TestRender_ProfileUpdatedListsChanges(t *testing.T) {
	data := NewEmailData("", "", ProfileUpdated, "kay@camelot.bt", WithTime(at), WithChanges([]string{"email", "password"}))
	subject, text, html, err := Render(ProfileUpdated, data)
	require.NoError(t, err)
	assert.Equal(t, "Your account profile was updated", subject)
	assert.Contains(t, text, "  - email\n")
	assert.Contains(t, text, "  - password\n")
	assert.Contains(t, html, "<li>password</li>")
	assert.Contains(t, text, "01 May 2024, 12:30 UTC")
}

func TestRender_LoginNotificationDefaults(t *testing.T) {
	data := NewEmailData("Camelot", "", LoginNotification, "kay@camelot.bt", WithTime(at))
	subject, text, _, err := Render(LoginNotification, data)
	require.NoError(t, err)
	assert.Equal(t, "New login to your Camelot account", subject)
	assert.Contains(t, text, "IP address: unknown")

	data = NewEmailData("Camelot", "", LoginNotification, "kay@camelot.bt", WithIP("203.0.113.1"), WithUserAgent("curl/8"))
	_, text, _, err = Render(LoginNotification, data)
	require.NoError(t, err)
	assert.Contains(t, text, "IP address: 203.0.113.1")
	assert.Contains(t, text, "Device: curl/8")
}

func TestRender_EscapesHTML(t *testing.T) {
	data := NewEmailData("", "", Welcome, "<script>@camelot.bt", WithTime(at))
	_, _, html, err := Render(Welcome, data)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", map[string]any{})
	assert.Error(t, err)
}
