package mail

import (
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFormat(t *testing.T) {
	msg := string(Message("lib@example.com", "alice@example.com", "Your code is ABC123"))

	assert.Contains(t, msg, "From: lib@example.com\r\n")
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	// Blank line separates headers from the body.
	assert.Contains(t, msg, "\r\n\r\nYour code is ABC123\r\n")
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, isAuthError(&textproto.Error{Code: 535, Msg: "authentication credentials invalid"}))
	assert.True(t, isAuthError(&textproto.Error{Code: 530, Msg: "authentication required"}))
	assert.False(t, isAuthError(&textproto.Error{Code: 550, Msg: "mailbox unavailable"}))
	assert.False(t, isAuthError(assert.AnError))
}

func TestNewFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("RESET_EMAIL", "")
	t.Setenv("EMAIL_PASSWORD", "")

	_, err := NewFromEnv(nil)
	require.Error(t, err)
}

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("RESET_EMAIL", "lib@example.com")
	t.Setenv("EMAIL_PASSWORD", "app-password")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_PORT", "")

	m, err := NewFromEnv(nil)
	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com", m.host)
	assert.Equal(t, "587", m.port)
}
