package mail

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pililokal/merchant-ops/internal/config"
)

func TestEnabled(t *testing.T) {
	t.Parallel()

	assert.False(t, NewSender(config.MailConfig{}).Enabled())
	assert.True(t, NewSender(config.MailConfig{Host: "smtp.example.com"}).Enabled())
}

func TestSendWithoutSMTPFails(t *testing.T) {
	t.Parallel()

	s := NewSender(config.MailConfig{})
	assert.Error(t, s.SendInvite("Maria", "maria@example.com", "temp123"))
	assert.Error(t, s.SendPasswordReset("Maria", "maria@example.com", "temp123"))
}

func TestInviteTemplate(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	err := inviteTmpl.Execute(&body, accountEmailData{
		Name:         "Maria",
		Email:        "maria@example.com",
		TempPassword: "s3cretTemp",
		AppName:      "Pililokal Dashboard",
		AppURL:       "https://dashboard.example.com",
	})
	require.NoError(t, err)

	out := body.String()
	assert.Contains(t, out, "Hi Maria,")
	assert.Contains(t, out, "maria@example.com")
	assert.Contains(t, out, "s3cretTemp")
	assert.Contains(t, out, "https://dashboard.example.com")
}

func TestResetTemplate(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	err := resetTmpl.Execute(&body, accountEmailData{
		Name:         "Jo",
		TempPassword: "newTemp99",
		AppName:      "Pililokal Dashboard",
	})
	require.NoError(t, err)

	out := body.String()
	assert.Contains(t, out, "Hi Jo,")
	assert.Contains(t, out, "newTemp99")
	assert.Contains(t, out, "reset by an administrator")
}
