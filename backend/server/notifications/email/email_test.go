package email

import (
	"context"
	"errors"
	"net/smtp"
	"os"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghoshh/getfit/backend/models"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newCapturingSender(fail error) (*Sender, *capturedMail) {
	s := NewSender("coach@example.com", "secret")
	got := &capturedMail{}
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		got.addr, got.from, got.to, got.msg = addr, from, to, string(msg)
		return fail
	}
	return s, got
}

func TestSendCoachingDigest(t *testing.T) {
	s, got := newCapturingSender(nil)

	require.NoError(t, s.SendCoachingDigest("ana@example.com", "Great week!\n\nTry <b>two</b> rest days."))
	assert.Equal(t, smtpServer, got.addr)
	assert.Equal(t, "coach@example.com", got.from)
	assert.Equal(t, []string{"ana@example.com"}, got.to)

	headers, body, found := strings.Cut(got.msg, "\r\n\r\n")
	require.True(t, found)
	assert.Contains(t, headers, "\r\nTo: ana@example.com")
	assert.Contains(t, headers, "Subject: Your daily coaching from GetFit")
	assert.Contains(t, body, "<p>Great week!</p>")
	assert.Contains(t, body, "&lt;b&gt;two&lt;/b&gt;")
}

func TestNotifyCoachingWrapsErrors(t *testing.T) {
	s, _ := newCapturingSender(errors.New("relay down"))
	err := s.NotifyCoaching(context.Background(), models.CoachingJob{UserID: "u1", Email: "u1@example.com"}, models.CoachingAdvice{Advice: "Rest."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
}

func TestSendLiveEmail(t *testing.T) {
	_ = godotenv.Load("../../../../.env")
	sender, password, to := os.Getenv("SMTP_EMAIL"), os.Getenv("SMTP_PASSWORD"), os.Getenv("SMTP_TEST_RECIPIENT")
	if sender == "" || password == "" || to == "" {
		t.Skip("SMTP credentials not set")
	}

	s := NewSender(sender, password)
	require.NoError(t, s.Ping())
	assert.NoError(t, s.SendCoachingDigest(to, "This is a test digest."))
}
