package email

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/smtp"
	"sort"
	"strings"

	"github.com/jghoshh/getfit/backend/models"
)

const (
	smtpHost   = "smtp.gmail.com"
	smtpServer = smtpHost + ":587"
)

// Sender delivers coaching digests over SMTP.
type Sender struct {
	server    string
	auth      smtp.Auth
	fromEmail string
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSender builds a Sender that authenticates as sender against the Gmail
// SMTP relay.
func NewSender(sender, password string) *Sender {
	return &Sender{
		server:    smtpServer,
		auth:      smtp.PlainAuth("", sender, password, smtpHost),
		fromEmail: sender,
		send:      smtp.SendMail,
	}
}

// Ping dials the SMTP server to check that it is reachable.
func (s *Sender) Ping() error {
	c, err := smtp.Dial(s.server)
	if err != nil {
		return fmt.Errorf("cannot connect to the SMTP server: %w", err)
	}

	if err := c.Close(); err != nil {
		return fmt.Errorf("cannot close the SMTP connection: %w", err)
	}
	return nil
}

// SendCoachingDigest emails the day's coaching advice to one user.
func (s *Sender) SendCoachingDigest(to, advice string) error {
	message := buildMessage(s.fromEmail, to, "Your daily coaching from GetFit", digestBody(advice))

	if err := s.send(s.server, s.auth, s.fromEmail, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("coaching digest sent to %s", to)
	return nil
}

// NotifyCoaching has the shape of coaching.Notifier.
func (s *Sender) NotifyCoaching(_ context.Context, job models.CoachingJob, advice models.CoachingAdvice) error {
	return s.SendCoachingDigest(job.Email, advice.Advice)
}

func buildMessage(from, to, subject, body string) string {
	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"MIME-version": "1.0",
		"Content-Type": "text/html; charset=\"UTF-8\"",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

func digestBody(advice string) string {
	paragraphs := make([]string, 0)
	for _, p := range strings.Split(advice, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, "<p>"+html.EscapeString(p)+"</p>")
		}
	}

	return `
	<html>
		<head>
			<style>
				body {
					font-family: 'Lato', sans-serif;
					margin: 0;
					padding: 0;
				}
				.container {
					max-width: 600px;
					margin: 0 auto;
					padding: 10px;
				}
				p {
					line-height: 1.6;
				}
			</style>
		</head>
		<body>
			<div class="container">
				<h1>Good morning,</h1>
				` + strings.Join(paragraphs, "\n\t\t\t\t") + `
				<p>Keep moving. Francine</p>
			</div>
		</body>
	</html>
	`
}
