package mailer

import (
	"github.com/naodludzie/backend/pkg/logger"
)

// DevMailer logs outgoing mail instead of delivering it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (m *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("DEV MAIL",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}
