// Package email delivers one-time passcodes out of band. Delivery is an
// external collaborator: registration persists the passcode first and a
// failed dispatch is logged, never surfaced to the registering client.
package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/momstretch/momstretch-server/internal/config"
	"github.com/rs/zerolog/log"
)

type Dispatcher interface {
	Send(ctx context.Context, recipient, code string) error
}

// SMTPDispatcher sends the passcode through the configured SMTP relay.
type SMTPDispatcher struct {
	host     string
	port     string
	account  string
	password string
	appName  string
}

var _ Dispatcher = (*SMTPDispatcher)(nil)

func NewSMTPDispatcher(cfg config.EnvConfig) *SMTPDispatcher {
	return &SMTPDispatcher{
		host:     cfg.GetSmtpHost(),
		port:     cfg.GetSmtpPort(),
		account:  cfg.GetSmtpAccount(),
		password: cfg.GetSmtpPassword(),
		appName:  cfg.GetAppName(),
	}
}

func (d *SMTPDispatcher) Send(_ context.Context, recipient, code string) error {
	auth := smtp.PlainAuth("", d.account, d.password, d.host)
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: Your verification code\r\n\r\n"+
		"Your %s verification code is %s. It expires in 10 minutes.\r\n",
		d.appName, d.account, recipient, d.appName, code)

	addr := d.host + ":" + d.port
	if err := smtp.SendMail(addr, auth, d.account, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogDispatcher writes the passcode to the log instead of sending mail.
// Used in development and tests.
type LogDispatcher struct{}

var _ Dispatcher = LogDispatcher{}

func (LogDispatcher) Send(_ context.Context, recipient, code string) error {
	log.Info().Str("recipient", recipient).Str("code", code).Msg("passcode dispatch (log only)")
	return nil
}
