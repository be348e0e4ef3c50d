// Package email delivers verification mail through an SMTP relay.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string // Public base URL used to build verification links
}

// Mailer sends account emails over SMTP.
type Mailer struct {
	cfg Config
}

// NewMailer creates a Mailer. Host and From are required.
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Mailer{cfg: cfg}, nil
}

// SendVerification emails the verification link for the given token.
func (m *Mailer) SendVerification(ctx context.Context, to, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", m.cfg.BaseURL, token)

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject("Verify your Email")
	msg.SetBodyString(mail.TypeTextHTML, fmt.Sprintf(
		"<h2>Welcome!</h2><p>Click the link below to verify your email:</p><a href=%q>%s</a>",
		verifyURL, verifyURL,
	))

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
