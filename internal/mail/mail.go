// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

// Package mail provides outbound email delivery for the identity service.
package mail

import (
	"context"

	"github.com/samber/oops"
)

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, recipient, subject, htmlBody string) error
}

// Config selects and configures a delivery provider.
type Config struct {
	Provider string        `koanf:"provider"`
	SMTP     SMTPConfig    `koanf:"smtp"`
	Mailgun  MailgunConfig `koanf:"mailgun"`
}

// NewSender creates a Sender for the configured provider.
func NewSender(cfg Config) (Sender, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg.SMTP)
	case "mailgun":
		return NewMailgunSender(cfg.Mailgun)
	default:
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("provider", cfg.Provider).
			Errorf("unknown mail provider: %q", cfg.Provider)
	}
}
