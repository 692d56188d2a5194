// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package mail

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/samber/oops"
)

// mailgunSendTimeout bounds a single delivery attempt.
const mailgunSendTimeout = 30 * time.Second

// MailgunConfig configures Mailgun delivery.
type MailgunConfig struct {
	Domain string `koanf:"domain"`
	APIKey string `koanf:"api_key"`
	From   string `koanf:"from"`
}

// MailgunSender implements Sender over the Mailgun API.
type MailgunSender struct {
	cfg MailgunConfig
	mg  mailgun.Mailgun
}

// NewMailgunSender creates a MailgunSender.
func NewMailgunSender(cfg MailgunConfig) (*MailgunSender, error) {
	if cfg.Domain == "" || cfg.APIKey == "" || cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("mailgun domain, api_key, and from are required")
	}
	return &MailgunSender{cfg: cfg, mg: mailgun.NewMailgun(cfg.Domain, cfg.APIKey)}, nil
}

// Send delivers the message through Mailgun.
func (s *MailgunSender) Send(ctx context.Context, recipient, subject, htmlBody string) error {
	ctx, cancel := context.WithTimeout(ctx, mailgunSendTimeout)
	defer cancel()

	message := s.mg.NewMessage(s.cfg.From, subject, "", recipient)
	message.SetHtml(htmlBody)

	if _, _, err := s.mg.Send(ctx, message); err != nil {
		return oops.Code("MAIL_DELIVERY_FAILED").
			With("provider", "mailgun").
			Wrap(err)
	}
	return nil
}
