// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/samber/oops"
)

// SMTPConfig configures plain SMTP delivery.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// SMTPSender implements Sender over net/smtp.
type SMTPSender struct {
	cfg SMTPConfig
	// send is swapped in tests; production uses smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == "" || cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host, port, and from are required")
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}, nil
}

// Send delivers the message through the configured SMTP relay.
func (s *SMTPSender) Send(_ context.Context, recipient, subject, htmlBody string) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.From, recipient, subject, htmlBody,
	)

	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := s.send(addr, auth, s.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		return oops.Code("MAIL_DELIVERY_FAILED").
			With("provider", "smtp").
			Wrap(err)
	}
	return nil
}
