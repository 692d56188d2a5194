// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package mail

import (
	"context"
	"embed"
	"regexp"
	"strings"
	"sync"

	"github.com/samber/oops"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ResetSubject is the subject line of the password reset email.
const ResetSubject = "Password Reset on NativeTranslate"

var (
	collapseWhitespace = regexp.MustCompile(`\s+`)

	templateOnce  sync.Once
	templateCache map[string]string
	templateErr   error
)

// renderTemplate loads an embedded template, minifies it, and substitutes
// %key% placeholders. Template contents are cached after the first load;
// the embedded FS is immutable at runtime.
func renderTemplate(name string, replacements map[string]string) (string, error) {
	templateOnce.Do(func() {
		templateCache = make(map[string]string)
		entries, err := templatesFS.ReadDir("templates")
		if err != nil {
			templateErr = oops.Code("MAIL_TEMPLATE_MISSING").Wrap(err)
			return
		}
		for _, entry := range entries {
			raw, err := templatesFS.ReadFile("templates/" + entry.Name())
			if err != nil {
				templateErr = oops.Code("MAIL_TEMPLATE_MISSING").With("template", entry.Name()).Wrap(err)
				return
			}
			minified := collapseWhitespace.ReplaceAllString(string(raw), " ")
			minified = strings.ReplaceAll(minified, "> <", "><")
			templateCache[entry.Name()] = minified
		}
	})
	if templateErr != nil {
		return "", templateErr
	}

	body, ok := templateCache[name]
	if !ok {
		return "", oops.Code("MAIL_TEMPLATE_MISSING").
			With("template", name).
			Errorf("template not found: %s", name)
	}
	for key, value := range replacements {
		body = strings.ReplaceAll(body, "%"+key+"%", value)
	}
	return body, nil
}

// ResetMailer renders and sends password reset emails. It implements
// auth.ResetMailer.
type ResetMailer struct {
	sender   Sender
	resetURL string
}

// NewResetMailer creates a ResetMailer. resetURL is the reset-entry page
// the email links to.
func NewResetMailer(sender Sender, resetURL string) (*ResetMailer, error) {
	if sender == nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("sender is required")
	}
	if resetURL == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("reset URL is required")
	}
	return &ResetMailer{sender: sender, resetURL: resetURL}, nil
}

// SendResetToken mails the reset token and entry URL to the address.
func (m *ResetMailer) SendResetToken(ctx context.Context, email, token string) error {
	body, err := renderTemplate("reset-password.html", map[string]string{
		"code": token,
		"url":  m.resetURL,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, email, ResetSubject, body)
}
