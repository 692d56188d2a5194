// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	// DefaultResetTokenLength is the generated token width. The token is
	// the bearer secret itself, so the default is wide; deployments that
	// need short human-typable codes can configure it down.
	DefaultResetTokenLength = 32

	// DefaultResetTokenAlphabet is the character set tokens are drawn from.
	DefaultResetTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultResetTokenTTL is the reset token lifetime.
	DefaultResetTokenTTL = time.Hour
)

// ResetToken proves control of an email address for password recovery.
// It is keyed by the owning email, not the identity id, so the row
// survives independently of the account record.
type ResetToken struct {
	ID        int64
	Email     string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewResetToken creates a validated ResetToken.
func NewResetToken(email, token string, expiresAt time.Time) (*ResetToken, error) {
	if email == "" {
		return nil, oops.Code("RESET_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if token == "" {
		return nil, oops.Code("RESET_INVALID_TOKEN").Errorf("token cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("RESET_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &ResetToken{
		Email:     email,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpiredAt reports whether the token is expired at the given instant.
// A token expires exactly at its expiration instant: confirm fails at and
// after ExpiresAt.
func (r *ResetToken) IsExpiredAt(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}

// GenerateResetToken draws a random token of the given length from the
// given alphabet using crypto/rand. Zero length or an empty alphabet fall
// back to the defaults.
func GenerateResetToken(length int, alphabet string) (string, error) {
	if length <= 0 {
		length = DefaultResetTokenLength
	}
	if alphabet == "" {
		alphabet = DefaultResetTokenAlphabet
	}
	if len(alphabet) > 256 {
		return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Errorf("alphabet too large: %d", len(alphabet))
	}

	// Rejection sampling keeps the draw uniform over the alphabet.
	max := byte(256 - 256%len(alphabet))
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
		}
		for _, b := range buf {
			if max != 0 && b >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// ResetTokenRepository manages reset token persistence.
type ResetTokenRepository interface {
	// Create stores a new reset token.
	Create(ctx context.Context, token *ResetToken) error

	// GetByToken retrieves a reset token by its token string.
	GetByToken(ctx context.Context, token string) (*ResetToken, error)

	// DeleteByEmail removes all reset tokens for an email. Deleting zero
	// rows is a valid outcome, not ErrNotFound.
	DeleteByEmail(ctx context.Context, email string) error

	// DeleteExpired removes all tokens whose expiry is strictly before
	// now and returns the count of deleted rows.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
