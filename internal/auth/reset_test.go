// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativetranslate/identity/internal/auth"
	"github.com/nativetranslate/identity/pkg/errutil"
)

func TestGenerateResetToken(t *testing.T) {
	t.Run("default length and alphabet", func(t *testing.T) {
		token, err := auth.GenerateResetToken(0, "")
		require.NoError(t, err)
		assert.Len(t, token, auth.DefaultResetTokenLength)
		for _, r := range token {
			assert.Contains(t, auth.DefaultResetTokenAlphabet, string(r))
		}
	})

	t.Run("custom length and alphabet", func(t *testing.T) {
		token, err := auth.GenerateResetToken(6, "ABC123")
		require.NoError(t, err)
		assert.Len(t, token, 6)
		for _, r := range token {
			assert.Contains(t, "ABC123", string(r))
		}
	})

	t.Run("successive tokens differ", func(t *testing.T) {
		token1, err := auth.GenerateResetToken(0, "")
		require.NoError(t, err)
		token2, err := auth.GenerateResetToken(0, "")
		require.NoError(t, err)
		assert.NotEqual(t, token1, token2)
	})

	t.Run("oversized alphabet rejected", func(t *testing.T) {
		_, err := auth.GenerateResetToken(6, strings.Repeat("a", 300))
		errutil.AssertErrorCode(t, err, "RESET_TOKEN_GENERATE_FAILED")
	})
}

func TestNewResetToken(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	t.Run("valid token", func(t *testing.T) {
		reset, err := auth.NewResetToken("alice@example.com", "TOKEN123", expiry)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", reset.Email)
		assert.Equal(t, "TOKEN123", reset.Token)
		assert.Equal(t, expiry, reset.ExpiresAt)
		assert.False(t, reset.CreatedAt.IsZero())
	})

	t.Run("empty email", func(t *testing.T) {
		_, err := auth.NewResetToken("", "TOKEN123", expiry)
		errutil.AssertErrorCode(t, err, "RESET_INVALID_EMAIL")
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := auth.NewResetToken("alice@example.com", "", expiry)
		errutil.AssertErrorCode(t, err, "RESET_INVALID_TOKEN")
	})

	t.Run("zero expiry", func(t *testing.T) {
		_, err := auth.NewResetToken("alice@example.com", "TOKEN123", time.Time{})
		errutil.AssertErrorCode(t, err, "RESET_INVALID_EXPIRY")
	})
}

func TestResetToken_IsExpiredAt(t *testing.T) {
	expiry := time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC)
	reset, err := auth.NewResetToken("alice@example.com", "TOKEN123", expiry)
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"well before expiry", expiry.Add(-time.Hour), false},
		{"just before expiry", expiry.Add(-time.Nanosecond), false},
		{"exactly at expiry", expiry, true},
		{"after expiry", expiry.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reset.IsExpiredAt(tt.at))
		})
	}
}
