// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativetranslate/identity/internal/auth"
	"github.com/nativetranslate/identity/pkg/errutil"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "alice", false},
		{"valid with numbers", "alice42", false},
		{"valid with underscore", "alice_b", false},
		{"valid minimum length", "abc", false},
		{"valid maximum length", "a" + strings.Repeat("b", 29), false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", "a" + strings.Repeat("b", 30), true},
		{"starts with number", "1alice", true},
		{"starts with underscore", "_alice", true},
		{"contains hyphen", "alice-b", true},
		{"contains space", "alice b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "alice@example.com", false},
		{"valid with plus", "alice+tag@example.com", false},
		{"empty", "", true},
		{"missing at", "aliceexample.com", true},
		{"missing domain", "alice@", true},
		{"spaces", "alice @example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewIdentity(t *testing.T) {
	t.Run("valid identity", func(t *testing.T) {
		identity, err := auth.NewIdentity("alice", "alice@example.com", "somehash", auth.RoleUser)
		require.NoError(t, err)
		assert.Zero(t, identity.ID)
		assert.Equal(t, "alice", identity.Username)
		assert.Equal(t, "alice@example.com", identity.Email)
		assert.Equal(t, auth.RoleUser, identity.Role)
		assert.False(t, identity.CreatedAt.IsZero())
	})

	t.Run("empty role defaults to user", func(t *testing.T) {
		identity, err := auth.NewIdentity("alice", "alice@example.com", "somehash", "")
		require.NoError(t, err)
		assert.Equal(t, auth.RoleUser, identity.Role)
	})

	t.Run("invalid username", func(t *testing.T) {
		_, err := auth.NewIdentity("a", "alice@example.com", "somehash", auth.RoleUser)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := auth.NewIdentity("alice", "not-an-email", "somehash", auth.RoleUser)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
	})

	t.Run("empty hash", func(t *testing.T) {
		_, err := auth.NewIdentity("alice", "alice@example.com", "", auth.RoleUser)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})
}
