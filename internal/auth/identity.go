// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import (
	"context"
	"net/mail"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// RoleUser is the role assigned to every identity created through
// registration. Elevated roles are provisioned out of band.
const RoleUser = "user"

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Identity represents a user account. PasswordHash is opaque and is never
// serialized outward.
type Identity struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewIdentity creates a validated Identity with the given credentials.
// The ID is zero until the identity is persisted.
func NewIdentity(username, email, passwordHash, role string) (*Identity, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if role == "" {
		role = RoleUser
	}

	now := time.Now()
	return &Identity{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Wrap(err)
	}
	return nil
}

// UserRepository manages identity persistence.
type UserRepository interface {
	// Create stores a new identity and fills in its generated ID.
	// Returns ErrConflict (wrapped) if the email or username is taken.
	Create(ctx context.Context, identity *Identity) error

	// GetByID retrieves an identity by ID.
	GetByID(ctx context.Context, id int64) (*Identity, error)

	// GetByEmail retrieves an identity by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	// UpdatePassword updates only the password hash for an identity.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
