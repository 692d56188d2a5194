// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when no identity matches the email,
// so response time does not reveal whether the account exists. It is not a
// credential and can never match a real password.
//
//nolint:gosec // G101: intentionally fake hash for timing-attack prevention.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// LoginResult is the outcome of a login attempt. AlreadyAuthenticated is
// informational: the presented session was still valid, no new token was
// issued, and Token is empty.
type LoginResult struct {
	Token                string
	AlreadyAuthenticated bool
}

// Service composes the credential subsystem into the four user-facing
// operations: login, register, logout, and validate. It is stateless per
// request; every operation is terminal.
type Service struct {
	repos  Repositories
	tx     TxManager
	hasher PasswordHasher
	codec  *SessionCodec
	gate   *InviteGate
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(
	repos Repositories,
	tx TxManager,
	hasher PasswordHasher,
	codec *SessionCodec,
	gate *InviteGate,
) (*Service, error) {
	return NewServiceWithLogger(repos, tx, hasher, codec, gate, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(
	repos Repositories,
	tx TxManager,
	hasher PasswordHasher,
	codec *SessionCodec,
	gate *InviteGate,
	logger *slog.Logger,
) (*Service, error) {
	if repos == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("repositories are required")
	}
	if tx == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("transaction manager is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if codec == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session codec is required")
	}
	if gate == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("invite gate is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}
	return &Service{
		repos:  repos,
		tx:     tx,
		hasher: hasher,
		codec:  codec,
		gate:   gate,
		logger: logger,
	}, nil
}

// Login verifies credentials and issues a session token. A request that
// already carries a valid session short-circuits with an informational
// result. Unknown email and wrong password collapse into the same coarse
// failure so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, authHeader, email, password string) (*LoginResult, error) {
	if s.codec.IsAuthenticated(authHeader) {
		return &LoginResult{AlreadyAuthenticated: true}, nil
	}

	identity, lookupErr := s.repos.Users().GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	exists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get identity by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = identity.PasswordHash
		exists = true
	}

	// Always verify, against the dummy hash if need be, to keep response
	// time independent of account existence.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && exists {
		// A malformed stored digest counts as a non-match, not an oracle.
		s.logger.Warn("stored password hash failed verification",
			"operation", "verify_password",
			"identity_id", identity.ID,
			"error", verifyErr.Error(),
		)
	}

	if !exists || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid credentials")
	}

	token, err := s.codec.Issue(identity)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}
	return &LoginResult{Token: token}, nil
}

// Register creates an identity gated by an invite code and issues the
// first session token. The invite check, identity insert, and optional
// invite consumption commit as one transaction; a store uniqueness
// violation surfaces as ErrConflict.
func (s *Service) Register(ctx context.Context, inviteCode, email, username, password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	identity, err := NewIdentity(username, email, hash, RoleUser)
	if err != nil {
		return "", err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		ok, err := s.gate.Redeemable(ctx, repos.Invites(), inviteCode)
		if err != nil {
			return err
		}
		if !ok {
			return oops.Code("AUTH_INVITE_INVALID").Wrap(ErrNotFound)
		}

		if err := repos.Users().Create(ctx, identity); err != nil {
			if errors.Is(err, ErrConflict) {
				return oops.Code("AUTH_CONFLICT").
					With("operation", "create identity").
					Wrap(err)
			}
			return oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "create identity").
				Wrap(err)
		}

		return s.gate.Consume(ctx, repos.Invites(), inviteCode)
	})
	if err != nil {
		return "", err
	}

	token, err := s.codec.Issue(identity)
	if err != nil {
		return "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}
	return token, nil
}

// Logout acknowledges the end of a session. It fails when the request is
// not authenticated, and performs no server-side invalidation: stateless
// tokens remain valid until natural expiry.
func (s *Service) Logout(_ context.Context, authHeader string) error {
	if !s.codec.IsAuthenticated(authHeader) {
		return oops.Code("AUTH_NOT_AUTHENTICATED").Errorf("not logged in")
	}
	return nil
}

// Validate reports whether the presented token currently authenticates.
func (s *Service) Validate(_ context.Context, authHeader string) error {
	if !s.codec.IsAuthenticated(authHeader) {
		return oops.Code("AUTH_NOT_AUTHENTICATED").Errorf("not logged in")
	}
	return nil
}
