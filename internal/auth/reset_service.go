// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// ResetMailer delivers a freshly issued reset token to its owner.
type ResetMailer interface {
	SendResetToken(ctx context.Context, email, token string) error
}

// ResetConfig tunes reset token generation and lifetime. Zero values fall
// back to the package defaults.
type ResetConfig struct {
	TokenLength   int
	TokenAlphabet string
	TokenTTL      time.Duration
}

func (c ResetConfig) ttl() time.Duration {
	if c.TokenTTL <= 0 {
		return DefaultResetTokenTTL
	}
	return c.TokenTTL
}

// PasswordResetService owns the reset token lifecycle: issue on request,
// consume on confirm, and the single-valid-token-per-email invariant.
// The invariant is enforced by unconditionally deleting all rows for an
// email before inserting a new one, so a new request silently invalidates
// any earlier token.
type PasswordResetService struct {
	repos  Repositories
	tx     TxManager
	hasher PasswordHasher
	mailer ResetMailer
	cfg    ResetConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewPasswordResetService creates a PasswordResetService.
func NewPasswordResetService(
	repos Repositories,
	tx TxManager,
	hasher PasswordHasher,
	mailer ResetMailer,
	cfg ResetConfig,
) (*PasswordResetService, error) {
	svc, err := NewPasswordResetServiceWithLogger(repos, tx, hasher, mailer, cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// NewPasswordResetServiceWithLogger creates a PasswordResetService with an
// explicit logger.
func NewPasswordResetServiceWithLogger(
	repos Repositories,
	tx TxManager,
	hasher PasswordHasher,
	mailer ResetMailer,
	cfg ResetConfig,
	logger *slog.Logger,
) (*PasswordResetService, error) {
	if repos == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("repositories are required")
	}
	if tx == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("transaction manager is required")
	}
	if hasher == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if mailer == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("reset mailer is required")
	}
	if logger == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("logger is required")
	}
	return &PasswordResetService{
		repos:  repos,
		tx:     tx,
		hasher: hasher,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// WithClock overrides the service's time source. Intended for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// RequestReset issues a reset token for the identity owning the email and
// mails it out. Any previously issued token for that email is invalidated
// first. If delivery fails, the freshly persisted token is rolled back so
// no undelivered secret stays usable, and the delivery error is surfaced.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	if _, err := s.repos.Users().GetByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_IDENTITY_NOT_FOUND").Wrap(ErrNotFound)
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get identity by email").
			Wrap(err)
	}

	token, err := GenerateResetToken(s.cfg.TokenLength, s.cfg.TokenAlphabet)
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate token").
			Wrap(err)
	}

	reset, err := NewResetToken(email, token, s.now().Add(s.cfg.ttl()))
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "build reset token").
			Wrap(err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Resets().DeleteByEmail(ctx, email); err != nil {
			return oops.Code("RESET_REQUEST_FAILED").
				With("operation", "delete previous tokens").
				Wrap(err)
		}
		if err := repos.Resets().Create(ctx, reset); err != nil {
			return oops.Code("RESET_REQUEST_FAILED").
				With("operation", "persist token").
				Wrap(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.mailer.SendResetToken(ctx, email, token); err != nil {
		// An undelivered token must not stay redeemable. Rollback is
		// best effort; a leftover row still expires and gets swept.
		if delErr := s.repos.Resets().DeleteByEmail(ctx, email); delErr != nil {
			s.logger.Warn("best-effort rollback of undelivered reset token failed",
				"operation", "delete_tokens",
				"error", delErr.Error(),
			)
		}
		return oops.Code("RESET_DELIVERY_FAILED").
			With("operation", "send reset email").
			Wrap(err)
	}

	return nil
}

// Confirm redeems a reset token and sets a new password on the owning
// identity. An absent token and an expired one yield the same coarse
// outcome so callers cannot probe which it was.
func (s *PasswordResetService) Confirm(ctx context.Context, token, newPassword string) (*Identity, error) {
	if newPassword == "" {
		return nil, oops.Code("RESET_PASSWORD_EMPTY").Errorf("new password cannot be empty")
	}
	if token == "" {
		return nil, oops.Code("RESET_TOKEN_INVALID").Wrap(ErrNotFound)
	}

	var identity *Identity
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		reset, err := repos.Resets().GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return oops.Code("RESET_TOKEN_INVALID").Wrap(ErrNotFound)
			}
			return oops.Code("RESET_CONFIRM_FAILED").
				With("operation", "get token").
				Wrap(err)
		}
		if reset.IsExpiredAt(s.now()) {
			return oops.Code("RESET_TOKEN_INVALID").Wrap(ErrNotFound)
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return oops.Code("RESET_CONFIRM_FAILED").
				With("operation", "hash password").
				Wrap(err)
		}

		identity, err = repos.Users().GetByEmail(ctx, reset.Email)
		if err != nil {
			// A token without its identity is store corruption, not a
			// user error. Fail hard.
			return oops.Code("RESET_IDENTITY_MISSING").
				With("email", reset.Email).
				Wrap(err)
		}

		if err := repos.Users().UpdatePassword(ctx, identity.ID, hash); err != nil {
			return oops.Code("RESET_CONFIRM_FAILED").
				With("operation", "update password").
				Wrap(err)
		}
		identity.PasswordHash = hash

		if err := repos.Resets().DeleteByEmail(ctx, reset.Email); err != nil {
			return oops.Code("RESET_CONFIRM_FAILED").
				With("operation", "delete token").
				Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// SweepExpired deletes every token whose expiry is strictly before now.
// Idempotent and safe to run concurrently with RequestReset and Confirm:
// the statements are independent and converge on no stale token surviving.
func (s *PasswordResetService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repos.Resets().DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, oops.Code("RESET_SWEEP_FAILED").Wrap(err)
	}
	return n, nil
}
