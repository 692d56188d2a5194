// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/nativetranslate/identity/internal/auth"
)

// ResetTokenRepository implements auth.ResetTokenRepository using PostgreSQL.
type ResetTokenRepository struct {
	db DB
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(db DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Create stores a new reset token.
func (r *ResetTokenRepository) Create(ctx context.Context, token *auth.ResetToken) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO password_resets (email, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, token.Email, token.Token, token.ExpiresAt, token.CreatedAt).Scan(&token.ID)
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "insert password_reset").
			With("email", token.Email).
			Wrap(err)
	}
	return nil
}

// GetByToken retrieves a reset token by its token string.
func (r *ResetTokenRepository) GetByToken(ctx context.Context, token string) (*auth.ResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, token, expires_at, created_at
		FROM password_resets
		WHERE token = $1
	`, token)

	var reset auth.ResetToken
	err := row.Scan(&reset.ID, &reset.Email, &reset.Token, &reset.ExpiresAt, &reset.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_SCAN_FAILED").
			With("operation", "scan password_reset").
			Wrap(err)
	}
	return &reset, nil
}

// DeleteByEmail removes all reset tokens for an email.
func (r *ResetTokenRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM password_resets WHERE LOWER(email) = LOWER($1)
	`, email)
	if err != nil {
		return oops.Code("RESET_DELETE_BY_EMAIL_FAILED").
			With("operation", "delete password_resets by email").
			Wrap(err)
	}
	// No ErrNotFound when zero rows matched - that's a valid state.
	return nil
}

// DeleteExpired removes all tokens expiring strictly before now and
// returns the count.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM password_resets WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, oops.Code("RESET_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired password_resets").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.ResetTokenRepository = (*ResetTokenRepository)(nil)
