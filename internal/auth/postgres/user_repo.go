// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/nativetranslate/identity/internal/auth"
)

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new identity and fills in its generated ID. A unique
// violation on email or username surfaces as auth.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, identity *auth.Identity) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		identity.Username,
		identity.Email,
		identity.PasswordHash,
		identity.Role,
		identity.CreatedAt,
		identity.UpdatedAt,
	).Scan(&identity.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_CONFLICT").
				With("username", identity.Username).
				Wrap(auth.ErrConflict)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", identity.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an identity by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	identity, err := r.scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return identity, nil
}

// GetByEmail retrieves an identity by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	identity, err := r.scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return identity, nil
}

// UpdatePassword updates only the password hash for an identity.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id, passwordHash, time.Now())
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanIdentity scans a single row into an Identity.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *UserRepository) scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var identity auth.Identity
	err := row.Scan(
		&identity.ID,
		&identity.Username,
		&identity.Email,
		&identity.PasswordHash,
		&identity.Role,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}
	return &identity, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
