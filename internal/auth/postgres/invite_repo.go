// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/nativetranslate/identity/internal/auth"
)

// InviteRepository implements auth.InviteRepository using PostgreSQL.
type InviteRepository struct {
	db DB
}

// NewInviteRepository creates a new InviteRepository.
func NewInviteRepository(db DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// GetByCode retrieves an invite code by its code string.
func (r *InviteRepository) GetByCode(ctx context.Context, code string) (*auth.InviteCode, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, code, created_at
		FROM invite_codes
		WHERE code = $1
	`, code)

	var invite auth.InviteCode
	err := row.Scan(&invite.ID, &invite.Code, &invite.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("INVITE_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("INVITE_GET_FAILED").
			With("operation", "get invite by code").
			Wrap(err)
	}
	return &invite, nil
}

// Delete removes an invite code.
func (r *InviteRepository) Delete(ctx context.Context, code string) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM invite_codes WHERE code = $1
	`, code)
	if err != nil {
		return oops.Code("INVITE_DELETE_FAILED").
			With("operation", "delete invite").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("INVITE_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// Compile-time interface check.
var _ auth.InviteRepository = (*InviteRepository)(nil)
