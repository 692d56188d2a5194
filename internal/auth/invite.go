// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// InviteCode gates account creation with a shared opaque code. Codes have
// no owner, no expiry, and no use counter; provisioning is external.
type InviteCode struct {
	ID        int64
	Code      string
	CreatedAt time.Time
}

// InviteRepository manages invite code persistence. The core only reads
// codes, and deletes them when the gate runs in single-use mode.
type InviteRepository interface {
	// GetByCode retrieves an invite code by its code string.
	GetByCode(ctx context.Context, code string) (*InviteCode, error)

	// Delete removes an invite code.
	Delete(ctx context.Context, code string) error
}

// InviteGate checks invite codes before registration is permitted.
//
// Whether redeeming consumes the code is an explicit policy choice:
// shared-org invites are reusable, personal invites are single-use. The
// default matches the reusable behavior. The gate holds only the policy;
// callers pass the repository so the check and the consumption run on the
// same transaction as the registration they admit.
type InviteGate struct {
	singleUse bool
}

// NewInviteGate creates an InviteGate. When singleUse is true, Consume
// removes the code after a successful registration.
func NewInviteGate(singleUse bool) *InviteGate {
	return &InviteGate{singleUse: singleUse}
}

// Redeemable reports whether a matching invite code exists. A missing code
// is a plain non-match, not an error.
func (g *InviteGate) Redeemable(ctx context.Context, invites InviteRepository, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	_, err := invites.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, oops.Code("INVITE_CHECK_FAILED").
			With("operation", "get invite by code").
			Wrap(err)
	}
	return true, nil
}

// Consume applies the consumption policy after a successful registration.
// Under the reusable policy this is a no-op. In single-use mode a zero-row
// delete means a concurrent registration consumed the code between this
// transaction's check and its commit; that aborts the enclosing
// transaction so a single-use code admits exactly one account.
func (g *InviteGate) Consume(ctx context.Context, invites InviteRepository, code string) error {
	if !g.singleUse {
		return nil
	}
	if err := invites.Delete(ctx, code); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_INVITE_INVALID").
				With("operation", "consume invite").
				Wrap(ErrNotFound)
		}
		return oops.Code("INVITE_CONSUME_FAILED").
			With("operation", "delete invite").
			Wrap(err)
	}
	return nil
}
