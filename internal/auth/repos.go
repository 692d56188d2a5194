// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import "context"

// Repositories bundles the persistent record stores the core consumes.
type Repositories interface {
	Users() UserRepository
	Invites() InviteRepository
	Resets() ResetTokenRepository
}

// TxManager runs a function against transaction-scoped repositories. The
// transaction commits when fn returns nil and rolls back otherwise,
// providing atomicity across read-check-then-write sequences such as
// register's check-then-insert and confirm's lookup-then-delete-then-update.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
