// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

// Package postgres provides PostgreSQL implementations of the auth
// repositories and the transaction boundary.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/nativetranslate/identity/internal/auth"
)

// DB is the subset of pgx querying shared by *pgxpool.Pool, pgx.Tx, and
// pgxmock pools, so repositories run unchanged inside transactions and
// under mocks.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txBeginner is the transaction-opening subset of *pgxpool.Pool, split out
// so Store can be mocked.
type txBeginner interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store bundles the auth repositories over a shared connection pool and
// implements auth.Repositories and auth.TxManager.
type Store struct {
	pool    txBeginner
	users   *UserRepository
	invites *InviteRepository
	resets  *ResetTokenRepository
}

// NewStore creates a Store over a pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return newStore(pool)
}

func newStore(pool txBeginner) *Store {
	return &Store{
		pool:    pool,
		users:   NewUserRepository(pool),
		invites: NewInviteRepository(pool),
		resets:  NewResetTokenRepository(pool),
	}
}

// Users returns the identity repository.
func (s *Store) Users() auth.UserRepository { return s.users }

// Invites returns the invite code repository.
func (s *Store) Invites() auth.InviteRepository { return s.invites }

// Resets returns the reset token repository.
func (s *Store) Resets() auth.ResetTokenRepository { return s.resets }

// WithinTx runs fn against transaction-scoped repositories. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos auth.Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return oops.Code("STORE_TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	scoped := &txRepos{
		users:   NewUserRepository(tx),
		invites: NewInviteRepository(tx),
		resets:  NewResetTokenRepository(tx),
	}
	if err := fn(ctx, scoped); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("STORE_TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// txRepos is the transaction-scoped view handed to WithinTx callbacks.
type txRepos struct {
	users   *UserRepository
	invites *InviteRepository
	resets  *ResetTokenRepository
}

func (r *txRepos) Users() auth.UserRepository        { return r.users }
func (r *txRepos) Invites() auth.InviteRepository    { return r.invites }
func (r *txRepos) Resets() auth.ResetTokenRepository { return r.resets }

// Compile-time interface checks.
var (
	_ auth.Repositories = (*Store)(nil)
	_ auth.TxManager    = (*Store)(nil)
)
