// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth_test

import (
	"context"
	"strings"
	"time"

	"github.com/nativetranslate/identity/internal/auth"
)

// memUserRepo is an in-memory UserRepository with injectable failures.
type memUserRepo struct {
	identities []*auth.Identity
	nextID     int64

	createErr         error
	getByEmailErr     error
	getByIDErr        error
	updatePasswordErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1}
}

func (m *memUserRepo) add(identity *auth.Identity) *auth.Identity {
	identity.ID = m.nextID
	m.nextID++
	m.identities = append(m.identities, identity)
	return identity
}

func (m *memUserRepo) Create(_ context.Context, identity *auth.Identity) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.identities {
		if strings.EqualFold(existing.Email, identity.Email) || existing.Username == identity.Username {
			return auth.ErrConflict
		}
	}
	m.add(identity)
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id int64) (*auth.Identity, error) {
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}
	for _, identity := range m.identities {
		if identity.ID == id {
			return identity, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*auth.Identity, error) {
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	for _, identity := range m.identities {
		if strings.EqualFold(identity.Email, email) {
			return identity, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	for _, identity := range m.identities {
		if identity.ID == id {
			identity.PasswordHash = hash
			return nil
		}
	}
	return auth.ErrNotFound
}

// memInviteRepo is an in-memory InviteRepository.
type memInviteRepo struct {
	codes   map[string]*auth.InviteCode
	getErr  error
	delErr  error
	deleted []string
}

func newMemInviteRepo(codes ...string) *memInviteRepo {
	repo := &memInviteRepo{codes: make(map[string]*auth.InviteCode)}
	for i, code := range codes {
		repo.codes[code] = &auth.InviteCode{ID: int64(i + 1), Code: code, CreatedAt: time.Now()}
	}
	return repo
}

func (m *memInviteRepo) GetByCode(_ context.Context, code string) (*auth.InviteCode, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	invite, ok := m.codes[code]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return invite, nil
}

func (m *memInviteRepo) Delete(_ context.Context, code string) error {
	if m.delErr != nil {
		return m.delErr
	}
	if _, ok := m.codes[code]; !ok {
		return auth.ErrNotFound
	}
	delete(m.codes, code)
	m.deleted = append(m.deleted, code)
	return nil
}

// memResetRepo is an in-memory ResetTokenRepository.
type memResetRepo struct {
	tokens []*auth.ResetToken
	nextID int64

	createErr        error
	getErr           error
	deleteByEmailErr error
	deleteExpiredErr error

	// failDeleteByEmailFrom makes DeleteByEmail fail starting with the
	// call of this 1-based index. Zero disables it.
	failDeleteByEmailFrom int
	failDeleteByEmailWith error

	deleteByEmailCalls []string
}

func newMemResetRepo() *memResetRepo {
	return &memResetRepo{nextID: 1}
}

func (m *memResetRepo) Create(_ context.Context, token *auth.ResetToken) error {
	if m.createErr != nil {
		return m.createErr
	}
	token.ID = m.nextID
	m.nextID++
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *memResetRepo) GetByToken(_ context.Context, token string) (*auth.ResetToken, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, reset := range m.tokens {
		if reset.Token == token {
			return reset, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memResetRepo) DeleteByEmail(_ context.Context, email string) error {
	m.deleteByEmailCalls = append(m.deleteByEmailCalls, email)
	if m.deleteByEmailErr != nil {
		return m.deleteByEmailErr
	}
	if m.failDeleteByEmailFrom > 0 && len(m.deleteByEmailCalls) >= m.failDeleteByEmailFrom {
		return m.failDeleteByEmailWith
	}
	kept := m.tokens[:0]
	for _, reset := range m.tokens {
		if !strings.EqualFold(reset.Email, email) {
			kept = append(kept, reset)
		}
	}
	m.tokens = kept
	return nil
}

func (m *memResetRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	if m.deleteExpiredErr != nil {
		return 0, m.deleteExpiredErr
	}
	var deleted int64
	kept := m.tokens[:0]
	for _, reset := range m.tokens {
		if reset.ExpiresAt.Before(now) {
			deleted++
			continue
		}
		kept = append(kept, reset)
	}
	m.tokens = kept
	return deleted, nil
}

// memStore bundles the in-memory repositories and acts as both the
// Repositories and TxManager dependency. WithinTx just runs the function
// against the same store, optionally failing first.
type memStore struct {
	users   *memUserRepo
	invites *memInviteRepo
	resets  *memResetRepo
	txErr   error
}

func newMemStore() *memStore {
	return &memStore{
		users:   newMemUserRepo(),
		invites: newMemInviteRepo(),
		resets:  newMemResetRepo(),
	}
}

func (s *memStore) Users() auth.UserRepository        { return s.users }
func (s *memStore) Invites() auth.InviteRepository    { return s.invites }
func (s *memStore) Resets() auth.ResetTokenRepository { return s.resets }

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos auth.Repositories) error) error {
	if s.txErr != nil {
		return s.txErr
	}
	return fn(ctx, s)
}

// stubHasher hashes by prefixing, making verification trivially checkable.
type stubHasher struct {
	hashErr   error
	verifyErr error

	verifyCalls []string // hashes verified against, in order
}

func (h *stubHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	if password == "" {
		return "", auth.ErrEmptyPassword
	}
	return "hashed:" + password, nil
}

func (h *stubHasher) Verify(password, hash string) (bool, error) {
	h.verifyCalls = append(h.verifyCalls, hash)
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	return hash == "hashed:"+password, nil
}

// stubMailer records deliveries and can be made to fail.
type stubMailer struct {
	err  error
	sent []sentMail
}

type sentMail struct {
	email string
	token string
}

func (m *stubMailer) SendResetToken(_ context.Context, email, token string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{email: email, token: token})
	return nil
}
