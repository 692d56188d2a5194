// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	// DefaultSessionTTL is the session token lifetime.
	DefaultSessionTTL = 6 * time.Hour

	// BearerPrefix is the scheme prefix on the Authorization header.
	BearerPrefix = "Bearer "
)

// ErrTokenInvalid is the single coarse outcome for any unusable session
// token: malformed input, bad signature, or expiry. Callers must not
// branch on which of these occurred.
var ErrTokenInvalid = errors.New("invalid session token")

// SessionClaims are the claims embedded in a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	IdentityID int64  `json:"id"`
	Role       string `json:"role"`
}

// SessionCodec signs and verifies stateless session tokens. Tokens are
// self-contained: verification is a pure function of the token, the clock,
// and the signing secret, with no server-side revocation list.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	users  UserRepository
	now    func() time.Time
}

// NewSessionCodec creates a SessionCodec. The users repository is used by
// ResolveIdentity to load the account behind a verified token.
func NewSessionCodec(secret []byte, ttl time.Duration, users UserRepository) (*SessionCodec, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_SECRET_EMPTY").Errorf("signing secret is required")
	}
	if users == nil {
		return nil, oops.Code("TOKEN_CODEC_INVALID").Errorf("users repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionCodec{
		secret: secret,
		ttl:    ttl,
		users:  users,
		now:    time.Now,
	}, nil
}

// WithClock overrides the codec's time source. Intended for tests.
func (c *SessionCodec) WithClock(now func() time.Time) *SessionCodec {
	c.now = now
	return c
}

// Issue signs a session token carrying the identity's id and role, expiring
// at now + TTL. Re-issuing does not invalidate previously issued tokens.
func (c *SessionCodec) Issue(identity *Identity) (string, error) {
	if identity == nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").Errorf("identity is required")
	}

	now := c.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		IdentityID: identity.ID,
		Role:       identity.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its claims.
// Every failure mode collapses into ErrTokenInvalid.
func (c *SessionCodec) Verify(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IsAuthenticated reports whether the Authorization header carries a
// currently valid session token with the expected scheme prefix.
func (c *SessionCodec) IsAuthenticated(header string) bool {
	token, ok := stripBearer(header)
	if !ok {
		return false
	}
	_, err := c.Verify(token)
	return err == nil
}

// ResolveIdentity verifies the Authorization header and loads the identity
// named by its id claim. A validly signed token whose account no longer
// exists yields ErrNotFound: account deletion does not invalidate tokens.
func (c *SessionCodec) ResolveIdentity(ctx context.Context, header string) (*Identity, error) {
	token, ok := stripBearer(header)
	if !ok {
		return nil, ErrTokenInvalid
	}
	claims, err := c.Verify(token)
	if err != nil {
		return nil, err
	}

	identity, err := c.users.GetByID(ctx, claims.IdentityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_IDENTITY_GONE").
				With("identity_id", claims.IdentityID).
				Wrap(ErrNotFound)
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get identity by id").
			Wrap(err)
	}
	return identity, nil
}

// stripBearer strips the "Bearer " scheme prefix from an Authorization
// header. Returns ("", false) if the header is empty or the prefix is
// missing.
func stripBearer(header string) (string, bool) {
	if header == "" || !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := header[len(BearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}
