// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

//go:build integration

package integration

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/nativetranslate/identity/pkg/errutil"
)

var _ = Describe("Password reset", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		resetTables(ctx)
		seedInvite(ctx, "WELCOME")
		env.mailer.fail(nil)

		_, err := env.svc.Register(ctx, "WELCOME", "alice@example.com", "alice", "secret123")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("RequestReset", func() {
		It("persists a token and mails it", func() {
			Expect(env.resets.RequestReset(ctx, "alice@example.com")).To(Succeed())

			token := env.mailer.lastToken("alice@example.com")
			Expect(token).NotTo(BeEmpty())

			stored, err := env.store.Resets().GetByToken(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Email).To(Equal("alice@example.com"))
			Expect(stored.ExpiresAt).To(BeTemporally(">", time.Now()))
		})

		It("rejects an unknown email", func() {
			err := env.resets.RequestReset(ctx, "ghost@example.com")
			Expect(errutil.ErrorCode(err)).To(Equal("RESET_IDENTITY_NOT_FOUND"))
		})

		It("invalidates the previous token on a second request", func() {
			Expect(env.resets.RequestReset(ctx, "alice@example.com")).To(Succeed())
			first := env.mailer.lastToken("alice@example.com")

			Expect(env.resets.RequestReset(ctx, "alice@example.com")).To(Succeed())
			second := env.mailer.lastToken("alice@example.com")
			Expect(second).NotTo(Equal(first))

			_, err := env.store.Resets().GetByToken(ctx, first)
			Expect(err).To(HaveOccurred())

			_, err = env.store.Resets().GetByToken(ctx, second)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rolls the token back when delivery fails", func() {
			env.mailer.fail(errors.New("relay down"))

			err := env.resets.RequestReset(ctx, "alice@example.com")
			Expect(errutil.ErrorCode(err)).To(Equal("RESET_DELIVERY_FAILED"))

			var count int
			scanErr := env.pool.QueryRow(ctx,
				"SELECT count(*) FROM password_resets WHERE LOWER(email) = LOWER($1)",
				"alice@example.com",
			).Scan(&count)
			Expect(scanErr).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})

	Describe("Confirm", func() {
		var token string

		BeforeEach(func() {
			Expect(env.resets.RequestReset(ctx, "alice@example.com")).To(Succeed())
			token = env.mailer.lastToken("alice@example.com")
		})

		It("sets the new password and consumes the token", func() {
			identity, err := env.resets.Confirm(ctx, token, "newsecret")
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.Email).To(Equal("alice@example.com"))

			result, err := env.svc.Login(ctx, "", "alice@example.com", "newsecret")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Token).NotTo(BeEmpty())

			_, err = env.svc.Login(ctx, "", "alice@example.com", "secret123")
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_INVALID_CREDENTIALS"))
		})

		It("refuses to redeem the same token twice", func() {
			_, err := env.resets.Confirm(ctx, token, "newsecret")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.resets.Confirm(ctx, token, "another")
			Expect(errutil.ErrorCode(err)).To(Equal("RESET_TOKEN_INVALID"))
		})

		It("rejects an unknown token", func() {
			_, err := env.resets.Confirm(ctx, "NOPE", "newsecret")
			Expect(errutil.ErrorCode(err)).To(Equal("RESET_TOKEN_INVALID"))
		})

		It("rejects an expired token", func() {
			_, err := env.pool.Exec(ctx,
				"UPDATE password_resets SET expires_at = now() - interval '1 minute' WHERE token = $1",
				token,
			)
			Expect(err).NotTo(HaveOccurred())

			_, confirmErr := env.resets.Confirm(ctx, token, "newsecret")
			Expect(errutil.ErrorCode(confirmErr)).To(Equal("RESET_TOKEN_INVALID"))
		})
	})

	Describe("SweepExpired", func() {
		It("removes only expired tokens", func() {
			Expect(env.resets.RequestReset(ctx, "alice@example.com")).To(Succeed())
			live := env.mailer.lastToken("alice@example.com")

			_, err := env.pool.Exec(ctx,
				"INSERT INTO password_resets (email, token, expires_at) VALUES ($1, $2, now() - interval '1 hour')",
				"stale@example.com", "STALETOKEN",
			)
			Expect(err).NotTo(HaveOccurred())

			deleted, err := env.resets.SweepExpired(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(1)))

			_, err = env.store.Resets().GetByToken(ctx, live)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.store.Resets().GetByToken(ctx, "STALETOKEN")
			Expect(err).To(HaveOccurred())
		})
	})
})
