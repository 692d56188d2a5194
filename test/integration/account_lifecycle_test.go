// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

//go:build integration

package integration

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/nativetranslate/identity/internal/auth"
	"github.com/nativetranslate/identity/pkg/errutil"
)

var _ = Describe("Account lifecycle", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		resetTables(ctx)
		seedInvite(ctx, "WELCOME")
	})

	Describe("Register", func() {
		It("creates an identity and returns a verifiable session token", func() {
			token, err := env.svc.Register(ctx, "WELCOME", "alice@example.com", "alice", "secret123")
			Expect(err).NotTo(HaveOccurred())

			claims, err := env.codec.Verify(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Role).To(Equal("user"))

			identity, err := env.store.Users().GetByEmail(ctx, "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.Username).To(Equal("alice"))
			Expect(identity.PasswordHash).NotTo(ContainSubstring("secret123"))
		})

		It("rejects an unknown invite code", func() {
			_, err := env.svc.Register(ctx, "NOPE", "alice@example.com", "alice", "secret123")
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_INVITE_INVALID"))
		})

		It("leaves a reusable invite code in place", func() {
			_, err := env.svc.Register(ctx, "WELCOME", "alice@example.com", "alice", "secret123")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.svc.Register(ctx, "WELCOME", "bob@example.com", "bob", "secret123")
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a duplicate email regardless of case", func() {
			_, err := env.svc.Register(ctx, "WELCOME", "alice@example.com", "alice", "secret123")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.svc.Register(ctx, "WELCOME", "ALICE@example.com", "alice2", "secret123")
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_CONFLICT"))
		})

		It("rejects a duplicate username", func() {
			_, err := env.svc.Register(ctx, "WELCOME", "alice@example.com", "alice", "secret123")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.svc.Register(ctx, "WELCOME", "other@example.com", "alice", "secret123")
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_CONFLICT"))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, err := env.svc.Register(ctx, "WELCOME", "alice@example.com", "alice", "secret123")
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns a token for valid credentials", func() {
			result, err := env.svc.Login(ctx, "", "alice@example.com", "secret123")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AlreadyAuthenticated).To(BeFalse())

			_, err = env.codec.Verify(result.Token)
			Expect(err).NotTo(HaveOccurred())
		})

		It("accepts a differently-cased email", func() {
			result, err := env.svc.Login(ctx, "", "ALICE@EXAMPLE.COM", "secret123")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Token).NotTo(BeEmpty())
		})

		It("rejects a wrong password", func() {
			_, err := env.svc.Login(ctx, "", "alice@example.com", "wrong")
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_INVALID_CREDENTIALS"))
		})

		It("rejects an unknown email with the same error", func() {
			_, err := env.svc.Login(ctx, "", "ghost@example.com", "secret123")
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_INVALID_CREDENTIALS"))
		})

		It("short-circuits when the request already carries a valid session", func() {
			first, err := env.svc.Login(ctx, "", "alice@example.com", "secret123")
			Expect(err).NotTo(HaveOccurred())

			second, err := env.svc.Login(ctx, auth.BearerPrefix+first.Token, "alice@example.com", "secret123")
			Expect(err).NotTo(HaveOccurred())
			Expect(second.AlreadyAuthenticated).To(BeTrue())
			Expect(second.Token).To(BeEmpty())
		})
	})

	Describe("Validate and Logout", func() {
		It("accepts a live session and rejects its absence", func() {
			_, err := env.svc.Register(ctx, "WELCOME", "alice@example.com", "alice", "secret123")
			Expect(err).NotTo(HaveOccurred())

			result, err := env.svc.Login(ctx, "", "alice@example.com", "secret123")
			Expect(err).NotTo(HaveOccurred())
			header := auth.BearerPrefix + result.Token

			Expect(env.svc.Validate(ctx, header)).To(Succeed())
			Expect(env.svc.Logout(ctx, header)).To(Succeed())

			Expect(errutil.ErrorCode(env.svc.Validate(ctx, ""))).To(Equal("AUTH_NOT_AUTHENTICATED"))
			Expect(errutil.ErrorCode(env.svc.Logout(ctx, "garbage"))).To(Equal("AUTH_NOT_AUTHENTICATED"))
		})
	})
})
