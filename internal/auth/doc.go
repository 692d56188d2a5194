// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

// Package auth implements the credential and access-token lifecycle for
// NativeTranslate.
//
// # Domain Types
//
// Domain types (Identity, InviteCode, ResetToken) should be created using
// their respective constructors:
//   - NewIdentity - creates an Identity with validated username and email
//   - NewResetToken - creates a ResetToken with validated email and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - login, register, logout, validate
//   - PasswordResetService - reset request/confirm flow and expiry sweep
//   - InviteGate - invite-code check before registration
//
// Services are created with New*Service constructors that validate
// dependencies.
package auth
