// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint is violated,
// e.g. registering an email or username that is already taken.
var ErrConflict = errors.New("conflict")
