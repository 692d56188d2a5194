// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// ErrorCode returns the oops code attached to err, or the empty string
// when err carries none.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := oopsErr.Code().(string); ok {
		return code
	}
	return ""
}

// LogError logs an error at ERROR level. Oops errors contribute their
// code and context as structured attributes; plain errors log as a string.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}
