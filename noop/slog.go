// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package noop provides slog.Handler and other no-op implementations used to
// silence ambient output (e.g. a Writer's structured logger) without having
// to special-case a nil logger.
package noop

import (
	"context"
	"log/slog"
)

// LogHandler discards every record it receives.
type LogHandler struct{}

func (LogHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (LogHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h LogHandler) WithGroup(_ string) slog.Handler {
	return h
}
