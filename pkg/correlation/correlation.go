// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package correlation ties together the log records of one CLI run or
// service call. The ID travels on the context; a wrapping script can supply
// it through SHAMIR_CORRELATION_ID.
package correlation

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

const (
	// EnvVar lets a wrapping script supply the correlation ID of a CLI run
	EnvVar = "SHAMIR_CORRELATION_ID"

	// LogKey is the attribute name used in log records
	LogKey = "correlation_id"

	// MaxLen bounds IDs accepted from outside the process
	MaxLen = 128
)

type ctxKey struct{}

// With returns ctx carrying id.
func With(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// ID returns the ID on ctx, or "".
func ID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// New returns a fresh random ID.
func New() string {
	return uuid.New().String()
}

// Valid reports whether id is safe to echo into logs: 1 to MaxLen
// characters from [A-Za-z0-9._:-].
func Valid(id string) bool {
	if id == "" || len(id) > MaxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == ':', c == '-':
		default:
			return false
		}
	}
	return true
}

// Ensure returns ctx carrying an ID. An ID already on ctx wins, then a
// valid EnvVar value, then a fresh one.
func Ensure(ctx context.Context) context.Context {
	if ID(ctx) != "" {
		return ctx
	}
	id := os.Getenv(EnvVar)
	if !Valid(id) {
		id = New()
	}
	return With(ctx, id)
}

// Attr returns the log attribute for the ID on ctx, generating one when
// ctx carries none.
func Attr(ctx context.Context) slog.Attr {
	id := ID(ctx)
	if id == "" {
		id = New()
	}
	return slog.String(LogKey, id)
}
