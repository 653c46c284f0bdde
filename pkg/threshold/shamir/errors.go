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

package shamir

import (
	"errors"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
)

var (
	// ErrSecretOutOfRange is returned when the secret is negative or not
	// below the modulus.
	ErrSecretOutOfRange = errors.New("shamir: secret out of range")

	// ErrThresholdTooSmall is returned for thresholds below 2.
	ErrThresholdTooSmall = errors.New("shamir: threshold must be at least 2")

	// ErrInvalidSharePoint is returned when an evaluation point is zero
	// modulo p.
	ErrInvalidSharePoint = errors.New("shamir: share point must be non-zero")

	// ErrDuplicateSharePoint is returned when two x-coordinates coincide
	// modulo p.
	ErrDuplicateSharePoint = errors.New("shamir: duplicate share point")

	// ErrInsufficientShares is returned when fewer shares are supplied than
	// the operation can work with.
	ErrInsufficientShares = errors.New("shamir: insufficient shares")

	// ErrInvalidModulus is returned for a nil modulus or one below 3.
	ErrInvalidModulus = errors.New("shamir: invalid modulus")

	// ErrInvalidShare is returned for a share with a nil coordinate.
	ErrInvalidShare = errors.New("shamir: invalid share")

	// ErrSessionDestroyed is returned by a session after Destroy.
	ErrSessionDestroyed = errors.New("shamir: session destroyed")

	// ErrUnsupportedBitWidth is field.ErrUnsupportedBitWidth.
	ErrUnsupportedBitWidth = field.ErrUnsupportedBitWidth

	// ErrNotInvertible is field.ErrNotInvertible.
	ErrNotInvertible = field.ErrNotInvertible
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrUnsupportedBitWidth, "unsupported_bit_width"},
	{ErrSecretOutOfRange, "secret_out_of_range"},
	{ErrThresholdTooSmall, "threshold_too_small"},
	{ErrInvalidSharePoint, "invalid_share_point"},
	{ErrDuplicateSharePoint, "duplicate_share_point"},
	{ErrNotInvertible, "not_invertible"},
	{ErrInsufficientShares, "insufficient_shares"},
	{ErrInvalidModulus, "invalid_modulus"},
	{ErrInvalidShare, "invalid_share"},
	{ErrSessionDestroyed, "session_destroyed"},
}

// Kind returns a stable snake_case label for err, "none" for nil and
// "internal" for errors outside this package's taxonomy.
func Kind(err error) string {
	if err == nil {
		return "none"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
