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

package rand

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var (
	// ErrInvalidBound is returned when a sampling bound is nil or not positive.
	ErrInvalidBound = errors.New("rand: bound must be positive")

	// ErrInvalidBitLength is returned when Bits is asked for fewer than 2 bits.
	ErrInvalidBitLength = errors.New("rand: bit length must be at least 2")
)

// Uniform returns a uniformly distributed integer in [0, bound) read from r.
// Sampling is by rejection, so the result carries no modulo bias.
func Uniform(r io.Reader, bound *big.Int) (*big.Int, error) {
	if bound == nil || bound.Sign() <= 0 {
		return nil, ErrInvalidBound
	}
	if r == nil {
		r = Reader
	}
	n, err := rand.Int(r, bound)
	if err != nil {
		return nil, fmt.Errorf("rand: failed to sample below bound: %w", err)
	}
	return n, nil
}

// Bits returns a uniformly distributed integer with exactly bits significant
// bits, i.e. in [2^(bits-1), 2^bits).
func Bits(r io.Reader, bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, ErrInvalidBitLength
	}
	if r == nil {
		r = Reader
	}

	buf := make([]byte, (bits+7)/8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("rand: failed to read %d random bytes: %w", len(buf), err)
	}

	// Clear the excess high bits of the leading byte
	if excess := uint(len(buf)*8 - bits); excess > 0 {
		buf[0] &= byte(0xFF >> excess)
	}

	n := new(big.Int).SetBytes(buf)
	n.SetBit(n, bits-1, 1)
	clear(buf)
	return n, nil
}
