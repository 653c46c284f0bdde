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
	"fmt"
	"math/big"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
)

// ReconstructSecret recovers f(0) from shares by Lagrange interpolation
// modulo modulus.
//
// WARNING: the result is only the secret when at least threshold shares
// from the same sharing are supplied. With fewer shares the function still
// succeeds and returns a deterministic, meaningless value; the threshold is
// not recorded in a share and cannot be detected here.
//
// Coordinates are reduced modulo p before use. Fewer than two shares fail
// with ErrInsufficientShares and x-coordinates that coincide modulo p fail
// with ErrDuplicateSharePoint.
func ReconstructSecret(modulus *big.Int, shares []Share) (*big.Int, error) {
	return InterpolateAt(modulus, shares, new(big.Int))
}

// InterpolateAt evaluates at x the unique polynomial of degree len(shares)-1
// passing through shares. At x = 0 this is ReconstructSecret; at an unused
// non-zero x it issues a replacement share for a lost one.
func InterpolateAt(modulus *big.Int, shares []Share, x *big.Int) (*big.Int, error) {
	if err := checkModulus(modulus); err != nil {
		return nil, err
	}
	if len(shares) < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInsufficientShares, len(shares))
	}

	xs := make([]*big.Int, len(shares))
	ys := make([]*big.Int, len(shares))
	seen := make(map[string]int, len(shares))
	for i, s := range shares {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
		xs[i] = field.Reduce(s.X, modulus)
		ys[i] = field.Reduce(s.Y, modulus)

		key := string(xs[i].Bytes())
		if j, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: shares %d and %d have the same x modulo p",
				ErrDuplicateSharePoint, j, i)
		}
		seen[key] = i
	}

	at := field.Reduce(x, modulus)
	result := new(big.Int)
	for i := range xs {
		num := big.NewInt(1)
		den := big.NewInt(1)
		for j := range xs {
			if i == j {
				continue
			}
			num = field.Mul(num, field.Sub(at, xs[j], modulus), modulus)
			den = field.Mul(den, field.Sub(xs[i], xs[j], modulus), modulus)
		}

		inv, err := field.ModInverse(den, modulus)
		if err != nil {
			return nil, fmt.Errorf("shamir: lagrange basis %d: %w", i, err)
		}
		basis := field.Mul(num, inv, modulus)
		result = field.Add(result, field.Mul(ys[i], basis, modulus), modulus)
	}
	return result, nil
}
