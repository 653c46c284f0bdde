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

// Share is one evaluation (X, Y) of the sharing polynomial. The modulus it
// belongs to travels separately.
type Share struct {
	X *big.Int
	Y *big.Int
}

// String renders the x-coordinate only.
func (s Share) String() string {
	return fmt.Sprintf("Share{X: %s}", s.X)
}

// Validate checks that both coordinates are present.
func (s Share) Validate() error {
	if s.X == nil || s.Y == nil {
		return fmt.Errorf("%w: missing coordinate", ErrInvalidShare)
	}
	return nil
}

// GenerateShares evaluates poly at every point, in input order. All points
// are validated first: a point that is zero mod p fails with
// ErrInvalidSharePoint and two points equal mod p fail with
// ErrDuplicateSharePoint. No shares are returned on failure.
func GenerateShares(poly *Polynomial, points []*big.Int) ([]Share, error) {
	if err := ValidatePoints(points, poly.modulus); err != nil {
		return nil, err
	}

	shares := make([]Share, len(points))
	for i, x := range points {
		shares[i] = Share{
			X: new(big.Int).Set(x),
			Y: poly.Evaluate(x),
		}
	}
	return shares, nil
}

// ValidatePoints checks share points without evaluating anything. With a
// modulus, a point that is zero mod p fails with ErrInvalidSharePoint and
// two points equal mod p fail with ErrDuplicateSharePoint. A nil modulus
// applies the same checks to the literal values, for use before the
// modulus is known.
func ValidatePoints(points []*big.Int, modulus *big.Int) error {
	seen := make(map[string]int, len(points))
	for i, x := range points {
		if x == nil {
			return fmt.Errorf("%w: point %d is nil", ErrInvalidSharePoint, i)
		}
		xr := x
		where := ""
		if modulus != nil {
			xr = field.Reduce(x, modulus)
			where = " modulo p"
		}
		if xr.Sign() == 0 {
			return fmt.Errorf("%w: point %d (%s) is zero%s", ErrInvalidSharePoint, i, x, where)
		}
		if j, dup := seen[xr.String()]; dup {
			return fmt.Errorf("%w: points %d and %d are equal%s", ErrDuplicateSharePoint, j, i, where)
		}
		seen[xr.String()] = i
	}
	return nil
}
