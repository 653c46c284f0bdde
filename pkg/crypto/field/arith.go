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

package field

import (
	"fmt"
	"math/big"
)

var one = big.NewInt(1)

// Reduce returns a mod m in [0, m). m must be positive.
func Reduce(a, m *big.Int) *big.Int {
	return new(big.Int).Mod(a, m)
}

// Add returns (a + b) mod m.
func Add(a, b, m *big.Int) *big.Int {
	z := new(big.Int).Add(a, b)
	return z.Mod(z, m)
}

// Sub returns (a - b) mod m, normalized into [0, m).
func Sub(a, b, m *big.Int) *big.Int {
	z := new(big.Int).Sub(a, b)
	return z.Mod(z, m)
}

// Mul returns (a * b) mod m.
func Mul(a, b, m *big.Int) *big.Int {
	z := new(big.Int).Mul(a, b)
	return z.Mod(z, m)
}

// Neg returns -a mod m.
func Neg(a, m *big.Int) *big.Int {
	z := new(big.Int).Neg(a)
	return z.Mod(z, m)
}

// ModPow returns base^exp mod m by square-and-multiply. exp = 0 yields 1 and
// m = 1 yields 0.
func ModPow(base, exp, m *big.Int) (*big.Int, error) {
	if err := checkModulus(m); err != nil {
		return nil, err
	}
	if exp.Sign() < 0 {
		return nil, ErrNegativeExponent
	}
	if m.Cmp(one) == 0 {
		return new(big.Int), nil
	}
	if exp.Sign() == 0 {
		return big.NewInt(1), nil
	}
	return new(big.Int).Exp(Reduce(base, m), exp, m), nil
}

// ModInverse returns x in [0, m) with a*x ≡ 1 (mod m), computed with the
// extended Euclidean algorithm.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if err := checkModulus(m); err != nil {
		return nil, err
	}

	r := Reduce(a, m)
	if r.Sign() == 0 {
		return nil, fmt.Errorf("%w: element is zero modulo m", ErrNotInvertible)
	}

	x := new(big.Int)
	g := new(big.Int).GCD(x, nil, r, m)
	if g.Cmp(one) != 0 {
		return nil, fmt.Errorf("%w: gcd with modulus is %s", ErrNotInvertible, g)
	}
	return x.Mod(x, m), nil
}

func checkModulus(m *big.Int) error {
	if m == nil || m.Sign() <= 0 {
		return ErrInvalidModulus
	}
	return nil
}
