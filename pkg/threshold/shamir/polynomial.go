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
	"io"
	"math/big"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
)

// Polynomial is a random polynomial of degree t-1 over GF(p) whose constant
// term is the secret. It is immutable after construction until Wipe.
type Polynomial struct {
	coefficients []*big.Int
	modulus      *big.Int
}

// NewPolynomial returns a polynomial with constant term secret and
// threshold-1 further coefficients drawn uniformly from [0, modulus) using
// rng. A nil rng uses rand.Reader. Parameters are validated before any
// randomness is read.
func NewPolynomial(secret *big.Int, threshold uint8, modulus *big.Int, rng io.Reader) (*Polynomial, error) {
	if err := checkModulus(modulus); err != nil {
		return nil, err
	}
	if threshold < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrThresholdTooSmall, threshold)
	}
	if secret == nil || secret.Sign() < 0 || secret.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("%w: secret must be in [0, p) for a %d-bit modulus",
			ErrSecretOutOfRange, modulus.BitLen())
	}

	p := &Polynomial{
		coefficients: make([]*big.Int, threshold),
		modulus:      new(big.Int).Set(modulus),
	}
	p.coefficients[0] = new(big.Int).Set(secret)

	for i := 1; i < int(threshold); i++ {
		c, err := rand.Uniform(rng, p.modulus)
		if err != nil {
			p.Wipe()
			return nil, fmt.Errorf("shamir: failed to draw coefficient: %w", err)
		}
		p.coefficients[i] = c
	}
	return p, nil
}

// Degree returns t-1. A zero leading coefficient does not lower it.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Threshold returns the number of shares needed to recover the constant term.
func (p *Polynomial) Threshold() uint8 {
	return uint8(len(p.coefficients))
}

// Modulus returns a copy of the field modulus.
func (p *Polynomial) Modulus() *big.Int {
	return new(big.Int).Set(p.modulus)
}

// Evaluate returns f(x) mod p using Horner's method.
func (p *Polynomial) Evaluate(x *big.Int) *big.Int {
	xr := field.Reduce(x, p.modulus)

	result := new(big.Int).Set(p.coefficients[len(p.coefficients)-1])
	for i := len(p.coefficients) - 2; i >= 0; i-- {
		result.Mul(result, xr)
		result.Add(result, p.coefficients[i])
		result.Mod(result, p.modulus)
	}
	return result
}

// Wipe zeroes every coefficient. The polynomial must not be used afterwards.
func (p *Polynomial) Wipe() {
	for _, c := range p.coefficients {
		if c == nil {
			continue
		}
		words := c.Bits()
		for i := range words {
			words[i] = 0
		}
		c.SetInt64(0)
	}
}

// String never renders coefficients.
func (p *Polynomial) String() string {
	return fmt.Sprintf("Polynomial{degree: %d, modulus: %d bits}", p.Degree(), p.modulus.BitLen())
}

func checkModulus(m *big.Int) error {
	if m == nil || m.Cmp(big.NewInt(3)) < 0 {
		return ErrInvalidModulus
	}
	return nil
}
