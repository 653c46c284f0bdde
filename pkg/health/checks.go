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

package health

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/threshold/shamir"
)

// Check names
const (
	CheckRNG           = "rng"
	CheckFixedPrimes   = "fixed_primes"
	CheckInterpolation = "interpolation"
	CheckRoundTrip     = "round_trip"
)

// rngSample is the number of bytes drawn per RNG sample
const rngSample = 32

// NewDefaultChecker registers every self-test against r.
func NewDefaultChecker(r io.Reader) *Checker {
	c := NewChecker()
	c.RegisterCheck(CheckRNG, RNGCheck(r))
	c.RegisterCheck(CheckFixedPrimes, FixedPrimesCheck())
	c.RegisterCheck(CheckInterpolation, InterpolationCheck())
	c.RegisterCheck(CheckRoundTrip, RoundTripCheck(r))
	return c
}

// RNGCheck draws two samples from r and fails on a read error, an
// all-zero sample or two identical samples. A Resolver that reports
// itself unavailable is degraded.
func RNGCheck(r io.Reader) CheckFunc {
	return func(ctx context.Context) CheckResult {
		a := make([]byte, rngSample)
		b := make([]byte, rngSample)
		if _, err := io.ReadFull(r, a); err != nil {
			return Unhealthy(CheckRNG, "read failed", err)
		}
		if _, err := io.ReadFull(r, b); err != nil {
			return Unhealthy(CheckRNG, "read failed", err)
		}
		if bytes.Equal(a, make([]byte, rngSample)) {
			return Unhealthy(CheckRNG, "all-zero output", nil)
		}
		if bytes.Equal(a, b) {
			return Unhealthy(CheckRNG, "repeated output", nil)
		}
		if res, ok := r.(rand.Resolver); ok && !res.Available() {
			return CheckResult{Name: CheckRNG, Status: StatusDegraded, Message: "source reports unavailable"}
		}
		return Healthy(CheckRNG, fmt.Sprintf("%d-byte samples distinct", rngSample))
	}
}

// FixedPrimesCheck verifies every fixed prime is prime and of its
// nominal width, and that the 256/512/1024-bit entries are safe primes.
func FixedPrimesCheck() CheckFunc {
	return func(ctx context.Context) CheckResult {
		widths := field.SupportedBitWidths()
		for _, bw := range widths {
			p, err := field.FixedPrime(bw)
			if err != nil {
				return Unhealthy(CheckFixedPrimes, bw.String(), err)
			}
			if p.BitLen() != int(bw) {
				return Unhealthy(CheckFixedPrimes, bw.String(),
					fmt.Errorf("width %d, want %d", p.BitLen(), int(bw)))
			}
			if !field.IsProbablePrime(p) {
				return Unhealthy(CheckFixedPrimes, bw.String(), errors.New("not prime"))
			}
			if bw != field.BN254 {
				q := new(big.Int).Rsh(p, 1)
				if !field.IsProbablePrime(q) {
					return Unhealthy(CheckFixedPrimes, bw.String(), errors.New("(p-1)/2 not prime"))
				}
			}
		}
		return Healthy(CheckFixedPrimes, fmt.Sprintf("%d primes verified", len(widths)))
	}
}

// InterpolationCheck reconstructs a known answer: f(x) = 25 + 3x + 7x^2
// over GF(97) sampled at x = 1, 4, 12.
func InterpolationCheck() CheckFunc {
	return func(ctx context.Context) CheckResult {
		p := big.NewInt(97)
		shares := []shamir.Share{
			{X: big.NewInt(12), Y: big.NewInt(2)},
			{X: big.NewInt(1), Y: big.NewInt(35)},
			{X: big.NewInt(4), Y: big.NewInt(52)},
		}
		got, err := shamir.ReconstructSecret(p, shares)
		if err != nil {
			return Unhealthy(CheckInterpolation, "reconstruction failed", err)
		}
		if got.Int64() != 25 {
			return Unhealthy(CheckInterpolation, "wrong answer", fmt.Errorf("got %s, want 25", got))
		}
		return Healthy(CheckInterpolation, "known answer matched")
	}
}

// RoundTripCheck splits a fixed secret with randomness from r over the
// fixed 256-bit prime and reconstructs it from a threshold subset.
func RoundTripCheck(r io.Reader) CheckFunc {
	return func(ctx context.Context) CheckResult {
		secret := big.NewInt(25)
		session, err := shamir.NewSession(&shamir.SessionConfig{
			BitWidth:      field.Bits256,
			UseFixedPrime: true,
			Threshold:     3,
			Secret:        secret,
			Rand:          r,
		})
		if err != nil {
			return Unhealthy(CheckRoundTrip, "session failed", err)
		}
		defer session.Destroy()

		points := []*big.Int{big.NewInt(4), big.NewInt(16), big.NewInt(13), big.NewInt(1), big.NewInt(12), big.NewInt(7)}
		shares, err := session.GenerateShares(points)
		if err != nil {
			return Unhealthy(CheckRoundTrip, "share generation failed", err)
		}
		got, err := shamir.ReconstructSecret(session.Modulus(), []shamir.Share{shares[5], shares[2], shares[0]})
		if err != nil {
			return Unhealthy(CheckRoundTrip, "reconstruction failed", err)
		}
		if got.Cmp(secret) != 0 {
			return Unhealthy(CheckRoundTrip, "secret mismatch", nil)
		}
		return Healthy(CheckRoundTrip, "3-of-6 sharing reconstructed")
	}
}
