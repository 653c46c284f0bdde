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

// Package field selects the prime modulus a sharing session works under and
// provides modular arithmetic over GF(p).
//
// # Moduli
//
// A modulus comes from one of two places:
//
//   - FixedPrime: a static table of vetted primes keyed by bit width. BN254
//     is the scalar-field order of the BN254 (alt_bn128) pairing curve, the
//     field a future commitment layer would share. The 256, 512 and 1024-bit
//     entries are safe primes (p = 2q + 1 with q prime).
//   - GeneratePrime: a fresh probable prime of any width between
//     MinGeneratedBits and MaxGeneratedBits, drawn from a caller-supplied
//     CSPRNG and tested with MillerRabinRounds rounds, which bounds the
//     chance of accepting a composite by 4^-50 = 2^-100.
//
// # Arithmetic
//
// Add, Sub, Mul, Neg and Reduce always return values normalized into [0, m).
// ModPow and ModInverse validate their inputs and report failures as errors
// rather than panicking. All functions allocate their result and never
// modify their arguments.
package field

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	bn256 "github.com/ethereum/go-ethereum/crypto/bn256/cloudflare"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
)

// BitWidth is the size of a modulus in bits.
type BitWidth int

const (
	// BN254 selects the 254-bit scalar field of the BN254 pairing curve.
	BN254 BitWidth = 254

	// Bits256 selects a 256-bit modulus.
	Bits256 BitWidth = 256

	// Bits512 selects a 512-bit modulus.
	Bits512 BitWidth = 512

	// Bits1024 selects a 1024-bit modulus.
	Bits1024 BitWidth = 1024
)

const (
	// MillerRabinRounds is the number of Miller-Rabin rounds applied to every
	// generated candidate. big.Int.ProbablyPrime adds a Baillie-PSW test on top.
	MillerRabinRounds = 50

	// MinGeneratedBits is the smallest width GeneratePrime accepts.
	MinGeneratedBits = 16

	// MaxGeneratedBits is the largest width GeneratePrime accepts.
	MaxGeneratedBits = 8192
)

var (
	// ErrUnsupportedBitWidth is returned when a width has no fixed prime or is
	// outside the range GeneratePrime accepts.
	ErrUnsupportedBitWidth = errors.New("field: unsupported bit width")

	// ErrNotInvertible is returned when gcd(a, m) != 1.
	ErrNotInvertible = errors.New("field: element is not invertible")

	// ErrInvalidModulus is returned for a nil or non-positive modulus.
	ErrInvalidModulus = errors.New("field: modulus must be positive")

	// ErrNegativeExponent is returned by ModPow for exponents below zero.
	ErrNegativeExponent = errors.New("field: exponent must not be negative")
)

// Safe primes, p = 2q + 1.
const (
	prime256Hex  = "D7F71B07B75BC19077A53B9B1BAEA33249C8CD5C132C7FA3E20E18AAF17F5A9B"
	prime512Hex  = "EB3CFFA5DBAB1325022CE08399445F0E4B9B146B0BA3D17967D70616B2E33B62FCE08149C3D76FA8EAC2769B4DB5232DFF3416848ED598BA2470CEC3CB5DCD6B"
	prime1024Hex = "DE97F71CFA25F986F6D07618C9EDB1378517A16101CEF67262AFBD3D703E94134F91757A03262A988C1A8DE361AAE62F96D7E2C70C10AFD647F718A628651C234225FE75F25FB1D6FB28596BEA5E2802B5B4E4BE3CE573192CC1E1F1DEB8CACAC9BC55AA8CB213945388C78271D5E500D34469A4108680E1AF56FA7C05D321DF"
)

// String returns "bn254" for BN254 and the decimal width otherwise.
func (bw BitWidth) String() string {
	if bw == BN254 {
		return "bn254"
	}
	return strconv.Itoa(int(bw))
}

// HasFixedPrime reports whether FixedPrime has an entry for bw.
func (bw BitWidth) HasFixedPrime() bool {
	switch bw {
	case BN254, Bits256, Bits512, Bits1024:
		return true
	default:
		return false
	}
}

// SupportedBitWidths returns the widths with a fixed prime, ascending.
func SupportedBitWidths() []BitWidth {
	return []BitWidth{BN254, Bits256, Bits512, Bits1024}
}

// ParseBitWidth parses "bn254" or a decimal bit count.
func ParseBitWidth(s string) (BitWidth, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "bn254" {
		return BN254, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedBitWidth, s)
	}
	return BitWidth(n), nil
}

// FixedPrime returns a copy of the vetted prime for bw.
func FixedPrime(bw BitWidth) (*big.Int, error) {
	switch bw {
	case BN254:
		return new(big.Int).Set(bn256.Order), nil
	case Bits256:
		return mustParseHex(prime256Hex), nil
	case Bits512:
		return mustParseHex(prime512Hex), nil
	case Bits1024:
		return mustParseHex(prime1024Hex), nil
	default:
		return nil, fmt.Errorf("%w: no fixed prime for %d bits", ErrUnsupportedBitWidth, int(bw))
	}
}

// GeneratePrime returns a probable prime with exactly bits bits. Candidates
// are uniformly random odd integers of that width read from rng; a nil rng
// uses rand.Reader.
func GeneratePrime(rng io.Reader, bits int) (*big.Int, error) {
	if bits < MinGeneratedBits || bits > MaxGeneratedBits {
		return nil, fmt.Errorf("%w: cannot generate a %d-bit prime (range %d-%d)",
			ErrUnsupportedBitWidth, bits, MinGeneratedBits, MaxGeneratedBits)
	}

	for {
		candidate, err := rand.Bits(rng, bits)
		if err != nil {
			return nil, fmt.Errorf("field: failed to draw prime candidate: %w", err)
		}
		candidate.SetBit(candidate, 0, 1)
		if candidate.ProbablyPrime(MillerRabinRounds) {
			return candidate, nil
		}
	}
}

// SelectModulus returns FixedPrime(bw) when useFixed is set and a freshly
// generated prime of width bw otherwise.
func SelectModulus(rng io.Reader, bw BitWidth, useFixed bool) (*big.Int, error) {
	if useFixed {
		return FixedPrime(bw)
	}
	return GeneratePrime(rng, int(bw))
}

// IsProbablePrime applies the same test GeneratePrime uses.
func IsProbablePrime(n *big.Int) bool {
	return n != nil && n.Sign() > 0 && n.ProbablyPrime(MillerRabinRounds)
}

func mustParseHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("field: invalid prime constant " + s)
	}
	return n
}
