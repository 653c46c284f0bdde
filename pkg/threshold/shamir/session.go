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
	"sync"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/logging"
)

// SessionConfig configures a sharing session.
type SessionConfig struct {
	// BitWidth selects the modulus. Ignored when Modulus is set.
	BitWidth field.BitWidth

	// UseFixedPrime selects the vetted prime for BitWidth instead of
	// generating a fresh one.
	UseFixedPrime bool

	// Modulus, when non-nil, is used as is and must be prime.
	Modulus *big.Int

	// Threshold is the number of shares required to reconstruct.
	Threshold uint8

	// Secret is the value to share. It is copied.
	Secret *big.Int

	// Points, when set, are the x-coordinates the caller will issue shares
	// at. They are checked before the polynomial is drawn so that a bad
	// point costs no coefficient randomness.
	Points []*big.Int

	// Rand supplies prime candidates and coefficients. Defaults to
	// rand.Reader.
	Rand io.Reader

	// Logger receives debug records. Defaults to a discarding logger.
	Logger *logging.Logger
}

// Session binds a modulus, a threshold and the sharing polynomial. Shares
// may be issued concurrently until Destroy is called.
type Session struct {
	id        uuid.UUID
	bitWidth  field.BitWidth
	fixed     bool
	modulus   *big.Int
	threshold uint8
	logger    *logging.Logger

	mu   sync.RWMutex
	poly *Polynomial
}

// CreateSession selects a modulus and builds the sharing polynomial using
// the default CSPRNG.
//
// With useFixedPrime the secret must be below the fixed prime. Without it a
// fresh bitWidth-bit prime is drawn, and since such a prime is only known to
// be at least 2^(bitWidth-1), the secret must be below 2^(bitWidth-1): a
// secret of exactly bitWidth bits fails with ErrSecretOutOfRange even when
// it would fit under the prime actually drawn.
func CreateSession(bitWidth field.BitWidth, useFixedPrime bool, threshold uint8, secret *big.Int) (*Session, error) {
	return NewSession(&SessionConfig{
		BitWidth:      bitWidth,
		UseFixedPrime: useFixedPrime,
		Threshold:     threshold,
		Secret:        secret,
	})
}

// NewSession validates config, selects the modulus and builds the sharing
// polynomial. The threshold, the secret's sign, the literal Points and, for
// generated primes, the secret's size are checked before any randomness is
// read. Points are checked again modulo p before coefficients are drawn.
func NewSession(config *SessionConfig) (*Session, error) {
	if config == nil {
		return nil, fmt.Errorf("shamir: session config is nil")
	}
	if config.Threshold < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrThresholdTooSmall, config.Threshold)
	}
	if config.Secret == nil || config.Secret.Sign() < 0 {
		return nil, fmt.Errorf("%w: secret must be non-negative", ErrSecretOutOfRange)
	}
	if err := ValidatePoints(config.Points, nil); err != nil {
		return nil, err
	}

	rng := config.Rand
	if rng == nil {
		rng = rand.Reader
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	var modulus *big.Int
	bitWidth := config.BitWidth
	fixed := config.UseFixedPrime
	switch {
	case config.Modulus != nil:
		if err := checkModulus(config.Modulus); err != nil {
			return nil, err
		}
		if !field.IsProbablePrime(config.Modulus) {
			return nil, fmt.Errorf("%w: modulus is not prime", ErrInvalidModulus)
		}
		modulus = new(big.Int).Set(config.Modulus)
		bitWidth = field.BitWidth(modulus.BitLen())
		fixed = false

	case config.UseFixedPrime:
		p, err := field.FixedPrime(config.BitWidth)
		if err != nil {
			return nil, err
		}
		modulus = p

	default:
		bits := int(config.BitWidth)
		if bits < field.MinGeneratedBits || bits > field.MaxGeneratedBits {
			return nil, fmt.Errorf("%w: cannot generate a %d-bit prime", ErrUnsupportedBitWidth, bits)
		}
		// A generated prime only guarantees p >= 2^(bits-1).
		if config.Secret.BitLen() >= bits {
			return nil, fmt.Errorf("%w: secret needs %d bits, a generated %d-bit prime holds at most %d",
				ErrSecretOutOfRange, config.Secret.BitLen(), bits, bits-1)
		}
		p, err := field.GeneratePrime(rng, bits)
		if err != nil {
			return nil, err
		}
		modulus = p
	}

	if err := ValidatePoints(config.Points, modulus); err != nil {
		return nil, err
	}

	poly, err := NewPolynomial(config.Secret, config.Threshold, modulus, rng)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:        uuid.New(),
		bitWidth:  bitWidth,
		fixed:     fixed,
		modulus:   modulus,
		threshold: config.Threshold,
		poly:      poly,
	}
	s.logger = logger.With("session_id", s.id.String())
	s.logger.Debug("sharing session created",
		"bit_width", bitWidth.String(),
		"fixed_prime", fixed,
		"threshold", config.Threshold)

	return s, nil
}

// ID returns the random session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// BitWidth returns the width the modulus was selected for.
func (s *Session) BitWidth() field.BitWidth {
	return s.bitWidth
}

// FixedPrime reports whether the modulus came from the fixed table.
func (s *Session) FixedPrime() bool {
	return s.fixed
}

// Modulus returns a copy of the session modulus. Store it with the shares;
// reconstruction cannot proceed without it.
func (s *Session) Modulus() *big.Int {
	return new(big.Int).Set(s.modulus)
}

// Threshold returns the number of shares required to reconstruct.
func (s *Session) Threshold() uint8 {
	return s.threshold
}

// GenerateShares issues one share per point, in input order.
func (s *Session) GenerateShares(points []*big.Int) ([]Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.poly == nil {
		return nil, ErrSessionDestroyed
	}

	shares, err := GenerateShares(s.poly, points)
	if err != nil {
		s.logger.Debug("share generation rejected", "error", Kind(err))
		return nil, err
	}
	s.logger.Debug("shares generated", "count", len(shares))
	return shares, nil
}

// Destroy wipes the polynomial. Further GenerateShares calls fail with
// ErrSessionDestroyed. Destroy is idempotent.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poly == nil {
		return
	}
	s.poly.Wipe()
	s.poly = nil
	s.logger.Debug("sharing session destroyed")
}

// String renders the session parameters. Coefficients are never included.
func (s *Session) String() string {
	return fmt.Sprintf("Session{id: %s, bit_width: %s, fixed_prime: %t, threshold: %d}",
		s.id, s.bitWidth, s.fixed, s.threshold)
}
