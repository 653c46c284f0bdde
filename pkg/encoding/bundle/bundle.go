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

// Package bundle defines the on-disk format for shares.
//
// A bundle carries one or more shares together with the modulus they were
// issued under, which reconstruction cannot do without. It also records the
// threshold and session ID when known so that a combiner can refuse to
// reconstruct from too few shares and can tell bundles from different
// sharings apart. Numbers are lowercase hexadecimal strings.
//
// The ModulusID is the first 16 bytes of BLAKE2b-256 over the big-endian
// modulus, hex encoded. It lets a holder compare moduli at a glance.
package bundle

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/jeremyhahn/go-shamir/pkg/threshold/shamir"
)

// Version is the bundle format version written by this package.
const Version = 1

var (
	// ErrInvalidBundle is returned for a structurally invalid bundle.
	ErrInvalidBundle = errors.New("bundle: invalid bundle")

	// ErrUnsupportedVersion is returned for an unknown format version.
	ErrUnsupportedVersion = errors.New("bundle: unsupported version")

	// ErrModulusMismatch is returned when merging bundles under different moduli.
	ErrModulusMismatch = errors.New("bundle: modulus mismatch")

	// ErrThresholdMismatch is returned when merging bundles with different thresholds.
	ErrThresholdMismatch = errors.New("bundle: threshold mismatch")

	// ErrSessionMismatch is returned when merging bundles from different sessions.
	ErrSessionMismatch = errors.New("bundle: session mismatch")

	// ErrConflictingShares is returned when two shares have the same x but
	// different y values.
	ErrConflictingShares = errors.New("bundle: conflicting shares")
)

// Share is one (x, y) point in hex.
type Share struct {
	X string `json:"x" yaml:"x"`
	Y string `json:"y" yaml:"y"`
}

// Bundle is a set of shares with the parameters needed to use them.
type Bundle struct {
	Version   int     `json:"version" yaml:"version"`
	SessionID string  `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Threshold uint8   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	BitWidth  int     `json:"bit_width,omitempty" yaml:"bit_width,omitempty"`
	Modulus   string  `json:"modulus" yaml:"modulus"`
	ModulusID string  `json:"modulus_id" yaml:"modulus_id"`
	Shares    []Share `json:"shares" yaml:"shares"`
}

// New builds a bundle. sessionID may be empty and threshold may be zero
// when unknown. Coordinates are stored reduced modulo modulus.
func New(sessionID string, threshold uint8, modulus *big.Int, shares []shamir.Share) *Bundle {
	b := &Bundle{
		Version:   Version,
		SessionID: sessionID,
		Threshold: threshold,
		BitWidth:  modulus.BitLen(),
		Modulus:   encodeInt(modulus),
		ModulusID: Fingerprint(modulus),
		Shares:    make([]Share, len(shares)),
	}
	for i, s := range shares {
		b.Shares[i] = Share{
			X: encodeInt(new(big.Int).Mod(s.X, modulus)),
			Y: encodeInt(new(big.Int).Mod(s.Y, modulus)),
		}
	}
	return b
}

// FromSession builds a bundle for shares issued by session.
func FromSession(session *shamir.Session, shares []shamir.Share) *Bundle {
	return New(session.ID().String(), session.Threshold(), session.Modulus(), shares)
}

// Fingerprint returns the ModulusID of modulus.
func Fingerprint(modulus *big.Int) string {
	sum := blake2b.Sum256(modulus.Bytes())
	return hex.EncodeToString(sum[:16])
}

// ModulusInt parses the modulus.
func (b *Bundle) ModulusInt() (*big.Int, error) {
	m, err := decodeInt(b.Modulus)
	if err != nil {
		return nil, fmt.Errorf("%w: modulus: %v", ErrInvalidBundle, err)
	}
	if m.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus must be positive", ErrInvalidBundle)
	}
	return m, nil
}

// ToShares parses every share.
func (b *Bundle) ToShares() ([]shamir.Share, error) {
	shares := make([]shamir.Share, len(b.Shares))
	for i, s := range b.Shares {
		x, err := decodeInt(s.X)
		if err != nil {
			return nil, fmt.Errorf("%w: share %d x: %v", ErrInvalidBundle, i, err)
		}
		y, err := decodeInt(s.Y)
		if err != nil {
			return nil, fmt.Errorf("%w: share %d y: %v", ErrInvalidBundle, i, err)
		}
		shares[i] = shamir.Share{X: x, Y: y}
	}
	return shares, nil
}

// Validate checks the version, the modulus fingerprint and that every
// share parses and has a distinct non-zero x below the modulus.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bundle", ErrInvalidBundle)
	}
	if b.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, b.Version)
	}

	m, err := b.ModulusInt()
	if err != nil {
		return err
	}
	if b.ModulusID != "" && !strings.EqualFold(b.ModulusID, Fingerprint(m)) {
		return fmt.Errorf("%w: modulus_id does not match modulus", ErrInvalidBundle)
	}
	if b.Threshold == 1 {
		return fmt.Errorf("%w: threshold 1", ErrInvalidBundle)
	}

	shares, err := b.ToShares()
	if err != nil {
		return err
	}
	seen := make(map[string]int, len(shares))
	for i, s := range shares {
		if s.X.Sign() <= 0 || s.X.Cmp(m) >= 0 {
			return fmt.Errorf("%w: share %d x outside (0, p)", ErrInvalidBundle, i)
		}
		if s.Y.Sign() < 0 || s.Y.Cmp(m) >= 0 {
			return fmt.Errorf("%w: share %d y outside [0, p)", ErrInvalidBundle, i)
		}
		key := s.X.Text(16)
		if j, dup := seen[key]; dup {
			return fmt.Errorf("%w: shares %d and %d have the same x", shamir.ErrDuplicateSharePoint, j, i)
		}
		seen[key] = i
	}
	return nil
}

// Merge combines bundles from one sharing into a single bundle. Bundles
// must agree on modulus and, where recorded, on threshold and session ID.
// A share present in several bundles is kept once; two different y values
// for the same x fail with ErrConflictingShares.
func Merge(bundles ...*Bundle) (*Bundle, error) {
	if len(bundles) == 0 {
		return nil, fmt.Errorf("%w: nothing to merge", ErrInvalidBundle)
	}

	var out *Bundle
	var modulus *big.Int
	ys := make(map[string]string)

	for i, b := range bundles {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("bundle %d: %w", i, err)
		}
		m, _ := b.ModulusInt()

		if out == nil {
			out = &Bundle{
				Version:   Version,
				SessionID: b.SessionID,
				Threshold: b.Threshold,
				BitWidth:  m.BitLen(),
				Modulus:   encodeInt(m),
				ModulusID: Fingerprint(m),
			}
			modulus = m
		} else {
			if m.Cmp(modulus) != 0 {
				return nil, fmt.Errorf("%w: bundle %d has modulus %s, expected %s",
					ErrModulusMismatch, i, Fingerprint(m), out.ModulusID)
			}
			if b.Threshold != 0 {
				if out.Threshold != 0 && out.Threshold != b.Threshold {
					return nil, fmt.Errorf("%w: bundle %d has threshold %d, expected %d",
						ErrThresholdMismatch, i, b.Threshold, out.Threshold)
				}
				out.Threshold = b.Threshold
			}
			if b.SessionID != "" {
				if out.SessionID != "" && out.SessionID != b.SessionID {
					return nil, fmt.Errorf("%w: bundle %d is from session %s, expected %s",
						ErrSessionMismatch, i, b.SessionID, out.SessionID)
				}
				out.SessionID = b.SessionID
			}
		}

		shares, _ := b.ToShares()
		for _, s := range shares {
			x, y := encodeInt(s.X), encodeInt(s.Y)
			if prev, ok := ys[x]; ok {
				if prev != y {
					return nil, fmt.Errorf("%w: x=%s", ErrConflictingShares, x)
				}
				continue
			}
			ys[x] = y
			out.Shares = append(out.Shares, Share{X: x, Y: y})
		}
	}
	return out, nil
}

// Split returns one bundle per share, each carrying the shared parameters.
func (b *Bundle) Split() []*Bundle {
	out := make([]*Bundle, len(b.Shares))
	for i, s := range b.Shares {
		out[i] = &Bundle{
			Version:   b.Version,
			SessionID: b.SessionID,
			Threshold: b.Threshold,
			BitWidth:  b.BitWidth,
			Modulus:   b.Modulus,
			ModulusID: b.ModulusID,
			Shares:    []Share{s},
		}
	}
	return out
}

func encodeInt(n *big.Int) string {
	return n.Text(16)
}

func decodeInt(s string) (*big.Int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, errors.New("empty number")
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("%q is not hexadecimal", s)
	}
	return n, nil
}
