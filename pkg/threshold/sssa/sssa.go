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

// Package sssa reads and writes shares in the sssa-golang string format and
// reconstructs them with the go-shamir engine.
//
// An sssa-golang share is a concatenation of 88-character parts, one per
// 32-byte chunk of the secret. Each part is two 44-character URL-safe base64
// encodings of 32-byte big-endian integers: the x-coordinate followed by
// the y-coordinate. All arithmetic is modulo the fixed prime 2^256 - 189.
//
// Split delegates to sssa-golang itself so that shares produced here are
// readable by any sssa implementation. Reconstruct and Combine run the
// interpolation through shamir.ReconstructSecret.
package sssa

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	sssago "github.com/SSSaaS/sssa-golang"

	"github.com/jeremyhahn/go-shamir/pkg/threshold/shamir"
)

const (
	// PrimeDecimal is 2^256 - 189, the modulus every sssa share lives in.
	PrimeDecimal = "115792089237316195423570985008687907853269984665640564039457584007913129639747"

	// PartLength is the encoded length of one (x, y) pair.
	PartLength = 88

	coordLength = 44
	chunkBytes  = 32
)

var (
	// ErrInvalidShare is returned for a string that is not an sssa share.
	ErrInvalidShare = errors.New("sssa: invalid share")

	// ErrInconsistentShares is returned when shares carry different numbers
	// of parts.
	ErrInconsistentShares = errors.New("sssa: shares have different lengths")

	// ErrEmptySecret is returned by Split for an empty secret.
	ErrEmptySecret = errors.New("sssa: secret cannot be empty")

	// ErrInvalidParameters is returned by Split for an unusable
	// threshold/total pair.
	ErrInvalidParameters = errors.New("sssa: invalid threshold or share count")
)

// Prime returns a copy of the sssa modulus.
func Prime() *big.Int {
	p, _ := new(big.Int).SetString(PrimeDecimal, 10)
	return p
}

// ParseShare decodes one sssa share into one point per secret chunk.
func ParseShare(s string) ([]shamir.Share, error) {
	if len(s) == 0 || len(s)%PartLength != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of %d", ErrInvalidShare, len(s), PartLength)
	}

	p := Prime()
	parts := make([]shamir.Share, len(s)/PartLength)
	for i := range parts {
		part := s[i*PartLength : (i+1)*PartLength]
		x, err := decodeCoordinate(part[:coordLength], p)
		if err != nil {
			return nil, fmt.Errorf("part %d x: %w", i, err)
		}
		y, err := decodeCoordinate(part[coordLength:], p)
		if err != nil {
			return nil, fmt.Errorf("part %d y: %w", i, err)
		}
		parts[i] = shamir.Share{X: x, Y: y}
	}
	return parts, nil
}

// FormatShare encodes one point per secret chunk as an sssa share string.
func FormatShare(parts []shamir.Share) (string, error) {
	p := Prime()
	var sb strings.Builder
	for i, part := range parts {
		if err := part.Validate(); err != nil {
			return "", fmt.Errorf("part %d: %w", i, err)
		}
		for _, v := range []*big.Int{part.X, part.Y} {
			if v.Sign() < 0 || v.Cmp(p) >= 0 {
				return "", fmt.Errorf("%w: part %d coordinate outside the field", ErrInvalidShare, i)
			}
			sb.WriteString(base64.URLEncoding.EncodeToString(v.FillBytes(make([]byte, chunkBytes))))
		}
	}
	return sb.String(), nil
}

// Reconstruct recovers the raw secret from sssa shares. As with every
// Shamir reconstruction, too few shares yield garbage rather than an error.
func Reconstruct(shares []string) ([]byte, error) {
	if len(shares) < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", shamir.ErrInsufficientShares, len(shares))
	}

	parsed := make([][]shamir.Share, len(shares))
	for i, s := range shares {
		parts, err := ParseShare(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
		if i > 0 && len(parts) != len(parsed[0]) {
			return nil, fmt.Errorf("%w: share %d has %d parts, share 0 has %d",
				ErrInconsistentShares, i, len(parts), len(parsed[0]))
		}
		parsed[i] = parts
	}

	p := Prime()
	out := make([]byte, 0, len(parsed[0])*chunkBytes)
	chunk := make([]shamir.Share, len(parsed))
	for j := range parsed[0] {
		for i := range parsed {
			chunk[i] = parsed[i][j]
		}
		v, err := shamir.ReconstructSecret(p, chunk)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", j, err)
		}
		out = append(out, v.FillBytes(make([]byte, chunkBytes))...)
	}

	// sssa pads the final chunk with zero bytes
	return bytes.TrimRight(out, "\x00"), nil
}

// Split divides secret into total sssa shares, any threshold of which
// reconstruct it. The secret is hex encoded before splitting so that
// trailing zero bytes survive the round trip; use Combine to reverse it.
func Split(secret []byte, threshold, total int) ([]string, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if threshold < 2 || threshold > 255 {
		return nil, fmt.Errorf("%w: threshold %d outside 2-255", ErrInvalidParameters, threshold)
	}
	if total < threshold || total > 255 {
		return nil, fmt.Errorf("%w: total %d must be between threshold %d and 255", ErrInvalidParameters, total, threshold)
	}

	shares, err := sssago.Create(threshold, total, hex.EncodeToString(secret))
	if err != nil {
		return nil, fmt.Errorf("sssa: failed to split secret: %w", err)
	}
	return shares, nil
}

// Combine reverses Split.
func Combine(shares []string) ([]byte, error) {
	raw, err := Reconstruct(shares)
	if err != nil {
		return nil, err
	}
	secret, err := hex.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("sssa: reconstructed value is not a hex-encoded secret: %w", err)
	}
	return secret, nil
}

func decodeCoordinate(s string, p *big.Int) (*big.Int, error) {
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	v := new(big.Int).SetBytes(b)
	if v.Cmp(p) >= 0 {
		return nil, fmt.Errorf("%w: coordinate outside the field", ErrInvalidShare)
	}
	return v, nil
}
