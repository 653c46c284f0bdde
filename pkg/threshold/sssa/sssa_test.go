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

package sssa

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	sssago "github.com/SSSaaS/sssa-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/threshold/shamir"
)

func TestPrime(t *testing.T) {
	p := Prime()
	expected := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(189))
	assert.Equal(t, 0, p.Cmp(expected))
	assert.True(t, field.IsProbablePrime(p))
}

func TestReconstruct_UpstreamShares(t *testing.T) {
	secrets := []string{
		"N17FigASkL6p1EOgJhRaIquQLGvYV0",
		"0y10VAfmyH7GLQY6QccCSLKJi8iFgpcSBTLyYOGbiYPqOpStAf1OYuzEBzZR",
		"hello",
	}

	for _, secret := range secrets {
		shares, err := sssago.Create(3, 6, secret)
		require.NoError(t, err)

		got, err := Reconstruct([]string{shares[4], shares[1], shares[2]})
		require.NoError(t, err)
		assert.Equal(t, secret, string(got))

		got, err = Reconstruct(shares)
		require.NoError(t, err)
		assert.Equal(t, secret, string(got))
	}
}

func TestSplitCombine_RoundTrip(t *testing.T) {
	secret := make([]byte, 70)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	secret[len(secret)-1] = 0

	shares, err := Split(secret, 3, 5)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	got, err := Combine([]string{shares[0], shares[2], shares[4]})
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	// upstream agrees with the engine on the same shares
	upstream, err := sssago.Combine([]string{shares[1], shares[3], shares[4]})
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(secret), strings.ToLower(upstream))
}

func TestFormatShare_ReadableUpstream(t *testing.T) {
	secret := new(big.Int).SetBytes([]byte("engine-issued"))
	// sssa right-pads each chunk to 32 bytes
	secret.Lsh(secret, uint(8*(32-len("engine-issued"))))

	session, err := shamir.NewSession(&shamir.SessionConfig{
		Modulus:   Prime(),
		Threshold: 2,
		Secret:    secret,
	})
	require.NoError(t, err)
	defer session.Destroy()

	points, err := session.GenerateShares([]*big.Int{big.NewInt(11), big.NewInt(22), big.NewInt(33)})
	require.NoError(t, err)

	encoded := make([]string, len(points))
	for i, pt := range points {
		encoded[i], err = FormatShare([]shamir.Share{pt})
		require.NoError(t, err)
		assert.Len(t, encoded[i], PartLength)
	}

	got, err := sssago.Combine(encoded[1:])
	require.NoError(t, err)
	assert.Equal(t, "engine-issued", got)

	raw, err := Reconstruct(encoded[:2])
	require.NoError(t, err)
	assert.Equal(t, "engine-issued", string(raw))
}

func TestParseShare_Invalid(t *testing.T) {
	_, err := ParseShare("")
	assert.ErrorIs(t, err, ErrInvalidShare)

	_, err = ParseShare(strings.Repeat("A", PartLength-1))
	assert.ErrorIs(t, err, ErrInvalidShare)

	_, err = ParseShare(strings.Repeat("*", PartLength))
	assert.ErrorIs(t, err, ErrInvalidShare)

	// all-ones coordinates exceed the prime
	_, err = ParseShare(strings.Repeat("_", PartLength))
	assert.ErrorIs(t, err, ErrInvalidShare)
}

func TestReconstruct_Errors(t *testing.T) {
	short, err := sssago.Create(2, 3, "short")
	require.NoError(t, err)
	long, err := sssago.Create(2, 3, strings.Repeat("long secret ", 10))
	require.NoError(t, err)

	_, err = Reconstruct(short[:1])
	assert.ErrorIs(t, err, shamir.ErrInsufficientShares)

	_, err = Reconstruct([]string{short[0], long[1]})
	assert.ErrorIs(t, err, ErrInconsistentShares)

	_, err = Reconstruct([]string{short[0], short[0]})
	assert.ErrorIs(t, err, shamir.ErrDuplicateSharePoint)
}

func TestSplit_ParameterValidation(t *testing.T) {
	tests := []struct {
		name      string
		secret    []byte
		threshold int
		total     int
		want      error
	}{
		{"empty secret", nil, 2, 3, ErrEmptySecret},
		{"threshold too low", []byte("s"), 1, 3, ErrInvalidParameters},
		{"total below threshold", []byte("s"), 4, 3, ErrInvalidParameters},
		{"threshold too high", []byte("s"), 256, 256, ErrInvalidParameters},
		{"total too high", []byte("s"), 3, 300, ErrInvalidParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.secret, tt.threshold, tt.total)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
