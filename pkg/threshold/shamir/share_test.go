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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShares_PointValidation(t *testing.T) {
	poly := &Polynomial{coefficients: points(25, 3, 7), modulus: big.NewInt(97)}

	tests := []struct {
		name   string
		points []*big.Int
		want   error
	}{
		{"zero", points(1, 0, 2), ErrInvalidSharePoint},
		{"multiple of p", points(1, 97), ErrInvalidSharePoint},
		{"nil", []*big.Int{big.NewInt(1), nil}, ErrInvalidSharePoint},
		{"duplicate", points(4, 5, 4), ErrDuplicateSharePoint},
		{"duplicate modulo p", points(4, 101), ErrDuplicateSharePoint},
		{"negative duplicate", points(96, -1), ErrDuplicateSharePoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := GenerateShares(poly, tt.points)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, shares, "no partial output on failure")
		})
	}
}

func TestGenerateShares_OrderAndValues(t *testing.T) {
	poly := &Polynomial{coefficients: points(25, 3, 7), modulus: big.NewInt(97)}

	shares, err := GenerateShares(poly, points(12, 1, 4))
	require.NoError(t, err)
	require.Len(t, shares, 3)

	assert.Equal(t, int64(12), shares[0].X.Int64())
	assert.Equal(t, int64(2), shares[0].Y.Int64())
	assert.Equal(t, int64(1), shares[1].X.Int64())
	assert.Equal(t, int64(35), shares[1].Y.Int64())
	assert.Equal(t, int64(4), shares[2].X.Int64())
	assert.Equal(t, int64(52), shares[2].Y.Int64())
}

func TestGenerateShares_Empty(t *testing.T) {
	poly := &Polynomial{coefficients: points(25, 3), modulus: big.NewInt(97)}

	shares, err := GenerateShares(poly, nil)
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestShare_StringOmitsY(t *testing.T) {
	s := Share{X: big.NewInt(7), Y: big.NewInt(123456)}
	assert.Equal(t, "Share{X: 7}", s.String())
	assert.NoError(t, s.Validate())
	assert.ErrorIs(t, Share{X: big.NewInt(1)}.Validate(), ErrInvalidShare)
}
