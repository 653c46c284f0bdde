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
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
)

func points(xs ...int64) []*big.Int {
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = big.NewInt(x)
	}
	return out
}

func pick(shares []Share, idx ...int) []Share {
	out := make([]Share, len(idx))
	for i, j := range idx {
		out[i] = shares[j]
	}
	return out
}

func TestRoundTrip_FixedPrimes(t *testing.T) {
	for _, bw := range field.SupportedBitWidths() {
		t.Run(bw.String(), func(t *testing.T) {
			p, err := field.FixedPrime(bw)
			require.NoError(t, err)

			for _, threshold := range []uint8{2, 3, 5} {
				secret, err := rand.Uniform(rand.Reader, p)
				require.NoError(t, err)

				session, err := CreateSession(bw, true, threshold, secret)
				require.NoError(t, err)

				shares, err := session.GenerateShares(points(1, 2, 3, 4, 5, 6, 7))
				require.NoError(t, err)
				require.Len(t, shares, 7)

				got, err := ReconstructSecret(session.Modulus(), shares[:threshold])
				require.NoError(t, err)
				assert.Equal(t, 0, secret.Cmp(got), "t=%d: exact threshold", threshold)

				got, err = ReconstructSecret(session.Modulus(), shares)
				require.NoError(t, err)
				assert.Equal(t, 0, secret.Cmp(got), "t=%d: all shares", threshold)
				session.Destroy()
			}
		})
	}
}

func TestRoundTrip_GeneratedPrimes(t *testing.T) {
	for _, bits := range []field.BitWidth{32, 64, 128, 256} {
		t.Run(bits.String(), func(t *testing.T) {
			secret := big.NewInt(25)

			session, err := CreateSession(bits, false, 4, secret)
			require.NoError(t, err)
			defer session.Destroy()

			assert.Equal(t, int(bits), session.Modulus().BitLen())
			assert.False(t, session.FixedPrime())

			shares, err := session.GenerateShares(points(10, 20, 30, 40, 50))
			require.NoError(t, err)

			got, err := ReconstructSecret(session.Modulus(), pick(shares, 4, 1, 3, 0))
			require.NoError(t, err)
			assert.Equal(t, int64(25), got.Int64())
		})
	}
}

func TestConcreteScenario_256(t *testing.T) {
	session, err := CreateSession(field.Bits256, true, 3, big.NewInt(25))
	require.NoError(t, err)
	defer session.Destroy()

	shares, err := session.GenerateShares(points(4, 16, 13, 1, 12, 7))
	require.NoError(t, err)
	require.Len(t, shares, 6)

	for i, x := range []int64{4, 16, 13, 1, 12, 7} {
		assert.Equal(t, x, shares[i].X.Int64(), "shares keep input order")
	}

	// shares at x = 7, 4, 12
	got, err := ReconstructSecret(session.Modulus(), pick(shares, 5, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Int64())

	// every 3-subset reconstructs
	for a := 0; a < 6; a++ {
		for b := a + 1; b < 6; b++ {
			for c := b + 1; c < 6; c++ {
				got, err := ReconstructSecret(session.Modulus(), pick(shares, a, b, c))
				require.NoError(t, err)
				assert.Equal(t, int64(25), got.Int64(), "subset {%d,%d,%d}", a, b, c)
			}
		}
	}

	// two shares succeed but give a meaningless value
	below, err := ReconstructSecret(session.Modulus(), pick(shares, 5, 0))
	require.NoError(t, err)
	assert.NotEqual(t, 0, below.Cmp(big.NewInt(25)))
}

func TestThresholdTwoBoundary(t *testing.T) {
	secret := big.NewInt(123456789)
	session, err := CreateSession(field.BN254, true, 2, secret)
	require.NoError(t, err)
	defer session.Destroy()

	shares, err := session.GenerateShares(points(1, 2, 3))
	require.NoError(t, err)

	for _, pair := range [][]int{{0, 1}, {1, 2}, {2, 0}} {
		got, err := ReconstructSecret(session.Modulus(), pick(shares, pair...))
		require.NoError(t, err)
		assert.Equal(t, 0, secret.Cmp(got))
	}

	_, err = ReconstructSecret(session.Modulus(), shares[:1])
	assert.ErrorIs(t, err, ErrInsufficientShares)

	_, err = ReconstructSecret(session.Modulus(), nil)
	assert.ErrorIs(t, err, ErrInsufficientShares)
}

func TestThresholdCeiling_255(t *testing.T) {
	const threshold = math.MaxUint8
	secret := big.NewInt(25)
	session, err := CreateSession(field.Bits256, true, threshold, secret)
	require.NoError(t, err)
	defer session.Destroy()

	assert.Equal(t, uint8(255), session.Threshold())
	assert.Len(t, session.poly.coefficients, 255)
	assert.Equal(t, 254, session.poly.Degree())

	xs := make([]int64, threshold)
	for i := range xs {
		xs[i] = int64(i + 1)
	}
	shares, err := session.GenerateShares(points(xs...))
	require.NoError(t, err)
	require.Len(t, shares, threshold)

	got, err := ReconstructSecret(session.Modulus(), shares)
	require.NoError(t, err)
	assert.Equal(t, 0, secret.Cmp(got))

	// One share short of the threshold
	got, err = ReconstructSecret(session.Modulus(), shares[1:])
	require.NoError(t, err)
	assert.NotEqual(t, 0, secret.Cmp(got))
}

func TestReconstruct_PermutationInvariant(t *testing.T) {
	session, err := CreateSession(field.Bits512, true, 4, big.NewInt(424242))
	require.NoError(t, err)
	defer session.Destroy()

	shares, err := session.GenerateShares(points(3, 9, 27, 81))
	require.NoError(t, err)

	var permute func(prefix []int, rest []int)
	permute = func(prefix []int, rest []int) {
		if len(rest) == 0 {
			got, err := ReconstructSecret(session.Modulus(), pick(shares, prefix...))
			require.NoError(t, err)
			assert.Equal(t, int64(424242), got.Int64(), "order %v", prefix)
			return
		}
		for i := range rest {
			next := append(append([]int{}, rest[:i]...), rest[i+1:]...)
			permute(append(append([]int{}, prefix...), rest[i]), next)
		}
	}
	permute(nil, []int{0, 1, 2, 3})
}

func TestReconstruct_ReducesCoordinates(t *testing.T) {
	p := big.NewInt(97)
	poly := &Polynomial{coefficients: points(25, 3, 7), modulus: p}

	shares, err := GenerateShares(poly, points(1, 4, 12))
	require.NoError(t, err)

	// shift every coordinate by a multiple of p
	shifted := make([]Share, len(shares))
	for i, s := range shares {
		shifted[i] = Share{
			X: new(big.Int).Add(s.X, big.NewInt(97*3)),
			Y: new(big.Int).Sub(s.Y, big.NewInt(97*5)),
		}
	}

	got, err := ReconstructSecret(p, shifted)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Int64())
}

func TestReconstruct_Errors(t *testing.T) {
	p := big.NewInt(97)
	share := func(x, y int64) Share { return Share{X: big.NewInt(x), Y: big.NewInt(y)} }

	_, err := ReconstructSecret(p, []Share{share(4, 1), share(101, 2)})
	assert.ErrorIs(t, err, ErrDuplicateSharePoint)

	_, err = ReconstructSecret(p, []Share{share(4, 1), {X: big.NewInt(5)}})
	assert.ErrorIs(t, err, ErrInvalidShare)

	_, err = ReconstructSecret(nil, []Share{share(1, 1), share(2, 2)})
	assert.ErrorIs(t, err, ErrInvalidModulus)

	_, err = ReconstructSecret(big.NewInt(2), []Share{share(1, 1), share(2, 2)})
	assert.ErrorIs(t, err, ErrInvalidModulus)

	// composite modulus: 3 - 1 = 2 shares a factor with 10
	_, err = ReconstructSecret(big.NewInt(10), []Share{share(1, 1), share(3, 2)})
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestInterpolateAt_RepairsShare(t *testing.T) {
	session, err := CreateSession(field.Bits256, true, 3, big.NewInt(99))
	require.NoError(t, err)
	defer session.Destroy()

	shares, err := session.GenerateShares(points(1, 2, 3, 4))
	require.NoError(t, err)

	// recover the share at x=4 from the first three
	y, err := InterpolateAt(session.Modulus(), shares[:3], big.NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, 0, y.Cmp(shares[3].Y))

	// the repaired share is interchangeable with the original
	repaired := []Share{shares[0], shares[1], {X: big.NewInt(4), Y: y}}
	got, err := ReconstructSecret(session.Modulus(), repaired)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Int64())
}

// With t-1 shares the interpolated value is uniform over GF(p) whatever the
// secret is. Chi-square over p = 17 buckets, 16 degrees of freedom.
func TestBelowThreshold_RevealsNothing(t *testing.T) {
	const (
		trials   = 17 * 200
		critical = 60.0 // P(chi2_16 > 60) ~ 5e-7
	)
	p := big.NewInt(17)

	for _, secret := range []int64{0, 5, 16} {
		counts := make([]int, 17)
		for i := 0; i < trials; i++ {
			poly, err := NewPolynomial(big.NewInt(secret), 3, p, nil)
			require.NoError(t, err)
			shares, err := GenerateShares(poly, points(1, 2))
			require.NoError(t, err)

			got, err := ReconstructSecret(p, shares)
			require.NoError(t, err)
			counts[got.Int64()]++
		}

		expected := float64(trials) / 17
		var chi2 float64
		for _, c := range counts {
			d := float64(c) - expected
			chi2 += d * d / expected
		}
		assert.Less(t, chi2, critical, "secret %d: distribution of t-1 interpolation is not uniform: %v", secret, counts)
	}
}
