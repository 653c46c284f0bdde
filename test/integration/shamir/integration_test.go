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

//go:build integration

package shamir

import (
	"bytes"
	"context"
	"math/big"
	mrand "math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-shamir/internal/config"
	"github.com/jeremyhahn/go-shamir/pkg/correlation"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/encoding/bundle"
	"github.com/jeremyhahn/go-shamir/pkg/health"
	"github.com/jeremyhahn/go-shamir/pkg/logging"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/threshold/service"
)

// newService wires a service the way the CLI does, from default config
func newService(t *testing.T, logs *bytes.Buffer) (*service.Service, rand.Resolver) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	resolver, err := rand.NewResolver(cfg.RandConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = resolver.Close() })

	lc := cfg.LoggerConfig()
	lc.Level = "debug"
	logger, err := logging.New(lc, logs)
	require.NoError(t, err)

	return service.New(&service.Config{Logger: logger, Rand: resolver}), resolver
}

// TestSplitCombineThroughFilesIntegration distributes one bundle file per
// holder in every format and reconstructs from random subsets
func TestSplitCombineThroughFilesIntegration(t *testing.T) {
	var logs bytes.Buffer
	svc, _ := newService(t, &logs)
	ctx := correlation.With(context.Background(), "integration-1")

	secret, ok := new(big.Int).SetString("123456789012345678901234567890123456789", 10)
	require.True(t, ok)

	for _, bw := range field.SupportedBitWidths() {
		for _, format := range []bundle.Format{bundle.FormatJSON, bundle.FormatYAML, bundle.FormatPEM} {
			t.Run(bw.String()+"/"+string(format), func(t *testing.T) {
				b, err := svc.Split(ctx, &service.SplitRequest{
					BitWidth:      bw,
					UseFixedPrime: true,
					Threshold:     4,
					Secret:        secret,
					Count:         9,
				})
				require.NoError(t, err)

				dir := t.TempDir()
				var files []string
				for _, holder := range b.Split() {
					data, err := bundle.Marshal(holder, format)
					require.NoError(t, err)
					path := filepath.Join(dir, "share-"+holder.Shares[0].X+format.Extension())
					require.NoError(t, os.WriteFile(path, data, 0o600))
					files = append(files, path)
				}

				for round := 0; round < 5; round++ {
					mrand.Shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })
					var loaded []*bundle.Bundle
					for _, f := range files[:4] {
						data, err := os.ReadFile(f)
						require.NoError(t, err)
						lb, err := bundle.Unmarshal(data, "")
						require.NoError(t, err)
						loaded = append(loaded, lb)
					}
					got, err := svc.Combine(ctx, loaded...)
					require.NoError(t, err)
					assert.Equal(t, 0, got.Cmp(secret))
				}
			})
		}
	}

	assert.Contains(t, logs.String(), "integration-1")
	assert.NotContains(t, logs.String(), secret.String())
}

// TestGeneratedPrimeIntegration shares under freshly generated primes
func TestGeneratedPrimeIntegration(t *testing.T) {
	var logs bytes.Buffer
	svc, _ := newService(t, &logs)
	ctx := context.Background()

	for _, bits := range []field.BitWidth{64, 127, 521} {
		t.Run(bits.String(), func(t *testing.T) {
			secret := big.NewInt(424242)
			b, err := svc.Split(ctx, &service.SplitRequest{
				BitWidth:  bits,
				Threshold: 3,
				Secret:    secret,
				Count:     5,
			})
			require.NoError(t, err)
			assert.Equal(t, int(bits), b.BitWidth)

			holders := b.Split()
			got, err := svc.Combine(ctx, holders[4], holders[1], holders[2])
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(secret))
		})
	}
}

// TestRepairIntegration replaces a lost holder and mixes the repaired
// bundle with the survivors
func TestRepairIntegration(t *testing.T) {
	var logs bytes.Buffer
	svc, _ := newService(t, &logs)
	ctx := context.Background()

	b, err := svc.Split(ctx, &service.SplitRequest{
		BitWidth:      field.Bits512,
		UseFixedPrime: true,
		Threshold:     3,
		Secret:        big.NewInt(99),
		Count:         5,
	})
	require.NoError(t, err)
	holders := b.Split()

	// Holder x=3 is lost
	repaired, err := svc.Repair(ctx, big.NewInt(3), holders[0], holders[3], holders[4])
	require.NoError(t, err)
	assert.Equal(t, holders[2].Shares, repaired.Shares)

	got, err := svc.Combine(ctx, repaired, holders[1], holders[4])
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Int64())
}

// TestConcurrentSessionsIntegration runs independent sessions in parallel
// against one shared resolver
func TestConcurrentSessionsIntegration(t *testing.T) {
	var logs bytes.Buffer
	svc, _ := newService(t, &logs)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := context.Background()
			secret := big.NewInt(int64(1000 + i))
			b, err := svc.Split(ctx, &service.SplitRequest{
				BitWidth:      field.Bits256,
				UseFixedPrime: true,
				Threshold:     2,
				Secret:        secret,
				Count:         3,
			})
			if err != nil {
				errs <- err
				return
			}
			got, err := svc.Combine(ctx, b.Split()[1:]...)
			if err != nil {
				errs <- err
				return
			}
			if got.Cmp(secret) != 0 {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// TestSelfTestAndMetricsIntegration runs the self-tests against the
// configured resolver and exports the metrics textfile
func TestSelfTestAndMetricsIntegration(t *testing.T) {
	metrics.Enable()
	defer metrics.Disable()

	var logs bytes.Buffer
	svc, resolver := newService(t, &logs)

	results := health.NewDefaultChecker(resolver).Run(context.Background())
	assert.Equal(t, health.StatusHealthy, health.AggregateStatus(results))

	_, err := svc.Prime(context.Background(), field.BN254, true)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "shamir.prom")
	require.NoError(t, metrics.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "shamir_primes_total"))
}
