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

// Package service is the instrumented facade over the sharing engine. It
// turns requests into sessions and share bundles, logs every operation with
// its correlation ID and records Prometheus metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/jeremyhahn/go-shamir/pkg/correlation"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/encoding/bundle"
	"github.com/jeremyhahn/go-shamir/pkg/logging"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/threshold/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/threshold/sssa"
)

// MaxShares bounds the number of shares a single Split may issue.
const MaxShares = 1 << 16

var (
	// ErrInvalidRequest is returned for a malformed request.
	ErrInvalidRequest = errors.New("service: invalid request")

	// ErrNoBundles is returned when Combine or Repair receive no input.
	ErrNoBundles = errors.New("service: no share bundles")
)

// Config configures a Service.
type Config struct {
	// Logger receives operation records. Defaults to a discarding logger.
	Logger *logging.Logger

	// Rand supplies all randomness. Defaults to rand.Reader.
	Rand io.Reader

	// DisableMetrics stops the service from recording Prometheus metrics.
	DisableMetrics bool
}

// Service runs split, combine, repair and prime operations.
// It is safe for concurrent use.
type Service struct {
	logger  *logging.Logger
	rng     io.Reader
	metrics bool
}

// New creates a Service. A nil config selects every default.
func New(config *Config) *Service {
	if config == nil {
		config = &Config{}
	}
	s := &Service{
		logger:  config.Logger,
		rng:     config.Rand,
		metrics: !config.DisableMetrics,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.rng == nil {
		s.rng = rand.Reader
	}
	return s
}

// SplitRequest describes a sharing. Exactly one of Points and Count must be
// set; Count issues shares at x = 1..Count.
type SplitRequest struct {
	BitWidth      field.BitWidth
	UseFixedPrime bool

	// Modulus overrides BitWidth and UseFixedPrime when set.
	Modulus *big.Int

	Threshold uint8
	Secret    *big.Int
	Points    []*big.Int
	Count     int
}

func (r *SplitRequest) points() ([]*big.Int, error) {
	switch {
	case len(r.Points) > 0 && r.Count > 0:
		return nil, fmt.Errorf("%w: points and count are mutually exclusive", ErrInvalidRequest)
	case len(r.Points) > 0:
		return r.Points, nil
	case r.Count > 0:
		if r.Count > MaxShares {
			return nil, fmt.Errorf("%w: count %d exceeds %d", ErrInvalidRequest, r.Count, MaxShares)
		}
		pts := make([]*big.Int, r.Count)
		for i := range pts {
			pts[i] = big.NewInt(int64(i + 1))
		}
		return pts, nil
	default:
		return nil, fmt.Errorf("%w: points or count required", ErrInvalidRequest)
	}
}

// Split creates a session, issues one share per point and destroys the
// session. Fewer points than the threshold is rejected since the secret
// could never be recovered.
func (s *Service) Split(ctx context.Context, req *SplitRequest) (b *bundle.Bundle, err error) {
	start := time.Now()
	log := s.log(ctx, metrics.OpSplit)
	defer func() { s.finish(log, metrics.OpSplit, start, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	points, err := req.points()
	if err != nil {
		return nil, err
	}
	if len(points) < int(req.Threshold) {
		return nil, fmt.Errorf("%w: %d points for threshold %d", ErrInvalidRequest, len(points), req.Threshold)
	}

	session, err := shamir.NewSession(&shamir.SessionConfig{
		BitWidth:      req.BitWidth,
		UseFixedPrime: req.UseFixedPrime,
		Modulus:       req.Modulus,
		Threshold:     req.Threshold,
		Secret:        req.Secret,
		Points:        points,
		Rand:          s.rng,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}
	defer session.Destroy()
	if req.Modulus == nil {
		s.recordPrime(session.BitWidth(), session.FixedPrime())
	}

	shares, err := session.GenerateShares(points)
	if err != nil {
		return nil, err
	}
	if s.metrics {
		metrics.RecordSharesIssued(len(shares))
	}

	log.Info("secret split",
		"session_id", session.ID().String(),
		"bits", session.Modulus().BitLen(),
		"threshold", session.Threshold(),
		"shares", len(shares))
	return bundle.FromSession(session, shares), nil
}

// Combine merges bundles and reconstructs the secret. When the bundles
// record a threshold, fewer shares fail with shamir.ErrInsufficientShares
// instead of returning an unrelated field element.
func (s *Service) Combine(ctx context.Context, bundles ...*bundle.Bundle) (secret *big.Int, err error) {
	start := time.Now()
	log := s.log(ctx, metrics.OpCombine)
	defer func() { s.finish(log, metrics.OpCombine, start, err) }()

	merged, modulus, shares, err := s.load(ctx, bundles)
	if err != nil {
		return nil, err
	}

	secret, err = shamir.ReconstructSecret(modulus, shares)
	if err != nil {
		return nil, err
	}
	log.Info("secret reconstructed",
		"session_id", merged.SessionID,
		"modulus_id", merged.ModulusID,
		"shares", len(shares))
	return secret, nil
}

// Repair issues a replacement share at x from the shares in bundles. x must
// be in (0, p) and must not already be held.
func (s *Service) Repair(ctx context.Context, x *big.Int, bundles ...*bundle.Bundle) (b *bundle.Bundle, err error) {
	start := time.Now()
	log := s.log(ctx, metrics.OpRepair)
	defer func() { s.finish(log, metrics.OpRepair, start, err) }()

	if x == nil {
		return nil, fmt.Errorf("%w: nil x", shamir.ErrInvalidSharePoint)
	}
	merged, modulus, shares, err := s.load(ctx, bundles)
	if err != nil {
		return nil, err
	}
	if x.Sign() <= 0 || x.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("%w: x must be in (0, p)", shamir.ErrInvalidSharePoint)
	}
	for _, sh := range shares {
		if sh.X.Cmp(x) == 0 {
			return nil, fmt.Errorf("%w: x=%s is already held", shamir.ErrDuplicateSharePoint, x.Text(16))
		}
	}

	y, err := shamir.InterpolateAt(modulus, shares, x)
	if err != nil {
		return nil, err
	}
	if s.metrics {
		metrics.RecordSharesIssued(1)
	}
	log.Info("share repaired",
		"session_id", merged.SessionID,
		"modulus_id", merged.ModulusID,
		"x", x.Text(16))
	return bundle.New(merged.SessionID, merged.Threshold, modulus,
		[]shamir.Share{{X: new(big.Int).Set(x), Y: y}}), nil
}

// Prime returns the fixed prime for bw or generates a fresh one.
func (s *Service) Prime(ctx context.Context, bw field.BitWidth, useFixed bool) (p *big.Int, err error) {
	start := time.Now()
	log := s.log(ctx, metrics.OpPrime)
	defer func() { s.finish(log, metrics.OpPrime, start, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	p, err = field.SelectModulus(s.rng, bw, useFixed)
	if err != nil {
		return nil, err
	}
	s.recordPrime(bw, useFixed)
	log.Debug("modulus selected", "bits", p.BitLen(), "fixed", useFixed)
	return p, nil
}

// SSSACombine reconstructs the raw value behind sssa-golang shares.
func (s *Service) SSSACombine(ctx context.Context, shares []string) (raw []byte, err error) {
	start := time.Now()
	log := s.log(ctx, metrics.OpSSSACombine)
	defer func() { s.finish(log, metrics.OpSSSACombine, start, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	raw, err = sssa.Reconstruct(shares)
	if err != nil {
		return nil, err
	}
	log.Info("sssa shares combined", "shares", len(shares))
	return raw, nil
}

// load merges bundles and applies the recorded threshold.
func (s *Service) load(ctx context.Context, bundles []*bundle.Bundle) (*bundle.Bundle, *big.Int, []shamir.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	if len(bundles) == 0 {
		return nil, nil, nil, ErrNoBundles
	}
	merged, err := bundle.Merge(bundles...)
	if err != nil {
		return nil, nil, nil, err
	}
	modulus, err := merged.ModulusInt()
	if err != nil {
		return nil, nil, nil, err
	}
	shares, err := merged.ToShares()
	if err != nil {
		return nil, nil, nil, err
	}
	if merged.Threshold != 0 && len(shares) < int(merged.Threshold) {
		return nil, nil, nil, fmt.Errorf("%w: have %d, threshold is %d",
			shamir.ErrInsufficientShares, len(shares), merged.Threshold)
	}
	return merged, modulus, shares, nil
}

func (s *Service) log(ctx context.Context, op string) *logging.Logger {
	return s.logger.With(correlation.Attr(ctx), "operation", op)
}

func (s *Service) finish(log *logging.Logger, op string, start time.Time, err error) {
	if err != nil {
		log.Warn("operation failed", "error", err.Error(), "kind", ErrorKind(err))
	}
	if !s.metrics {
		return
	}
	metrics.RecordOperation(op, metrics.StatusOf(err), time.Since(start).Seconds())
	if err != nil {
		metrics.RecordError(op, ErrorKind(err))
	}
}

func (s *Service) recordPrime(bw field.BitWidth, fixed bool) {
	if s.metrics {
		metrics.RecordPrime(int(bw), fixed)
	}
}

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidRequest, "invalid_request"},
	{ErrNoBundles, "no_bundles"},
	{bundle.ErrUnsupportedVersion, "unsupported_version"},
	{bundle.ErrModulusMismatch, "modulus_mismatch"},
	{bundle.ErrThresholdMismatch, "threshold_mismatch"},
	{bundle.ErrSessionMismatch, "session_mismatch"},
	{bundle.ErrConflictingShares, "conflicting_shares"},
	{bundle.ErrInvalidBundle, "invalid_bundle"},
	{sssa.ErrInvalidShare, "invalid_share"},
	{sssa.ErrInconsistentShares, "inconsistent_shares"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "deadline_exceeded"},
}

// ErrorKind extends shamir.Kind with the bundle, sssa and request errors
// surfaced by the service.
func ErrorKind(err error) string {
	if k := shamir.Kind(err); k != "internal" {
		return k
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
