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

// Package metrics provides Prometheus instrumentation for go-shamir operations.
// It exposes operation counters, latency histograms, error counters and
// issuance counters. The CLI is short-lived, so metrics are exported with
// WriteTextfile for the node_exporter textfile collector rather than served.
package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all go-shamir metrics
	Namespace = "shamir"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelBits      = "bits"
	LabelSource    = "source"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpSplit       = "split"
	OpCombine     = "combine"
	OpRepair      = "repair"
	OpPrime       = "prime"
	OpSSSACombine = "sssa_combine"

	// Prime sources
	SourceFixed     = "fixed"
	SourceGenerated = "generated"
)

var (
	// OperationsTotal tracks the total number of operations by type and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of sharing operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks the duration of operations in seconds.
	// Generated primes at large widths dominate the upper buckets.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of sharing operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{LabelOperation},
	)

	// ErrorsTotal tracks errors by operation and error kind
	// (e.g. "insufficient_shares", "duplicate_share_point").
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// SharesIssuedTotal counts shares handed out by split and repair.
	SharesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shares_issued_total",
			Help:      "Total number of shares issued",
		},
	)

	// PrimesTotal counts moduli selected, by width and source.
	PrimesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "primes_total",
			Help:      "Total number of moduli selected by bit width and source",
		},
		[]string{LabelBits, LabelSource},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records an operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	secret, err := shamir.ReconstructSecret(p, shares)
//	RecordOperation(OpCombine, StatusOf(err), time.Since(start).Seconds())
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error event with the operation it occurred in.
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordSharesIssued adds n to the issued share counter.
func RecordSharesIssued(n int) {
	if !enabled.Load() || n <= 0 {
		return
	}
	SharesIssuedTotal.Add(float64(n))
}

// RecordPrime records a modulus selection.
func RecordPrime(bits int, fixed bool) {
	if !enabled.Load() {
		return
	}
	source := SourceGenerated
	if fixed {
		source = SourceFixed
	}
	PrimesTotal.WithLabelValues(fmt.Sprintf("%d", bits), source).Inc()
}

// StatusOf maps an error to StatusSuccess or StatusError.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
