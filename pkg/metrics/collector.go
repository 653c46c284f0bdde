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

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MemoryAllocBytes is the heap in use when the snapshot was taken.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Bytes of allocated heap objects at export time",
		},
	)

	// GCPauseTotalSeconds is the cumulative GC pause time of the process.
	GCPauseTotalSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gc_pause_total_seconds",
			Help:      "Cumulative time spent in GC stop-the-world pauses",
		},
	)

	// LastExportTimestamp is the unix time of the last textfile export.
	LastExportTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_export_timestamp_seconds",
			Help:      "Unix time of the last metrics export",
		},
	)
)

// CollectResources snapshots process resource gauges.
func CollectResources() {
	if !enabled.Load() {
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	MemoryAllocBytes.Set(float64(m.Alloc))
	GCPauseTotalSeconds.Set(float64(m.PauseTotalNs) / 1e9)
}

// WriteTextfile snapshots resources and writes every registered metric to
// path in the Prometheus text exposition format. The write is atomic.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(prometheus.DefaultGatherer, path)
}

// WriteTextfileFrom is WriteTextfile for an arbitrary gatherer.
func WriteTextfileFrom(g prometheus.Gatherer, path string) error {
	if path == "" {
		return fmt.Errorf("metrics: textfile path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("metrics: failed to create %s: %w", dir, err)
		}
	}

	CollectResources()
	if enabled.Load() {
		LastExportTimestamp.Set(float64(time.Now().Unix()))
	}

	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: failed to write textfile: %w", err)
	}
	return nil
}
