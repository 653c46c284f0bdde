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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectResources(t *testing.T) {
	Enable()
	MemoryAllocBytes.Set(0)

	CollectResources()

	if v := testutil.ToFloat64(MemoryAllocBytes); v <= 0 {
		t.Errorf("Expected positive heap allocation, got %v", v)
	}
}

func TestCollectResourcesWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()
	MemoryAllocBytes.Set(0)

	CollectResources()

	if v := testutil.ToFloat64(MemoryAllocBytes); v != 0 {
		t.Errorf("Expected no update when disabled, got %v", v)
	}
}

func TestWriteTextfile(t *testing.T) {
	Enable()
	RecordOperation(OpSplit, StatusSuccess, 0.01)
	RecordSharesIssued(3)

	path := filepath.Join(t.TempDir(), "nested", "shamir.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	text := string(data)

	for _, name := range []string{
		"shamir_operations_total",
		"shamir_shares_issued_total",
		"shamir_memory_alloc_bytes",
		"shamir_last_export_timestamp_seconds",
	} {
		if !strings.Contains(text, name) {
			t.Errorf("Expected %s in textfile output", name)
		}
	}
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	if err := WriteTextfile(""); err == nil {
		t.Error("Expected error for empty path")
	}
}
