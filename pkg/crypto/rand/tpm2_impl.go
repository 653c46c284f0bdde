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

//go:build tpm2

package rand

import (
	"fmt"
	"sync"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"
	"github.com/google/go-tpm/tpm2/transport/tcp"
	"github.com/google/go-tpm/tpmutil"
)

const (
	defaultTPMDevice         = "/dev/tpm0"
	defaultTPMMaxRequestSize = 32
	defaultSimulatorHost     = "localhost"
	defaultSimulatorPort     = 2321
)

type tpm2Resolver struct {
	rwc            transport.TPMCloser
	maxRequestSize int
	mu             sync.RWMutex
}

var _ Resolver = (*tpm2Resolver)(nil)

func newTPM2Resolver(config *TPM2Config) (Resolver, error) {
	cfg := TPM2Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.Device == "" {
		cfg.Device = defaultTPMDevice
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = defaultTPMMaxRequestSize
	}

	var rwc transport.TPMCloser
	if cfg.UseSimulator {
		if cfg.SimulatorHost == "" {
			cfg.SimulatorHost = defaultSimulatorHost
		}
		if cfg.SimulatorPort <= 0 {
			cfg.SimulatorPort = defaultSimulatorPort
		}
		// SWTPM listens for commands on port N and platform control on N+1
		cmdAddr := fmt.Sprintf("%s:%d", cfg.SimulatorHost, cfg.SimulatorPort)
		platAddr := fmt.Sprintf("%s:%d", cfg.SimulatorHost, cfg.SimulatorPort+1)

		conn, err := tcp.Open(tcp.Config{
			CommandAddress:  cmdAddr,
			PlatformAddress: platAddr,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to TPM simulator at %s: %w", cmdAddr, err)
		}
		rwc = conn
	} else {
		dev, err := tpmutil.OpenTPM(cfg.Device)
		if err != nil {
			return nil, fmt.Errorf("failed to open TPM2 device %s: %w", cfg.Device, err)
		}
		rwc = transport.FromReadWriteCloser(dev)
	}

	return &tpm2Resolver{
		rwc:            rwc,
		maxRequestSize: cfg.MaxRequestSize,
	}, nil
}

func tpm2Available() bool {
	return true
}

// Rand splits large requests into GetRandom calls of at most maxRequestSize
// bytes; the TPM may also return fewer bytes than requested per call.
func (t *tpm2Resolver) Rand(n int) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.rwc == nil {
		return nil, fmt.Errorf("TPM2 resolver closed")
	}

	result := make([]byte, 0, n)
	for len(result) < n {
		chunk := n - len(result)
		if chunk > t.maxRequestSize {
			chunk = t.maxRequestSize
		}

		getRandom := tpm2.GetRandom{BytesRequested: uint16(chunk)}
		rsp, err := getRandom.Execute(t.rwc)
		if err != nil {
			return nil, fmt.Errorf("TPM2 GetRandom failed: %w", err)
		}
		if len(rsp.RandomBytes.Buffer) == 0 {
			return nil, fmt.Errorf("TPM2 GetRandom returned no data")
		}
		result = append(result, rsp.RandomBytes.Buffer...)
	}

	return result[:n], nil
}

// Read implements io.Reader.
func (t *tpm2Resolver) Read(p []byte) (int, error) {
	return readFull(t, p)
}

func (t *tpm2Resolver) Source() Source {
	return &tpm2Source{resolver: t}
}

func (t *tpm2Resolver) Available() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rwc != nil
}

func (t *tpm2Resolver) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rwc != nil {
		err := t.rwc.Close()
		t.rwc = nil
		return err
	}
	return nil
}

type tpm2Source struct {
	resolver *tpm2Resolver
}

func (s *tpm2Source) Rand(n int) ([]byte, error) {
	return s.resolver.Rand(n)
}

func (s *tpm2Source) Available() bool {
	return s.resolver.Available()
}

func (s *tpm2Source) Close() error {
	return s.resolver.Close()
}
