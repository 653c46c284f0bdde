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

package rand

import (
	"sync"
)

// autoResolver pairs a primary resolver with an optional fallback.
// Preference order for ModeAuto: PKCS#11 > TPM2 > Software
type autoResolver struct {
	resolver Resolver
	fallback Resolver
	mu       sync.RWMutex
}

var _ Resolver = (*autoResolver)(nil)

func newAutoResolver(cfg *Config) (Resolver, error) {
	var resolver Resolver
	var fallback Resolver

	// PKCS#11 needs a module path; without one there is nothing to open
	if pkcs11Available() && cfg.PKCS11Config != nil {
		if pkcs11Resolver, err := newPKCS11Resolver(cfg.PKCS11Config); err == nil {
			if pkcs11Resolver.Available() {
				resolver = pkcs11Resolver
			} else {
				_ = pkcs11Resolver.Close()
			}
		}
	}

	if resolver == nil && tpm2Available() {
		if tpm2Resolver, err := newTPM2Resolver(cfg.TPM2Config); err == nil {
			if tpm2Resolver.Available() {
				resolver = tpm2Resolver
			} else {
				_ = tpm2Resolver.Close()
			}
		}
	}

	if resolver == nil {
		var err error
		resolver, err = newSoftwareResolver()
		if err != nil {
			return nil, err
		}
	}

	if cfg.FallbackMode != "" && cfg.FallbackMode != ModeAuto {
		fallback, _ = newResolver(&Config{Mode: cfg.FallbackMode})
	}

	return &autoResolver{
		resolver: resolver,
		fallback: fallback,
	}, nil
}

func (a *autoResolver) Rand(n int) ([]byte, error) {
	a.mu.RLock()
	resolver := a.resolver
	fallback := a.fallback
	a.mu.RUnlock()

	result, err := resolver.Rand(n)
	if err != nil && fallback != nil {
		result, err = fallback.Rand(n)
	}
	return result, err
}

// Read implements io.Reader.
func (a *autoResolver) Read(p []byte) (int, error) {
	return readFull(a, p)
}

func (a *autoResolver) Source() Source {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolver.Source()
}

func (a *autoResolver) Available() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolver.Available() || (a.fallback != nil && a.fallback.Available())
}

func (a *autoResolver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resolver != nil {
		_ = a.resolver.Close()
	}
	if a.fallback != nil {
		_ = a.fallback.Close()
	}
	return nil
}
