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

// Package rand provides the cryptographically secure randomness used to build
// sharing polynomials and to generate probable primes.
//
// # Overview
//
// Every consumer of randomness in go-shamir takes an io.Reader. This package
// supplies Resolvers, which are io.Readers backed by a configurable source:
//   - Auto: picks the best available source (PKCS#11 > TPM2 > Software)
//   - Software: crypto/rand from the standard library
//   - TPM2: the TPM 2.0 GetRandom command (build tag "tpm2")
//   - PKCS#11: C_GenerateRandom on an HSM slot (build tag "pkcs11")
//
// A sharing session acquires a Resolver for the duration of polynomial
// construction and closes it afterwards:
//
//	rng, err := rand.NewResolver(rand.ModeAuto)
//	if err != nil {
//	    return err
//	}
//	defer rng.Close()
//
//	coeff, err := rand.Uniform(rng, modulus)
//
// # Big integers
//
// Uniform draws a field element uniformly from [0, bound) by rejection
// sampling and Bits draws an integer of an exact bit length. Both read from
// any io.Reader, so tests may substitute a deterministic reader while
// production code always passes a Resolver or Reader.
//
// # Thread Safety
//
// All Resolver implementations are safe for concurrent use.
package rand

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Mode specifies which RNG source to use.
type Mode string

const (
	// ModeAuto automatically selects the best available RNG.
	ModeAuto Mode = "auto"

	// ModeSoftware uses crypto/rand
	ModeSoftware Mode = "software"

	// ModeTPM2 uses the TPM 2.0 hardware RNG
	ModeTPM2 Mode = "tpm2"

	// ModePKCS11 uses a PKCS#11 HSM RNG
	ModePKCS11 Mode = "pkcs11"
)

// Reader is a process-wide software Resolver, the default source wherever a
// caller does not supply one.
var Reader io.Reader = &SoftwareResolver{}

// Config contains RNG configuration.
type Config struct {
	// Mode specifies the primary RNG source to use.
	// Defaults to ModeAuto if not specified.
	Mode Mode

	// FallbackMode specifies the RNG source to use if primary mode fails.
	// If not specified, failures are returned as errors.
	FallbackMode Mode

	// TPM2Config contains TPM2-specific configuration (if Mode=ModeTPM2).
	TPM2Config *TPM2Config

	// PKCS11Config contains PKCS#11-specific configuration (if Mode=ModePKCS11).
	PKCS11Config *PKCS11Config
}

// TPM2Config contains configuration for TPM2 RNG.
type TPM2Config struct {
	// Device path to the TPM device (default: "/dev/tpm0")
	Device string

	// MaxRequestSize limits the bytes requested per GetRandom call.
	// Default: 32
	MaxRequestSize int

	// UseSimulator connects to a TCP simulator instead of Device.
	UseSimulator bool

	// SimulatorHost defaults to "localhost"
	SimulatorHost string

	// SimulatorPort defaults to 2321 (SWTPM command port)
	SimulatorPort int
}

// PKCS11Config contains configuration for PKCS#11 RNG.
type PKCS11Config struct {
	// Module path to the PKCS#11 library (e.g., /usr/lib/softhsm/libsofthsm2.so)
	Module string

	// SlotID specifies the PKCS#11 slot containing the RNG
	SlotID uint

	// PINRequired indicates if the slot requires PIN authentication
	PINRequired bool

	// PIN is the authentication PIN (if PINRequired is true)
	PIN string
}

// Source represents a raw random number generator.
type Source interface {
	// Rand returns n random bytes.
	Rand(n int) ([]byte, error)

	// Available returns true if this RNG source is available and ready.
	Available() bool

	// Close releases any resources held by the source.
	Close() error
}

// Resolver is the randomness resource handed to sharing sessions.
//
// Resolver implements io.Reader so it can be passed anywhere crypto/rand.Reader
// is accepted.
type Resolver interface {
	// Rand returns n random bytes from the configured RNG source.
	// If the primary source fails and FallbackMode is configured,
	// tries the fallback source.
	Rand(n int) ([]byte, error)

	// Read fills p with random bytes. It returns len(p) or an error.
	Read(p []byte) (n int, err error)

	// Source returns the underlying RNG Source being used.
	Source() Source

	// Available returns true if at least one RNG source is available.
	Available() bool

	// Close closes the resolver and releases any resources.
	Close() error
}

// NewResolver creates a new RNG resolver. config may be nil, a Mode or a
// *Config; nil selects ModeAuto.
func NewResolver(config interface{}) (Resolver, error) {
	cfg := normalizeConfig(config)
	return newResolver(cfg)
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeSoftware, ModeTPM2, ModePKCS11:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown RNG mode: %s", s)
	}
}

func normalizeConfig(config interface{}) *Config {
	if config == nil {
		return &Config{Mode: ModeAuto}
	}

	switch v := config.(type) {
	case Mode:
		return &Config{Mode: v}
	case *Config:
		if v == nil {
			return &Config{Mode: ModeAuto}
		}
		cfg := *v
		if cfg.Mode == "" {
			cfg.Mode = ModeAuto
		}
		return &cfg
	default:
		return &Config{Mode: ModeAuto}
	}
}

func newResolver(cfg *Config) (Resolver, error) {
	switch cfg.Mode {
	case ModeAuto:
		return newAutoResolver(cfg)
	case ModeSoftware:
		return newSoftwareResolver()
	case ModeTPM2:
		return withFallback(newTPM2Resolver(cfg.TPM2Config))(cfg)
	case ModePKCS11:
		return withFallback(newPKCS11Resolver(cfg.PKCS11Config))(cfg)
	default:
		return nil, fmt.Errorf("unknown RNG mode: %s", cfg.Mode)
	}
}

// withFallback resolves an explicit hardware mode, substituting the
// configured fallback when the hardware cannot be opened.
func withFallback(primary Resolver, err error) func(*Config) (Resolver, error) {
	return func(cfg *Config) (Resolver, error) {
		if err == nil {
			if cfg.FallbackMode == "" {
				return primary, nil
			}
			fallback, ferr := newResolver(&Config{Mode: cfg.FallbackMode})
			if ferr != nil {
				_ = primary.Close()
				return nil, fmt.Errorf("failed to create fallback RNG: %w", ferr)
			}
			return &autoResolver{resolver: primary, fallback: fallback}, nil
		}
		if cfg.FallbackMode == "" {
			return nil, err
		}
		return newResolver(&Config{Mode: cfg.FallbackMode})
	}
}

// readFull adapts a Rand-style source to io.Reader semantics.
func readFull(r interface{ Rand(int) ([]byte, error) }, p []byte) (int, error) {
	data, err := r.Rand(len(p))
	if err != nil {
		return 0, err
	}
	if len(data) != len(p) {
		return 0, fmt.Errorf("short random read: got %d of %d bytes", len(data), len(p))
	}
	return copy(p, data), nil
}

// SoftwareResolver uses crypto/rand from the Go standard library.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

func newSoftwareResolver() (Resolver, error) {
	return &SoftwareResolver{}, nil
}

func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

// Read implements io.Reader.
func (s *SoftwareResolver) Read(p []byte) (n int, err error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Source() Source {
	return &softwareSource{}
}

func (s *SoftwareResolver) Available() bool {
	return true
}

func (s *SoftwareResolver) Close() error {
	return nil
}

type softwareSource struct{}

func (s *softwareSource) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

func (s *softwareSource) Available() bool {
	return true
}

func (s *softwareSource) Close() error {
	return nil
}
