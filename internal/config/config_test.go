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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/encoding/bundle"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shamir.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	path := writeConfig(t, `
sharing:
  bit_width: "bn254"
  use_fixed_prime: true
  threshold: 4
  bundle_format: "yaml"

random:
  mode: "tpm2"
  fallback_mode: "software"
  tpm2:
    device_path: "/dev/tpmrm0"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  textfile: "/var/lib/node_exporter/shamir.prom"

output:
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	bw, err := cfg.BitWidth()
	if err != nil || bw != field.BN254 {
		t.Errorf("BitWidth() = %v, %v, want bn254", bw, err)
	}
	if cfg.Sharing.Threshold != 4 {
		t.Errorf("Sharing.Threshold = %v, want 4", cfg.Sharing.Threshold)
	}
	if f, _ := cfg.BundleFormat(); f != bundle.FormatYAML {
		t.Errorf("BundleFormat() = %v, want yaml", f)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/shamir.prom" {
		t.Errorf("Metrics.Textfile = %v", cfg.Metrics.Textfile)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %v, want json", cfg.Output.Format)
	}

	rc := cfg.RandConfig()
	if rc.Mode != rand.ModeTPM2 || rc.FallbackMode != rand.ModeSoftware {
		t.Errorf("RandConfig() modes = %v/%v, want tpm2/software", rc.Mode, rc.FallbackMode)
	}
	if rc.TPM2Config == nil || rc.TPM2Config.Device != "/dev/tpmrm0" {
		t.Errorf("RandConfig().TPM2Config = %+v, want device /dev/tpmrm0", rc.TPM2Config)
	}
}

// TestLoad_PartialFileKeepsDefaults tests that omitted sections keep defaults
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
sharing:
  threshold: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Sharing.Threshold != 5 {
		t.Errorf("Sharing.Threshold = %v, want 5", cfg.Sharing.Threshold)
	}
	if cfg.Sharing.BitWidth != "256" || !cfg.Sharing.UseFixedPrime {
		t.Errorf("Sharing = %+v, want default 256-bit fixed prime", cfg.Sharing)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %v, want text", cfg.Logging.Format)
	}
}

// TestLoad_EmptyPath tests that an empty path yields the defaults
func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v, want nil", err)
	}
	if cfg.Sharing.Threshold != Default().Sharing.Threshold {
		t.Errorf("Sharing.Threshold = %v, want default", cfg.Sharing.Threshold)
	}
}

// TestLoad_FileNotFound tests loading a non-existent file
func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v, want read error", err)
	}
}

// TestLoad_InvalidYAML tests loading a malformed file
func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "sharing: [unterminated")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

// TestApplyEnvOverrides tests environment variable overrides
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SHAMIR_BIT_WIDTH", "512")
	t.Setenv("SHAMIR_FIXED_PRIME", "false")
	t.Setenv("SHAMIR_THRESHOLD", "7")
	t.Setenv("SHAMIR_RNG_MODE", "pkcs11")
	t.Setenv("SHAMIR_LOG_LEVEL", "warn")
	t.Setenv("SHAMIR_LOG_FORMAT", "json")
	t.Setenv("SHAMIR_METRICS_FILE", "/tmp/shamir.prom")
	t.Setenv("TPM_DEVICE_PATH", "/dev/tpm1")
	t.Setenv("PKCS11_LIBRARY", "/usr/lib/softhsm/libsofthsm2.so")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Sharing.BitWidth != "512" {
		t.Errorf("Sharing.BitWidth = %v, want 512", cfg.Sharing.BitWidth)
	}
	if cfg.Sharing.UseFixedPrime {
		t.Error("Sharing.UseFixedPrime = true, want false")
	}
	if cfg.Sharing.Threshold != 7 {
		t.Errorf("Sharing.Threshold = %v, want 7", cfg.Sharing.Threshold)
	}
	if cfg.Random.Mode != "pkcs11" {
		t.Errorf("Random.Mode = %v, want pkcs11", cfg.Random.Mode)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want warn/json", cfg.Logging)
	}
	if cfg.Metrics.Textfile != "/tmp/shamir.prom" {
		t.Errorf("Metrics.Textfile = %v", cfg.Metrics.Textfile)
	}
	if cfg.Random.TPM2 == nil || cfg.Random.TPM2.DevicePath != "/dev/tpm1" {
		t.Errorf("Random.TPM2 = %+v, want /dev/tpm1", cfg.Random.TPM2)
	}
	if cfg.Random.PKCS11 == nil || cfg.Random.PKCS11.Library != "/usr/lib/softhsm/libsofthsm2.so" {
		t.Errorf("Random.PKCS11 = %+v", cfg.Random.PKCS11)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

// TestApplyEnvOverrides_InvalidValues tests that bad values are ignored
func TestApplyEnvOverrides_InvalidValues(t *testing.T) {
	t.Setenv("SHAMIR_FIXED_PRIME", "maybe")
	t.Setenv("SHAMIR_THRESHOLD", "300")

	cfg := Default()
	applyEnvOverrides(cfg)

	if !cfg.Sharing.UseFixedPrime {
		t.Error("Sharing.UseFixedPrime changed by invalid value")
	}
	if cfg.Sharing.Threshold != 3 {
		t.Errorf("Sharing.Threshold = %v, want unchanged 3", cfg.Sharing.Threshold)
	}
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"generated width", func(c *Config) { c.Sharing.BitWidth = "384"; c.Sharing.UseFixedPrime = false }, ""},
		{"bad bit width", func(c *Config) { c.Sharing.BitWidth = "wide" }, "unsupported bit width"},
		{"no fixed prime", func(c *Config) { c.Sharing.BitWidth = "384" }, "no fixed prime"},
		{"generated too small", func(c *Config) { c.Sharing.BitWidth = "8"; c.Sharing.UseFixedPrime = false }, "outside"},
		{"threshold", func(c *Config) { c.Sharing.Threshold = 1 }, "invalid threshold"},
		{"bundle format", func(c *Config) { c.Sharing.BundleFormat = "xml" }, "unsupported format"},
		{"rng mode", func(c *Config) { c.Random.Mode = "dice" }, "unknown RNG mode"},
		{"fallback mode", func(c *Config) { c.Random.FallbackMode = "dice" }, "invalid fallback_mode"},
		{"pkcs11 without library", func(c *Config) { c.Random.Mode = "pkcs11" }, "PKCS11 library"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"output format", func(c *Config) { c.Output.Format = "csv" }, "invalid output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestRandConfig_PKCS11 tests PKCS#11 conversion
func TestRandConfig_PKCS11(t *testing.T) {
	cfg := Default()
	cfg.Random.Mode = "PKCS11"
	cfg.Random.PKCS11 = &PKCS11Config{Library: "/lib/hsm.so", Slot: 2, Pin: "1234"}

	rc := cfg.RandConfig()
	if rc.Mode != rand.ModePKCS11 {
		t.Errorf("Mode = %v, want pkcs11", rc.Mode)
	}
	p := rc.PKCS11Config
	if p == nil || p.Module != "/lib/hsm.so" || p.SlotID != 2 || !p.PINRequired || p.PIN != "1234" {
		t.Errorf("PKCS11Config = %+v", p)
	}
}

// TestLoggerConfig tests logging conversion
func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "JSON"
	lc := cfg.LoggerConfig()
	if lc.Level != "info" || lc.Format != "json" {
		t.Errorf("LoggerConfig() = %+v, want info/json", lc)
	}
}
