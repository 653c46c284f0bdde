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
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/encoding/bundle"
	"github.com/jeremyhahn/go-shamir/pkg/logging"
)

// Config represents the complete CLI configuration
type Config struct {
	Sharing SharingConfig `yaml:"sharing"`
	Random  RandomConfig  `yaml:"random"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Output  OutputConfig  `yaml:"output"`
}

// SharingConfig holds split defaults
type SharingConfig struct {
	BitWidth      string `yaml:"bit_width"` // bn254, 256, 512, 1024 or any width when generating
	UseFixedPrime bool   `yaml:"use_fixed_prime"`
	Threshold     uint8  `yaml:"threshold"`
	BundleFormat  string `yaml:"bundle_format"` // json, yaml, pem
}

// RandomConfig selects the randomness source
type RandomConfig struct {
	Mode         string        `yaml:"mode"` // auto, software, tpm2, pkcs11
	FallbackMode string        `yaml:"fallback_mode"`
	TPM2         *TPM2Config   `yaml:"tpm2,omitempty"`
	PKCS11       *PKCS11Config `yaml:"pkcs11,omitempty"`
}

// TPM2Config contains TPM 2.0 RNG settings
type TPM2Config struct {
	DevicePath    string `yaml:"device_path"`
	UseSimulator  bool   `yaml:"use_simulator"`
	SimulatorHost string `yaml:"simulator_host"`
	SimulatorPort int    `yaml:"simulator_port"`
}

// PKCS11Config contains PKCS#11 RNG settings
type PKCS11Config struct {
	Library string `yaml:"library"`
	Slot    uint   `yaml:"slot"`
	Pin     string `yaml:"pin"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls metrics export
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"` // node_exporter textfile collector path
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Sharing: SharingConfig{
			BitWidth:      "256",
			UseFixedPrime: true,
			Threshold:     3,
			BundleFormat:  string(bundle.FormatJSON),
		},
		Random: RandomConfig{
			Mode: string(rand.ModeAuto),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file over the defaults and applies
// environment variable overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	// Sharing
	if bw := os.Getenv("SHAMIR_BIT_WIDTH"); bw != "" {
		cfg.Sharing.BitWidth = bw
	}
	if fixed := os.Getenv("SHAMIR_FIXED_PRIME"); fixed != "" {
		v, err := strconv.ParseBool(fixed)
		if err != nil {
			log.Printf("Warning: invalid SHAMIR_FIXED_PRIME value %q, using %t: %v",
				fixed, cfg.Sharing.UseFixedPrime, err)
		} else {
			cfg.Sharing.UseFixedPrime = v
		}
	}
	if threshold := os.Getenv("SHAMIR_THRESHOLD"); threshold != "" {
		t, err := strconv.ParseUint(threshold, 10, 8)
		if err != nil {
			log.Printf("Warning: invalid SHAMIR_THRESHOLD value %q (must be 2-255), using %d: %v",
				threshold, cfg.Sharing.Threshold, err)
		} else {
			cfg.Sharing.Threshold = uint8(t)
		}
	}

	// Random
	if mode := os.Getenv("SHAMIR_RNG_MODE"); mode != "" {
		cfg.Random.Mode = mode
	}

	// Logging
	if level := os.Getenv("SHAMIR_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("SHAMIR_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	// Metrics
	if textfile := os.Getenv("SHAMIR_METRICS_FILE"); textfile != "" {
		cfg.Metrics.Textfile = textfile
	}

	// TPM2 settings
	if tpmPath := os.Getenv("TPM_DEVICE_PATH"); tpmPath != "" {
		if cfg.Random.TPM2 == nil {
			cfg.Random.TPM2 = &TPM2Config{}
		}
		cfg.Random.TPM2.DevicePath = tpmPath
	}

	// PKCS#11 settings
	if pkcs11Lib := os.Getenv("PKCS11_LIBRARY"); pkcs11Lib != "" {
		if cfg.Random.PKCS11 == nil {
			cfg.Random.PKCS11 = &PKCS11Config{}
		}
		cfg.Random.PKCS11.Library = pkcs11Lib
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	bw, err := c.BitWidth()
	if err != nil {
		return err
	}
	if c.Sharing.UseFixedPrime && !bw.HasFixedPrime() {
		return fmt.Errorf("no fixed prime for bit width %s (use one of %v or disable use_fixed_prime)",
			bw, field.SupportedBitWidths())
	}
	if !c.Sharing.UseFixedPrime && (int(bw) < field.MinGeneratedBits || int(bw) > field.MaxGeneratedBits) {
		return fmt.Errorf("generated bit width %s outside %d-%d", bw, field.MinGeneratedBits, field.MaxGeneratedBits)
	}
	if c.Sharing.Threshold < 2 {
		return fmt.Errorf("invalid threshold: %d (must be 2-255)", c.Sharing.Threshold)
	}
	if _, err := bundle.ParseFormat(c.Sharing.BundleFormat); err != nil {
		return err
	}

	// Validate randomness
	mode, err := rand.ParseMode(strings.ToLower(c.Random.Mode))
	if err != nil {
		return err
	}
	if c.Random.FallbackMode != "" {
		if _, err := rand.ParseMode(strings.ToLower(c.Random.FallbackMode)); err != nil {
			return fmt.Errorf("invalid fallback_mode: %w", err)
		}
	}
	if mode == rand.ModePKCS11 && (c.Random.PKCS11 == nil || c.Random.PKCS11.Library == "") {
		return fmt.Errorf("PKCS11 library is required when random mode is pkcs11")
	}

	// Validate logging
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	// Validate output
	switch strings.ToLower(c.Output.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format: %s (must be text or json)", c.Output.Format)
	}

	return nil
}

// BitWidth parses Sharing.BitWidth
func (c *Config) BitWidth() (field.BitWidth, error) {
	return field.ParseBitWidth(c.Sharing.BitWidth)
}

// BundleFormat parses Sharing.BundleFormat
func (c *Config) BundleFormat() (bundle.Format, error) {
	return bundle.ParseFormat(c.Sharing.BundleFormat)
}

// RandConfig converts the random section into a resolver configuration
func (c *Config) RandConfig() *rand.Config {
	cfg := &rand.Config{
		Mode:         rand.Mode(strings.ToLower(c.Random.Mode)),
		FallbackMode: rand.Mode(strings.ToLower(c.Random.FallbackMode)),
	}
	if t := c.Random.TPM2; t != nil {
		cfg.TPM2Config = &rand.TPM2Config{
			Device:        t.DevicePath,
			UseSimulator:  t.UseSimulator,
			SimulatorHost: t.SimulatorHost,
			SimulatorPort: t.SimulatorPort,
		}
	}
	if p := c.Random.PKCS11; p != nil {
		cfg.PKCS11Config = &rand.PKCS11Config{
			Module:      p.Library,
			SlotID:      p.Slot,
			PINRequired: p.Pin != "",
			PIN:         p.Pin,
		}
	}
	return cfg
}

// LoggerConfig converts the logging section for logging.New
func (c *Config) LoggerConfig() *logging.Config {
	return &logging.Config{
		Level:  c.Logging.Level,
		Format: strings.ToLower(c.Logging.Format),
	}
}
