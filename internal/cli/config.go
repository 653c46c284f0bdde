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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-shamir/internal/config"
	"github.com/jeremyhahn/go-shamir/pkg/correlation"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/logging"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/threshold/service"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the YAML configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose enables debug logging
	Verbose bool

	// MetricsFile overrides the metrics textfile path
	MetricsFile string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: string(OutputFormatText),
	}
}

// app is everything a command needs, built once per invocation from
// the global flags and the configuration file.
type app struct {
	cfg      *config.Config
	flags    *Config
	logger   *logging.Logger
	resolver rand.Resolver
	svc      *service.Service
	ctx      context.Context
	stdout   io.Writer
	stderr   io.Writer
}

// newApp loads the configuration file, applies flag overrides and
// wires the logger, RNG and service.
func newApp(ctx context.Context, flags *Config, outputChanged bool, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if outputChanged {
		cfg.Output.Format = flags.OutputFormat
	} else {
		flags.OutputFormat = cfg.Output.Format
	}
	if flags.Verbose {
		cfg.Logging.Level = "debug"
	}
	if flags.MetricsFile != "" {
		cfg.Metrics.Textfile = flags.MetricsFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LoggerConfig(), stderr)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	resolver, err := rand.NewResolver(cfg.RandConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open RNG: %w", err)
	}
	logger.Debug("rng ready", "mode", cfg.Random.Mode)

	ctx = correlation.Ensure(ctx)

	return &app{
		cfg:      cfg,
		flags:    flags,
		logger:   logger,
		resolver: resolver,
		svc: service.New(&service.Config{
			Logger:         logger,
			Rand:           resolver,
			DisableMetrics: !cfg.Metrics.Enabled,
		}),
		ctx:    ctx,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// printer returns a Printer for command results
func (a *app) printer() *Printer {
	return NewPrinter(a.cfg.Output.Format, a.stdout)
}

// close exports metrics when configured and releases the RNG
func (a *app) close() error {
	var errs []error
	if a.cfg.Metrics.Enabled && a.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		} else {
			a.logger.Debug("metrics exported", "path", a.cfg.Metrics.Textfile)
		}
	}
	if a.resolver != nil {
		if err := a.resolver.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close RNG: %w", err))
		}
	}
	return errors.Join(errs...)
}
