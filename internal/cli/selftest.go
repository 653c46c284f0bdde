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
	"errors"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/correlation"
	"github.com/jeremyhahn/go-shamir/pkg/health"
)

// errSelfTestFailed is returned when any self-test is unhealthy
var errSelfTestFailed = errors.New("self-test failed")

func (r *runner) selftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run known-answer self-tests",
		Long: `Check the configured RNG, the fixed primes, Lagrange interpolation
against a known answer and a full split/combine round trip.

Exits non-zero when any check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app

			results := health.NewDefaultChecker(a.resolver).Run(a.ctx)
			status := health.AggregateStatus(results)
			a.logger.With(correlation.Attr(a.ctx)).
				Info("self-test finished", "status", string(status), "checks", len(results))

			if err := a.printer().PrintCheckResults(results); err != nil {
				return err
			}
			if status == health.StatusUnhealthy {
				return errSelfTestFailed
			}
			return nil
		},
	}
}
