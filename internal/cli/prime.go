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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/field"
)

// primeCmd represents the prime command
func (r *runner) primeCmd() *cobra.Command {
	var (
		bits     string
		generate bool
	)

	cmd := &cobra.Command{
		Use:   "prime",
		Short: "Print a fixed prime or generate a new one",
		Example: `  shamir prime --bits bn254
  shamir prime --bits 2048 --generate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app

			if !cmd.Flags().Changed("bits") {
				bits = a.cfg.Sharing.BitWidth
			}
			bw, err := field.ParseBitWidth(bits)
			if err != nil {
				return err
			}
			fixed := a.cfg.Sharing.UseFixedPrime
			if cmd.Flags().Changed("generate") {
				fixed = !generate
			}

			p, err := a.svc.Prime(a.ctx, bw, fixed)
			if err != nil {
				return fmt.Errorf("failed to select prime: %w", err)
			}
			return a.printer().PrintPrime(p, fixed)
		},
	}

	cmd.Flags().StringVarP(&bits, "bits", "b", "256", "bit width (bn254, 256, 512, 1024, or any with --generate)")
	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "generate a fresh probable prime")

	return cmd
}
