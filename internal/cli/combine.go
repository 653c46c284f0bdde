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

	"github.com/jeremyhahn/go-shamir/pkg/encoding/bundle"
)

// combineCmd represents the combine command
func (r *runner) combineCmd() *cobra.Command {
	var asHex bool

	cmd := &cobra.Command{
		Use:   "combine FILE...",
		Short: "Reconstruct a secret from share bundles",
		Long: `Reconstruct a secret from share bundles (json, yaml or pem; detected
automatically). Bundles must come from the same sharing. When the bundles
record a threshold, fewer shares are rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app

			bundles, err := readBundles(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			a.printVerbose("Combining %d bundle(s)", len(bundles))

			secret, err := a.svc.Combine(a.ctx, bundles...)
			if err != nil {
				return fmt.Errorf("failed to reconstruct secret: %w", err)
			}
			return a.printer().PrintSecret(secret, asHex)
		},
	}

	cmd.Flags().BoolVar(&asHex, "hex", false, "print the secret in hex")

	return cmd
}

// repairCmd represents the repair command
func (r *runner) repairCmd() *cobra.Command {
	var (
		x      string
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "repair --x X FILE...",
		Short: "Issue a replacement share from existing shares",
		Long: `Issue a replacement share at x from at least threshold existing shares,
without reconstructing the secret on disk. Use it to replace a lost share
or to enroll a new holder.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app

			if !cmd.Flags().Changed("format") {
				format = a.cfg.Sharing.BundleFormat
			}
			bf, err := bundle.ParseFormat(format)
			if err != nil {
				return err
			}
			point, err := parseInt(x)
			if err != nil {
				return fmt.Errorf("invalid --x: %w", err)
			}
			bundles, err := readBundles(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			repaired, err := a.svc.Repair(a.ctx, point, bundles...)
			if err != nil {
				return fmt.Errorf("failed to repair share: %w", err)
			}
			if err := writeBundle(out, a.stdout, repaired, bf); err != nil {
				return err
			}
			if out != "" {
				return a.printer().PrintSuccess(fmt.Sprintf("Share x=%s written to %s", repaired.Shares[0].X, out))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&x, "x", "", "x-coordinate of the new share")
	cmd.Flags().StringVar(&out, "out", "", "write the new share bundle to this file")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "bundle format (json, yaml, pem)")
	_ = cmd.MarkFlagRequired("x")

	return cmd
}
