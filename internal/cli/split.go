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
	"github.com/jeremyhahn/go-shamir/pkg/encoding/bundle"
	"github.com/jeremyhahn/go-shamir/pkg/threshold/service"
)

// splitCmd represents the split command
func (r *runner) splitCmd() *cobra.Command {
	var (
		secret    string
		threshold uint8
		bits      string
		fixed     bool
		points    []string
		count     int
		out       string
		splitDir  string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a secret into shares",
		Long: `Split a secret into shares, any threshold of which reconstruct it.

The secret is an integer (decimal, or 0x-prefixed hex) below the modulus.
Pass --secret - to read it from stdin instead of the command line.

Shares are written as one bundle (--out), one bundle per holder
(--split-dir), or to stdout when neither is given.`,
		Example: `  shamir split --secret 25 --threshold 3 --bits 256 --points 4,16,13,1,12,7
  echo 0xdeadbeef | shamir split --secret - --threshold 2 --count 3 --split-dir shares/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app
			flags := cmd.Flags()

			if !flags.Changed("bits") {
				bits = a.cfg.Sharing.BitWidth
			}
			bw, err := field.ParseBitWidth(bits)
			if err != nil {
				return err
			}
			if !flags.Changed("fixed-prime") {
				fixed = a.cfg.Sharing.UseFixedPrime
			}
			if !flags.Changed("threshold") {
				threshold = a.cfg.Sharing.Threshold
			}
			if !flags.Changed("format") {
				format = a.cfg.Sharing.BundleFormat
			}
			bf, err := bundle.ParseFormat(format)
			if err != nil {
				return err
			}

			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			raw, err := readValue(secret, cmd.InOrStdin())
			if err != nil {
				return err
			}
			value, err := parseInt(raw)
			if err != nil {
				return fmt.Errorf("invalid secret: not an integer")
			}
			pts, err := parsePoints(points)
			if err != nil {
				return err
			}

			a.printVerbose("Splitting with %s-bit modulus (fixed=%t), threshold %d", bw, fixed, threshold)
			b, err := a.svc.Split(a.ctx, &service.SplitRequest{
				BitWidth:      bw,
				UseFixedPrime: fixed,
				Threshold:     threshold,
				Secret:        value,
				Points:        pts,
				Count:         count,
			})
			if err != nil {
				return fmt.Errorf("failed to split secret: %w", err)
			}

			if out == "" && splitDir == "" {
				return writeBundle("", a.stdout, b, bf)
			}

			var files []string
			if out != "" {
				if err := writeBundle(out, a.stdout, b, bf); err != nil {
					return err
				}
				files = append(files, out)
			}
			if splitDir != "" {
				for _, holder := range b.Split() {
					path := holderFile(splitDir, holder, bf)
					if err := writeBundle(path, a.stdout, holder, bf); err != nil {
						return err
					}
					files = append(files, path)
				}
			}
			return a.printer().PrintSplit(b, files)
		},
	}

	cmd.Flags().StringVarP(&secret, "secret", "s", "", "secret to share (integer, or - for stdin)")
	cmd.Flags().Uint8VarP(&threshold, "threshold", "t", 3, "shares required to reconstruct (2-255)")
	cmd.Flags().StringVarP(&bits, "bits", "b", "256", "modulus bit width (bn254, 256, 512, 1024, or any with --fixed-prime=false)")
	cmd.Flags().BoolVar(&fixed, "fixed-prime", true, "use the fixed prime for --bits instead of generating one")
	cmd.Flags().StringSliceVarP(&points, "points", "p", nil, "x-coordinates to issue shares at")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "issue shares at x = 1..count")
	cmd.Flags().StringVar(&out, "out", "", "write all shares to this bundle file")
	cmd.Flags().StringVar(&splitDir, "split-dir", "", "write one bundle per share into this directory")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "bundle format (json, yaml, pem)")
	cmd.MarkFlagsMutuallyExclusive("points", "count")

	return cmd
}
