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
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/threshold/sssa"
)

// sssaCmd groups commands for shares in the sssa-golang format
func (r *runner) sssaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sssa",
		Short: "Work with sssa-golang shares",
		Long: `Split and reconstruct shares in the base64 format of sssa-golang,
so that shares produced by other sssa tools can be recovered with this one.`,
	}
	cmd.AddCommand(r.sssaCombineCmd())
	cmd.AddCommand(r.sssaSplitCmd())
	return cmd
}

func (r *runner) sssaCombineCmd() *cobra.Command {
	var (
		file      string
		hexDecode bool
	)

	cmd := &cobra.Command{
		Use:   "combine [SHARE...]",
		Short: "Reconstruct a secret from sssa shares",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app

			shares := args
			if file != "" {
				lines, err := readLines(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				shares = append(shares, lines...)
			}
			if len(shares) == 0 {
				return fmt.Errorf("no shares given")
			}

			raw, err := a.svc.SSSACombine(a.ctx, shares)
			if err != nil {
				return fmt.Errorf("failed to combine shares: %w", err)
			}
			if hexDecode {
				if raw, err = hex.DecodeString(string(raw)); err != nil {
					return fmt.Errorf("reconstructed value is not hex encoded: %w", err)
				}
			}
			return a.printer().PrintData(raw)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read shares one per line from this file (- for stdin)")
	cmd.Flags().BoolVar(&hexDecode, "hex-decode", false, "hex-decode the result (shares from shamir sssa split)")

	return cmd
}

func (r *runner) sssaSplitCmd() *cobra.Command {
	var (
		secret    string
		threshold int
		total     int
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a secret into sssa shares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app

			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			raw, err := readValue(secret, cmd.InOrStdin())
			if err != nil {
				return err
			}
			shares, err := sssa.Split([]byte(raw), threshold, total)
			if err != nil {
				return err
			}
			return a.printer().PrintShares(shares)
		},
	}

	cmd.Flags().StringVarP(&secret, "secret", "s", "", "secret to share (text, or - for stdin)")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 3, "shares required to reconstruct")
	cmd.Flags().IntVarP(&total, "shares", "n", 5, "shares to issue")

	return cmd
}
