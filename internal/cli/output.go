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
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-shamir/pkg/encoding/bundle"
	"github.com/jeremyhahn/go-shamir/pkg/health"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintSplit summarizes a split whose bundles were written to files
func (p *Printer) PrintSplit(b *bundle.Bundle, files []string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"session_id": b.SessionID,
			"threshold":  b.Threshold,
			"bit_width":  b.BitWidth,
			"modulus_id": b.ModulusID,
			"shares":     len(b.Shares),
			"files":      files,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Session:   %s\n", b.SessionID)
		fmt.Fprintf(p.writer, "Threshold: %d of %d\n", b.Threshold, len(b.Shares))
		fmt.Fprintf(p.writer, "Modulus:   %d bits (%s)\n", b.BitWidth, b.ModulusID)
		fmt.Fprintln(p.writer, "Files:")
		for _, f := range files {
			fmt.Fprintf(p.writer, "  - %s\n", f)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSecret prints a reconstructed secret in decimal, or in hex when
// asHex is set
func (p *Printer) PrintSecret(secret *big.Int, asHex bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"secret": secret.String(),
			"hex":    secret.Text(16),
		})
	case OutputFormatText:
		if asHex {
			fmt.Fprintf(p.writer, "0x%s\n", secret.Text(16))
		} else {
			fmt.Fprintln(p.writer, secret.String())
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintData prints recovered raw bytes
func (p *Printer) PrintData(data []byte) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"secret": string(data),
			"hex":    hex.EncodeToString(data),
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, string(data))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintPrime prints a modulus
func (p *Printer) PrintPrime(prime *big.Int, fixed bool) error {
	source := "generated"
	if fixed {
		source = "fixed"
	}
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"bits":       prime.BitLen(),
			"source":     source,
			"decimal":    prime.String(),
			"hex":        prime.Text(16),
			"modulus_id": bundle.Fingerprint(prime),
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Bits:      %d (%s)\n", prime.BitLen(), source)
		fmt.Fprintf(p.writer, "Modulus:   %s\n", prime.String())
		fmt.Fprintf(p.writer, "Hex:       0x%s\n", prime.Text(16))
		fmt.Fprintf(p.writer, "Modulus ID: %s\n", bundle.Fingerprint(prime))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintShares prints raw share strings one per line
func (p *Printer) PrintShares(shares []string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"shares": shares,
		})
	case OutputFormatText:
		for _, s := range shares {
			fmt.Fprintln(p.writer, s)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintCheckResults prints self-test results and their aggregate status
func (p *Printer) PrintCheckResults(results []health.CheckResult) error {
	status := health.AggregateStatus(results)
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": status,
			"checks": results,
		})
	case OutputFormatText:
		for _, r := range results {
			line := fmt.Sprintf("%-14s %-9s %s", r.Name, r.Status, r.Message)
			if r.Error != "" {
				line += ": " + r.Error
			}
			fmt.Fprintln(p.writer, line)
		}
		fmt.Fprintf(p.writer, "Status: %s\n", status)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
