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
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeremyhahn/go-shamir/pkg/encoding/bundle"
)

// parseInt parses a decimal or 0x-prefixed hex integer. Leading zeros are
// decimal, never octal.
func parseInt(s string) (*big.Int, error) {
	body := strings.TrimSpace(s)
	neg := strings.HasPrefix(body, "-")
	body = strings.TrimPrefix(strings.TrimPrefix(body, "-"), "+")

	base := 10
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		base = 16
		body = body[2:]
	}
	if body == "" || body[0] == '+' || body[0] == '-' {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	n, ok := new(big.Int).SetString(body, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// parsePoints parses a list of x-coordinates
func parsePoints(values []string) ([]*big.Int, error) {
	points := make([]*big.Int, 0, len(values))
	for _, v := range values {
		x, err := parseInt(v)
		if err != nil {
			return nil, fmt.Errorf("invalid point: %w", err)
		}
		points = append(points, x)
	}
	return points, nil
}

// readValue returns v, or the trimmed contents of stdin when v is "-"
func readValue(v string, stdin io.Reader) (string, error) {
	if v != "-" {
		return v, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// readLines returns the non-empty lines of path ("-" for stdin)
func readLines(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "-" {
		// #nosec G304 - Share file path is provided by the user
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// readBundles loads and validates share bundles, detecting each format
func readBundles(paths []string, stdin io.Reader) ([]*bundle.Bundle, error) {
	bundles := make([]*bundle.Bundle, 0, len(paths))
	for _, path := range paths {
		var data []byte
		var err error
		if path == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			// #nosec G304 - Bundle path is provided by the user
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		b, err := bundle.Unmarshal(data, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// writeBundle encodes b to path, or to w when path is empty or "-".
// Share files are created readable by the owner only.
func writeBundle(path string, w io.Writer, b *bundle.Bundle, format bundle.Format) error {
	data, err := bundle.Marshal(b, format)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err = w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// holderFile names the bundle file for a single share
func holderFile(dir string, b *bundle.Bundle, format bundle.Format) string {
	return filepath.Join(dir, fmt.Sprintf("share-%s%s", b.Shares[0].X, format.Extension()))
}
