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

package bundle

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a bundle serialization.
type Format string

const (
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"

	// FormatYAML is YAML.
	FormatYAML Format = "yaml"

	// FormatPEM wraps the JSON encoding in a PEM block for pasting into
	// email or tickets.
	FormatPEM Format = "pem"

	// PEMBlockType is the PEM block type written by FormatPEM.
	PEMBlockType = "SHAMIR SHARE BUNDLE"
)

// ErrUnsupportedFormat is returned for an unknown Format.
var ErrUnsupportedFormat = errors.New("bundle: unsupported format")

// ParseFormat parses json, yaml/yml or pem.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "pem":
		return FormatPEM, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension returns the conventional file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatPEM:
		return ".pem"
	default:
		return ".json"
	}
}

// Marshal encodes b in format f.
func Marshal(b *Bundle, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("bundle: failed to encode json: %w", err)
		}
		return append(data, '\n'), nil

	case FormatYAML:
		data, err := yaml.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("bundle: failed to encode yaml: %w", err)
		}
		return data, nil

	case FormatPEM:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("bundle: failed to encode json: %w", err)
		}
		headers := map[string]string{"Modulus-Id": b.ModulusID}
		if b.SessionID != "" {
			headers["Session-Id"] = b.SessionID
		}
		return pem.EncodeToMemory(&pem.Block{Type: PEMBlockType, Headers: headers, Bytes: data}), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Unmarshal decodes and validates a bundle. An empty format is detected
// from the data.
func Unmarshal(data []byte, f Format) (*Bundle, error) {
	if f == "" {
		f = Detect(data)
	}

	var b Bundle
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
		}

	case FormatYAML:
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
		}

	case FormatPEM:
		block, _ := pem.Decode(data)
		if block == nil || block.Type != PEMBlockType {
			return nil, fmt.Errorf("%w: no %s PEM block", ErrInvalidBundle, PEMBlockType)
		}
		if err := json.Unmarshal(block.Bytes, &b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Detect guesses the format of data: PEM armor, a JSON object, or YAML.
func Detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("-----BEGIN ")):
		return FormatPEM
	case bytes.HasPrefix(trimmed, []byte("{")):
		return FormatJSON
	default:
		return FormatYAML
	}
}
