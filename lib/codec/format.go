// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/json"
	"fmt"
	"io"
)

// Format selects how a report is written.
type Format string

const (
	// FormatText is the human-readable form. Each command renders it
	// itself; [Write] does not handle it.
	FormatText Format = "text"

	// FormatJSON is indented JSON.
	FormatJSON Format = "json"

	// FormatCBOR is deterministic CBOR.
	FormatCBOR Format = "cbor"
)

// ParseFormat parses a --format flag value.
func ParseFormat(name string) (Format, error) {
	switch format := Format(name); format {
	case FormatText, FormatJSON, FormatCBOR:
		return format, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json, or cbor)", name)
	}
}

// Write encodes report to w in a machine-readable format.
func Write(w io.Writer, format Format, report any) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	case FormatCBOR:
		data, err := Marshal(report)
		if err != nil {
			return fmt.Errorf("encoding CBOR report: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("format %q is not machine-readable", format)
	}
}
