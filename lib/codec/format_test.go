// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "json", "cbor"} {
		format, err := ParseFormat(name)
		if err != nil || string(format) != name {
			t.Errorf("ParseFormat(%q) = %q, %v", name, format, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}

func TestWrite(t *testing.T) {
	report := sampleEntry{ID: 3, CRC: 9, Whirlpool: digest{0xaa, 0xbb, 0xcc, 0xdd}}

	var jsonOut bytes.Buffer
	if err := Write(&jsonOut, FormatJSON, report); err != nil {
		t.Fatalf("Write json: %v", err)
	}
	var fromJSON sampleEntry
	if err := json.Unmarshal(jsonOut.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if fromJSON.Whirlpool != report.Whirlpool {
		t.Errorf("JSON digest = %x, want %x", fromJSON.Whirlpool, report.Whirlpool)
	}

	var cborOut bytes.Buffer
	if err := Write(&cborOut, FormatCBOR, report); err != nil {
		t.Fatalf("Write cbor: %v", err)
	}
	var fromCBOR sampleEntry
	if err := Unmarshal(cborOut.Bytes(), &fromCBOR); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if fromCBOR.ID != 3 || fromCBOR.Whirlpool != report.Whirlpool {
		t.Errorf("CBOR roundtrip = %+v, want %+v", fromCBOR, report)
	}

	if err := Write(&bytes.Buffer{}, FormatText, report); err == nil {
		t.Error("expected error writing text through Write")
	}
}
