// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec encodes the machine-readable reports printed by the
// vicis command: reference table dumps, checksum summaries, and
// verification results.
//
// Two formats are offered next to the human-readable text output:
//
//   - JSON, indented, for people piping into jq.
//   - CBOR with Core Deterministic Encoding (RFC 8949 §4.2): sorted
//     map keys, smallest integer encoding, no indefinite-length items.
//     The same report always produces identical bytes, so two dumps of
//     the same cache can be compared with cmp.
//
// Report types use `json` struct tags only; fxamacker/cbor falls back
// to them when `cbor` tags are absent, so one tag set names fields in
// both formats. Types implementing encoding.TextMarshaler (digests)
// are written as text strings in both formats.
package codec
