// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	reportEncoding = newReportEncoding()
	reportDecoding = newReportDecoding()
)

// newReportEncoding builds the core deterministic profile (sorted map
// keys, shortest integer and float forms). Digest types that
// implement encoding.TextMarshaler are written as their hex text so
// CBOR and JSON reports carry the same values.
func newReportEncoding() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	options.TextMarshaler = cbor.TextMarshalerTextString
	mode, err := options.EncMode()
	if err != nil {
		panic("codec: building report encoding: " + err.Error())
	}
	return mode
}

func newReportDecoding() cbor.DecMode {
	mode, err := cbor.DecOptions{
		DefaultMapType:  reflect.TypeFor[map[string]any](),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: building report decoding: " + err.Error())
	}
	return mode
}

// Marshal returns the deterministic CBOR encoding of v. Equal values
// always produce identical bytes.
func Marshal(v any) ([]byte, error) {
	return reportEncoding.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Untyped maps decode as
// map[string]any.
func Unmarshal(data []byte, v any) error {
	return reportDecoding.Unmarshal(data, v)
}
