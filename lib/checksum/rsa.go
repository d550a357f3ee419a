// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"fmt"
	"math/big"
	"strings"
)

// RSAKey is one half of the key pair used to transform the trailer of
// a secured table. Encoding uses the private exponent and decoding the
// public one, both with the same modulus.
type RSAKey struct {
	Modulus  *big.Int
	Exponent *big.Int
}

// Valid reports whether the key can be used for a transform.
func (k *RSAKey) Valid() error {
	if k.Modulus == nil || k.Modulus.Sign() <= 0 {
		return fmt.Errorf("RSA modulus must be positive")
	}
	if k.Exponent == nil || k.Exponent.Sign() <= 0 {
		return fmt.Errorf("RSA exponent must be positive")
	}
	return nil
}

// Transform returns data^exponent mod modulus, reading data as an
// unsigned big-endian integer. The result is the minimal two's
// complement encoding of the (non-negative) value, so it carries a
// leading zero byte whenever its top bit is set.
func (k *RSAKey) Transform(data []byte) []byte {
	value := new(big.Int).SetBytes(data)
	value.Exp(value, k.Exponent, k.Modulus)
	return signedBytes(value)
}

func signedBytes(value *big.Int) []byte {
	magnitude := value.Bytes()
	if len(magnitude) == 0 || magnitude[0]&0x80 != 0 {
		return append([]byte{0}, magnitude...)
	}
	return magnitude
}

// ParseInt parses a big integer written in decimal or, with a 0x
// prefix, in hex.
func ParseInt(text string) (*big.Int, error) {
	text = strings.TrimSpace(text)
	base := 10
	if rest, ok := strings.CutPrefix(strings.ToLower(text), "0x"); ok {
		text, base = rest, 16
	}
	value, ok := new(big.Int).SetString(text, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", text)
	}
	return value, nil
}
