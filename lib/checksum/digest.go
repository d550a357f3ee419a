// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"encoding/hex"
	"fmt"
	"hash/crc32"

	"github.com/jzelinskie/whirlpool"
)

// DigestSize is the size of a whirlpool digest in bytes.
const DigestSize = 64

// CRC returns the IEEE CRC-32 of data as the signed value stored in
// reference and checksum tables.
func CRC(data []byte) int32 {
	return int32(crc32.ChecksumIEEE(data))
}

// Whirlpool returns the whirlpool digest of data.
func Whirlpool(data []byte) [DigestSize]byte {
	hasher := whirlpool.New()
	hasher.Write(data)

	var digest [DigestSize]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// FormatDigest returns the lower-case hex form of a whirlpool digest.
func FormatDigest(digest [DigestSize]byte) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses the hex form produced by [FormatDigest].
func ParseDigest(hexString string) ([DigestSize]byte, error) {
	var digest [DigestSize]byte
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing whirlpool digest: %w", err)
	}
	if len(decoded) != DigestSize {
		return digest, fmt.Errorf("whirlpool digest is %d bytes, want %d", len(decoded), DigestSize)
	}
	copy(digest[:], decoded)
	return digest, nil
}
