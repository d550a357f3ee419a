// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package checksum implements the cache-wide integrity summary: one
// {crc, version, whirlpool} record per type, which a client compares
// against its own copy of each reference table before trusting the
// cache.
//
// A table can be encoded plain (eight bytes per type, no
// self-verification) or whirlpool-secured:
//
//	count:u8
//	count x {crc:i32 version:i32 whirlpool:64 bytes}
//	trailer
//
// The trailer is 0x00 followed by the whirlpool digest of every byte
// before it, optionally passed through an RSA transform
// (trailer^exponent mod modulus). Decoding recomputes the digest and
// requires the untransformed trailer to match it exactly; any failure
// in a secured table, structural or not, is reported as
// [cacheerr.ErrIntegrityViolation].
//
// The package also holds the two digest primitives the rest of the
// cache uses: [CRC] (IEEE CRC-32) and [Whirlpool].
package checksum
