// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package container implements the record format every cache file is
// stored in: a compression method tag, the compressed length, the
// uncompressed length (for compressed records), the payload, and an
// optional trailing 16-bit version.
//
//	method:u8 compressedLength:u32 [uncompressedLength:u32] payload [version:u16]
//
// Records may additionally be enciphered with XTEA under a per-file
// [Key]. The cipher pass starts after the 5-byte method/length header
// and covers the uncompressed length field and the payload; only whole
// 8-byte blocks are transformed, so a trailing partial block and the
// version are stored in the clear.
//
// Decoding checks the decompressed size against the recorded length
// and fails with cacheerr.ErrLengthMismatch on disagreement, which in
// practice almost always means the record was deciphered with the
// wrong key.
package container
