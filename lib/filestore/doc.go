// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filestore implements the block store underneath the cache:
// one shared data file of fixed-size blocks and one index file per
// type mapping file ids to block chains.
//
// The data file is a flat array of 520-byte blocks. Each block starts
// with an 8-byte header naming the file that owns it (type and id),
// its position within that file's chain, and the next block of the
// chain (0 on the last block), followed by 512 bytes of payload.
// Block 0 is never allocated, so a first-block pointer of 0 in an
// index record always means "no data".
//
// Index files are flat arrays of 6-byte records, one per file id:
// a 24-bit byte size and a 24-bit first-block number. Type 255 (the
// meta type) has its own index file and holds the per-type reference
// tables.
//
// Writes first try to reuse the file's existing chain in place,
// validating every block header they step on. Any validation failure
// abandons the in-place attempt and writes a fresh chain past the end
// of the data file instead, so a damaged or foreign chain is never
// followed. New blocks are always written whole, keeping the data
// file length a multiple of [BlockSize].
//
// A Store is not safe for concurrent use. One Store instance must own
// a cache directory at a time; [WithLock] enforces that across
// processes with an advisory lock.
package filestore
