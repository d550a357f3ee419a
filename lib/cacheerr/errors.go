// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cacheerr defines the error classes shared by every layer of
// the cache: the block store, the codecs, and the façade. Each layer
// wraps one of these sentinels with context via fmt.Errorf and %w, so
// callers classify failures with errors.Is regardless of which layer
// produced them.
package cacheerr

import "errors"

var (
	// ErrNotFound reports a missing index file, an id past the end
	// of an index, an unallocated index record, or a directory entry
	// or member that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt reports structurally invalid persisted data: a block
	// header that does not belong to the chain being followed, a
	// truncated record, or archive sizes that overrun their payload.
	ErrCorrupt = errors.New("corrupt data")

	// ErrLengthMismatch reports a decompressed payload whose length
	// disagrees with the length recorded in the container header.
	// This is almost always the result of deciphering with the wrong
	// key.
	ErrLengthMismatch = errors.New("decompressed length mismatch")

	// ErrIntegrityViolation reports a checksum table whose trailer
	// does not match the digest of its entries.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrIllegalOperation reports a request the cache refuses to
	// perform, such as high-level access to the meta type or a file
	// id that cannot be represented in a block header.
	ErrIllegalOperation = errors.New("illegal operation")

	// ErrUnsupportedFormat reports an unknown compression method or
	// reference table format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
