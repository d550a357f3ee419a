// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reftable implements the per-type directory ("reference
// table") of a cache: for every file of a type, its checksum, version,
// optional name hash and whirlpool digest, and the ids of the members
// packed into it.
//
// Both file ids and member ids are sparse. The wire format stores them
// as ascending runs of 16-bit deltas and lays the per-file attributes
// out column by column:
//
//	format:u8 [version:i32 if format >= 6] flags:u8
//	count:u16 delta:u16 x count
//	[identifier:i32 x count]          if FlagIdentifiers
//	crc:i32 x count
//	[whirlpool:64 bytes x count]      if FlagWhirlpool
//	version:i32 x count
//	childCount:u16 x count
//	per file: childDelta:u16 x childCount
//	[per file: childIdentifier:i32 x childCount] if FlagIdentifiers
//
// The flags apply to every entry and child of the table; there is no
// per-record override.
package reftable
