// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive implements the multi-member payload format: several
// member blobs packed into one container payload, addressed by
// position.
//
// The payload is a run of data chunks followed by a size table and a
// final chunk-count byte:
//
//	chunk 0: member 0 bytes, member 1 bytes, ... member N-1 bytes
//	chunk 1: ...
//	size table: per chunk, per member, a 4-byte delta of the member's
//	            size in that chunk against the previous member's size
//	chunkCount:u8
//
// A member is the concatenation of its contributions from every chunk
// in order. The member count is not stored; callers take it from the
// reference table. [Archive.Encode] always writes a single chunk,
// while [Decode] accepts any chunk count.
package archive

import (
	"fmt"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
	"github.com/apollo-rsps/Vicis-sub000/lib/wire"
)

// Placeholder is the content written for members that exist only to
// fill a gap below a higher member.
var Placeholder = []byte{0}

// Archive is an ordered list of member blobs.
type Archive struct {
	Members [][]byte
}

// New returns an archive with size empty members.
func New(size int) *Archive {
	return &Archive{Members: make([][]byte, size)}
}

// Size returns the number of members.
func (a *Archive) Size() int {
	return len(a.Members)
}

// Member returns the member at slot, or an error wrapping
// cacheerr.ErrNotFound when slot is out of range.
func (a *Archive) Member(slot int) ([]byte, error) {
	if slot < 0 || slot >= len(a.Members) {
		return nil, fmt.Errorf("archive slot %d outside [0, %d): %w", slot, len(a.Members), cacheerr.ErrNotFound)
	}
	return a.Members[slot], nil
}

// Decode splits data into memberCount members.
func Decode(data []byte, memberCount int) (*Archive, error) {
	if memberCount < 0 {
		return nil, fmt.Errorf("negative member count %d", memberCount)
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("empty archive payload: %w", cacheerr.ErrCorrupt)
	}

	chunkCount := int(data[len(data)-1])
	tableSize := chunkCount * memberCount * 4
	tableStart := len(data) - 1 - tableSize
	if tableStart < 0 {
		return nil, fmt.Errorf("size table of %d chunks x %d members does not fit in %d bytes: %w",
			chunkCount, memberCount, len(data), cacheerr.ErrCorrupt)
	}

	r := wire.NewReader(data)
	r.Seek(tableStart)
	chunkSizes := make([][]int, chunkCount)
	totals := make([]int, memberCount)
	dataSize := 0
	for chunk := range chunkSizes {
		chunkSizes[chunk] = make([]int, memberCount)
		size := int32(0)
		for member := 0; member < memberCount; member++ {
			size += r.I32()
			if size < 0 {
				return nil, fmt.Errorf("chunk %d member %d has negative size %d: %w",
					chunk, member, size, cacheerr.ErrCorrupt)
			}
			chunkSizes[chunk][member] = int(size)
			totals[member] += int(size)
			dataSize += int(size)
			if dataSize > tableStart {
				return nil, fmt.Errorf("member sizes exceed the %d data bytes: %w", tableStart, cacheerr.ErrCorrupt)
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	archive := New(memberCount)
	for member, total := range totals {
		archive.Members[member] = make([]byte, 0, total)
	}

	r.Seek(0)
	for chunk := range chunkSizes {
		for member, size := range chunkSizes[chunk] {
			archive.Members[member] = append(archive.Members[member], r.Bytes(size)...)
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return archive, nil
}

// Encode packs the members into a single-chunk archive payload.
func (a *Archive) Encode() []byte {
	total := 0
	for _, member := range a.Members {
		total += len(member)
	}

	w := wire.NewWriter(total + len(a.Members)*4 + 1)
	for _, member := range a.Members {
		w.Write(member)
	}
	previous := 0
	for _, member := range a.Members {
		w.I32(int32(len(member) - previous))
		previous = len(member)
	}
	w.U8(1)
	return w.Bytes()
}
