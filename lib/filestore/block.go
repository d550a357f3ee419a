// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"encoding/binary"
	"fmt"
)

// On-disk geometry. These values are fixed by the cache format.
const (
	// BlockSize is the size of one physical block in the data file.
	BlockSize = 520

	// BlockHeaderSize is the size of the block header: owner type
	// (1), owner id (2), chunk index (2), next block (3).
	BlockHeaderSize = 8

	// BlockPayloadSize is the number of file bytes carried by one
	// block.
	BlockPayloadSize = BlockSize - BlockHeaderSize

	// IndexRecordSize is the size of one index record: byte size (3)
	// and first block (3).
	IndexRecordSize = 6

	// MaxFileID is the largest file id representable in a block
	// header.
	MaxFileID = 0xFFFF

	// MaxFileSize is the largest file representable in an index
	// record.
	MaxFileSize = 1<<24 - 1

	// maxBlock is the largest block number representable in a
	// 24-bit pointer.
	maxBlock = 1<<24 - 1
)

// BlockHeader is the 8-byte prefix of every block in the data file.
type BlockHeader struct {
	OwnerType  uint8
	OwnerID    uint16
	ChunkIndex uint16
	NextBlock  uint32
}

// Encode writes the header into the first BlockHeaderSize bytes of dst.
func (h BlockHeader) Encode(dst []byte) {
	_ = dst[BlockHeaderSize-1]
	dst[0] = h.OwnerType
	binary.BigEndian.PutUint16(dst[1:3], h.OwnerID)
	binary.BigEndian.PutUint16(dst[3:5], h.ChunkIndex)
	dst[5] = byte(h.NextBlock >> 16)
	dst[6] = byte(h.NextBlock >> 8)
	dst[7] = byte(h.NextBlock)
}

// DecodeBlockHeader parses a header from the first BlockHeaderSize
// bytes of src.
func DecodeBlockHeader(src []byte) BlockHeader {
	_ = src[BlockHeaderSize-1]
	return BlockHeader{
		OwnerType:  src[0],
		OwnerID:    binary.BigEndian.Uint16(src[1:3]),
		ChunkIndex: binary.BigEndian.Uint16(src[3:5]),
		NextBlock:  uint32(src[5])<<16 | uint32(src[6])<<8 | uint32(src[7]),
	}
}

// check reports why h cannot be chunk number chunk of file (typ, id),
// or nil if it can.
func (h BlockHeader) check(typ, id, chunk int) error {
	if int(h.OwnerType) != typ {
		return fmt.Errorf("owner type is %d, want %d", h.OwnerType, typ)
	}
	if int(h.OwnerID) != id {
		return fmt.Errorf("owner id is %d, want %d", h.OwnerID, id)
	}
	if int(h.ChunkIndex) != chunk&0xFFFF {
		return fmt.Errorf("chunk index is %d, want %d", h.ChunkIndex, chunk&0xFFFF)
	}
	return nil
}

// IndexRecord locates one file's chain in the data file.
type IndexRecord struct {
	// Size is the exact byte length of the file.
	Size uint32

	// FirstBlock is the first block of the chain, or 0 if the file
	// has never been written.
	FirstBlock uint32
}

// Encode writes the record into the first IndexRecordSize bytes of dst.
func (r IndexRecord) Encode(dst []byte) {
	_ = dst[IndexRecordSize-1]
	dst[0] = byte(r.Size >> 16)
	dst[1] = byte(r.Size >> 8)
	dst[2] = byte(r.Size)
	dst[3] = byte(r.FirstBlock >> 16)
	dst[4] = byte(r.FirstBlock >> 8)
	dst[5] = byte(r.FirstBlock)
}

// DecodeIndexRecord parses a record from the first IndexRecordSize
// bytes of src.
func DecodeIndexRecord(src []byte) IndexRecord {
	_ = src[IndexRecordSize-1]
	return IndexRecord{
		Size:       uint32(src[0])<<16 | uint32(src[1])<<8 | uint32(src[2]),
		FirstBlock: uint32(src[3])<<16 | uint32(src[4])<<8 | uint32(src[5]),
	}
}
