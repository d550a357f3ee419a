// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"fmt"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
	"github.com/apollo-rsps/Vicis-sub000/lib/wire"
)

// Wire layout constants.
const (
	// headerSize is the method tag plus the compressed length.
	headerSize = 5

	// uncompressedLengthSize is the extra header field present on
	// compressed records.
	uncompressedLengthSize = 4

	// VersionSize is the size of the optional version trailer.
	VersionSize = 2
)

// Container is one decoded cache record.
type Container struct {
	// Compression is the method used when the record is encoded.
	Compression Compression

	// Data is the uncompressed payload.
	Data []byte

	// Version is the record version. It is only meaningful when
	// Versioned is set, and only its low 16 bits are stored.
	Version int32

	// Versioned records carry a 2-byte version trailer.
	Versioned bool
}

// New returns an unversioned container.
func New(compression Compression, data []byte) *Container {
	return &Container{Compression: compression, Data: data}
}

// NewVersioned returns a versioned container.
func NewVersioned(compression Compression, data []byte, version int32) *Container {
	return &Container{Compression: compression, Data: data, Version: version, Versioned: true}
}

// SetVersion marks the container versioned with the given version,
// wrapped to 16 bits.
func (c *Container) SetVersion(version int32) {
	c.Version = version & 0xFFFF
	c.Versioned = true
}

// cipherEnd returns the end of the enciphered window for a record with
// the given method and compressed length.
func cipherEnd(method Compression, compressedLength int) int {
	if method == CompressionNone {
		return headerSize + compressedLength
	}
	return headerSize + uncompressedLengthSize + compressedLength
}

// Decode parses an encoded record, deciphering it first when key is
// non-zero. The input is never modified.
func Decode(data []byte, key Key) (*Container, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("container of %d bytes is shorter than its header: %w", len(data), cacheerr.ErrCorrupt)
	}

	header := wire.NewReader(data)
	method := Compression(header.U8())
	compressedLength := header.U32()
	if err := method.Valid(); err != nil {
		return nil, err
	}
	if int64(compressedLength) > int64(len(data)) {
		return nil, fmt.Errorf("compressed length %d exceeds container of %d bytes: %w",
			compressedLength, len(data), cacheerr.ErrCorrupt)
	}

	end := cipherEnd(method, int(compressedLength))
	if end > len(data) {
		return nil, fmt.Errorf("container needs %d bytes, has %d: %w", end, len(data), cacheerr.ErrCorrupt)
	}

	if !key.IsZero() {
		data = append([]byte(nil), data...)
		if err := Decipher(data, headerSize, end, key); err != nil {
			return nil, err
		}
	}

	r := wire.NewReader(data)
	r.Seek(headerSize)
	c := &Container{Compression: method}
	if method == CompressionNone {
		c.Data = r.Copy(int(compressedLength))
	} else {
		uncompressedLength := r.U32()
		payload := r.Bytes(int(compressedLength))
		if err := r.Err(); err != nil {
			return nil, err
		}
		decompressed, err := method.Decompress(payload, int(uncompressedLength))
		if err != nil {
			return nil, err
		}
		c.Data = decompressed
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	if r.Remaining() >= VersionSize {
		c.Version = int32(r.U16())
		c.Versioned = true
	}
	return c, nil
}

// Encode serialises the container, enciphering it when key is
// non-zero.
func (c *Container) Encode(key Key) ([]byte, error) {
	compressed, err := c.Compression.Compress(c.Data)
	if err != nil {
		return nil, err
	}

	w := wire.NewWriter(headerSize + uncompressedLengthSize + len(compressed) + VersionSize)
	w.U8(uint8(c.Compression))
	w.U32(uint32(len(compressed)))
	if c.Compression != CompressionNone {
		w.U32(uint32(len(c.Data)))
	}
	w.Write(compressed)
	if c.Versioned {
		w.U16(uint16(c.Version))
	}

	out := w.Bytes()
	if err := Encipher(out, headerSize, cipherEnd(c.Compression, len(compressed)), key); err != nil {
		return nil, err
	}
	return out, nil
}
