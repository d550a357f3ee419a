// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
)

// Compression identifies the compression method of a container. The
// values are the on-disk tag bytes; changing them breaks every
// existing cache.
type Compression uint8

const (
	// CompressionNone stores the payload verbatim and omits the
	// uncompressed length field.
	CompressionNone Compression = 0

	// CompressionBzip2 stores a bzip2 stream (block size 100k) with
	// its 4-byte "BZh1" stream header removed.
	CompressionBzip2 Compression = 1

	// CompressionGzip stores a complete gzip member.
	CompressionGzip Compression = 2
)

// bzip2Header is the stream header stripped from stored bzip2
// payloads. The level digit matches bzip2Level.
var bzip2Header = []byte("BZh1")

const bzip2Level = 1

// String returns the human-readable name of a compression method.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionBzip2:
		return "bzip2"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression method from its string
// representation.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "bzip2":
		return CompressionBzip2, nil
	case "gzip":
		return CompressionGzip, nil
	default:
		return 0, fmt.Errorf("compression method %q: %w", name, cacheerr.ErrUnsupportedFormat)
	}
}

// Valid returns nil if c is a known method.
func (c Compression) Valid() error {
	switch c {
	case CompressionNone, CompressionBzip2, CompressionGzip:
		return nil
	}
	return fmt.Errorf("compression method %d: %w", uint8(c), cacheerr.ErrUnsupportedFormat)
}

// Compress compresses data with method c. CompressionNone returns the
// input unchanged (no copy).
func (c Compression) Compress(data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		return compressGzip(data)
	case CompressionBzip2:
		return compressBzip2(data)
	}
	return nil, c.Valid()
}

// Decompress reverses Compress. The result must be exactly
// uncompressedSize bytes long; any other length fails with
// cacheerr.ErrLengthMismatch. A malformed stream fails with
// cacheerr.ErrCorrupt.
func (c Compression) Decompress(compressed []byte, uncompressedSize int) ([]byte, error) {
	var (
		reader io.Reader
		err    error
	)
	switch c {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, expected %d: %w",
				len(compressed), uncompressedSize, cacheerr.ErrLengthMismatch)
		}
		return compressed, nil
	case CompressionGzip:
		reader, err = gzip.NewReader(bytes.NewReader(compressed))
	case CompressionBzip2:
		stream := io.MultiReader(bytes.NewReader(bzip2Header), bytes.NewReader(compressed))
		reader, err = bzip2.NewReader(stream, nil)
	default:
		return nil, c.Valid()
	}
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %v: %w", c, err, cacheerr.ErrCorrupt)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	// Read one byte past the expected size so an oversized stream is
	// reported as a length mismatch without buffering all of it.
	output, err := io.ReadAll(io.LimitReader(reader, int64(uncompressedSize)+1))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %v: %w", c, err, cacheerr.ErrCorrupt)
	}
	if len(output) != uncompressedSize {
		return nil, fmt.Errorf("%s decompress: got %d bytes, expected %d: %w",
			c, len(output), uncompressedSize, cacheerr.ErrLengthMismatch)
	}
	return output, nil
}

func compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return buf.Bytes(), nil
}

func compressBzip2(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2Level})
	if err != nil {
		return nil, fmt.Errorf("bzip2 compress: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("bzip2 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("bzip2 compress: %w", err)
	}

	stream := buf.Bytes()
	if !bytes.HasPrefix(stream, bzip2Header) {
		return nil, fmt.Errorf("bzip2 compress: unexpected stream header %q", stream[:min(len(stream), 4)])
	}
	return stream[len(bzip2Header):], nil
}
