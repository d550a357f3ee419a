// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire provides the big-endian primitives shared by the cache
// codecs. [Reader] is a cursor over a byte slice with a sticky error:
// once a read runs past the end of the buffer every later read returns
// zero values and [Reader.Err] reports the first failure, so a decoder
// can read a whole fixed section and check once. [Writer] appends to a
// growing slice and cannot fail.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
)

// Reader reads big-endian integers and raw byte runs from a buffer.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered, or nil.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the current offset into the buffer.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Seek moves the cursor to an absolute offset. Seeking outside the
// buffer sets the sticky error.
func (r *Reader) Seek(offset int) {
	if r.err != nil {
		return
	}
	if offset < 0 || offset > len(r.data) {
		r.err = fmt.Errorf("seek to offset %d outside buffer of %d bytes: %w",
			offset, len(r.data), cacheerr.ErrCorrupt)
		return
	}
	r.pos = offset
}

// take returns the next n bytes, or nil after setting the sticky error.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.err = fmt.Errorf("reading %d bytes at offset %d: only %d remain: %w",
			n, r.pos, r.Remaining(), cacheerr.ErrCorrupt)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// U8 reads one unsigned byte.
func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads a big-endian unsigned 16-bit integer.
func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// U24 reads a big-endian unsigned 24-bit integer.
func (r *Reader) U24() uint32 {
	b := r.take(3)
	if b == nil {
		return 0
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// U32 reads a big-endian unsigned 32-bit integer.
func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// I32 reads a big-endian two's complement 32-bit integer.
func (r *Reader) I32() int32 {
	return int32(r.U32())
}

// Bytes returns the next n bytes. The result aliases the underlying
// buffer; callers that retain it across mutations must copy.
func (r *Reader) Bytes(n int) []byte {
	return r.take(n)
}

// Copy returns a fresh copy of the next n bytes.
func (r *Reader) Copy(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Writer appends big-endian integers and raw bytes to a buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with room for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// U8 appends one byte.
func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

// U16 appends a big-endian unsigned 16-bit integer.
func (w *Writer) U16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// U24 appends the low 24 bits of v, big-endian.
func (w *Writer) U24(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

// U32 appends a big-endian unsigned 32-bit integer.
func (w *Writer) U32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// I32 appends a big-endian two's complement 32-bit integer.
func (w *Writer) I32(v int32) {
	w.U32(uint32(v))
}

// Write appends raw bytes.
func (w *Writer) Write(p []byte) {
	w.buf = append(w.buf, p...)
}
