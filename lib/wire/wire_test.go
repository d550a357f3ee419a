// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
)

func TestWriterLayout(t *testing.T) {
	w := NewWriter(16)
	w.U8(0x01)
	w.U16(0x0203)
	w.U24(0xFF040506)
	w.I32(-2)
	w.Write([]byte("ab"))

	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xFF, 0xFF, 0xFF, 0xFE, 'a', 'b'}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes = % x, want % x", w.Bytes(), want)
	}
	if w.Len() != len(want) {
		t.Errorf("Len = %d, want %d", w.Len(), len(want))
	}
}

func TestReaderRoundtrip(t *testing.T) {
	w := NewWriter(0)
	w.U8(200)
	w.U16(65000)
	w.U24(0xABCDEF)
	w.U32(0xDEADBEEF)
	w.I32(-123456)
	w.Write([]byte("tail"))

	r := NewReader(w.Bytes())
	if got := r.U8(); got != 200 {
		t.Errorf("U8 = %d", got)
	}
	if got := r.U16(); got != 65000 {
		t.Errorf("U16 = %d", got)
	}
	if got := r.U24(); got != 0xABCDEF {
		t.Errorf("U24 = %#x", got)
	}
	if got := r.U32(); got != 0xDEADBEEF {
		t.Errorf("U32 = %#x", got)
	}
	if got := r.I32(); got != -123456 {
		t.Errorf("I32 = %d", got)
	}
	if r.Remaining() != 4 {
		t.Errorf("Remaining = %d, want 4", r.Remaining())
	}
	tail := r.Copy(4)
	if string(tail) != "tail" {
		t.Errorf("Copy = %q", tail)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err = %v", err)
	}
}

func TestReaderStickyError(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	r.U16()
	if got := r.U32(); got != 0 {
		t.Errorf("short U32 = %d, want 0", got)
	}
	if !errors.Is(r.Err(), cacheerr.ErrCorrupt) {
		t.Fatalf("Err = %v, want ErrCorrupt", r.Err())
	}
	first := r.Err()

	// The byte that would fit is not consumed once the reader failed.
	if got := r.U8(); got != 0 {
		t.Errorf("U8 after failure = %d, want 0", got)
	}
	if r.Pos() != 2 {
		t.Errorf("Pos = %d, want 2", r.Pos())
	}
	if r.Err() != first {
		t.Error("later reads replaced the first error")
	}
}

func TestReaderSeek(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00, 0x00, 0x2A})
	r.Seek(3)
	if got := r.U8(); got != 42 {
		t.Errorf("U8 after Seek = %d, want 42", got)
	}
	r.Seek(r.Len())
	if r.Err() != nil {
		t.Fatalf("Seek to end failed: %v", r.Err())
	}
	r.Seek(5)
	if !errors.Is(r.Err(), cacheerr.ErrCorrupt) {
		t.Fatalf("Seek past end: Err = %v, want ErrCorrupt", r.Err())
	}
}

func TestReaderBytesAliases(t *testing.T) {
	data := []byte{1, 2, 3}
	r := NewReader(data)
	alias := r.Bytes(2)
	data[0] = 9
	if alias[0] != 9 {
		t.Error("Bytes did not alias the buffer")
	}
	if r.Bytes(-1) != nil || r.Err() == nil {
		t.Error("negative length read succeeded")
	}
}
