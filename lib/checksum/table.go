// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"bytes"
	"fmt"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
	"github.com/apollo-rsps/Vicis-sub000/lib/wire"
)

const (
	plainEntrySize   = 8
	securedEntrySize = plainEntrySize + DigestSize

	// trailerSize is the untransformed trailer: a zero byte and the
	// master digest.
	trailerSize = 1 + DigestSize

	// maxSecuredEntries is the largest count a one-byte prefix holds.
	maxSecuredEntries = 0xFF
)

// Entry summarizes one type's reference table.
type Entry struct {
	CRC       int32
	Version   int32
	Whirlpool [DigestSize]byte
}

// Table is an ordered list of entries, indexed by type.
type Table struct {
	Entries []Entry
}

// New returns a table of size zero-valued entries.
func New(size int) *Table {
	return &Table{Entries: make([]Entry, size)}
}

// Size returns the number of entries.
func (t *Table) Size() int {
	return len(t.Entries)
}

// Entry returns the entry for type typ.
func (t *Table) Entry(typ int) (Entry, error) {
	if typ < 0 || typ >= len(t.Entries) {
		return Entry{}, fmt.Errorf("checksum entry %d outside [0, %d): %w", typ, len(t.Entries), cacheerr.ErrNotFound)
	}
	return t.Entries[typ], nil
}

// Encode serializes t. With secured false the output is the plain
// eight-byte-per-entry form and key is ignored. With secured true the
// output is prefixed with the entry count, carries digests, and ends
// with the trailer, transformed by key when key is non-nil.
func (t *Table) Encode(secured bool, key *RSAKey) ([]byte, error) {
	if !secured {
		w := wire.NewWriter(len(t.Entries) * plainEntrySize)
		for _, entry := range t.Entries {
			w.I32(entry.CRC)
			w.I32(entry.Version)
		}
		return w.Bytes(), nil
	}

	if len(t.Entries) > maxSecuredEntries {
		return nil, fmt.Errorf("secured checksum table holds at most %d entries, have %d: %w",
			maxSecuredEntries, len(t.Entries), cacheerr.ErrIllegalOperation)
	}
	if key != nil {
		if err := key.Valid(); err != nil {
			return nil, err
		}
	}

	w := wire.NewWriter(1 + len(t.Entries)*securedEntrySize + trailerSize)
	w.U8(uint8(len(t.Entries)))
	for _, entry := range t.Entries {
		w.I32(entry.CRC)
		w.I32(entry.Version)
		w.Write(entry.Whirlpool[:])
	}

	digest := Whirlpool(w.Bytes())
	trailer := make([]byte, 0, trailerSize)
	trailer = append(trailer, 0)
	trailer = append(trailer, digest[:]...)
	if key != nil {
		trailer = key.Transform(trailer)
	}
	w.Write(trailer)
	return w.Bytes(), nil
}

// Decode parses a table produced by [Table.Encode] with the same
// secured setting. In plain form every complete eight-byte group is an
// entry and trailing bytes are ignored. In secured form key must be
// the public half of the pair the table was encoded with, or nil if it
// was encoded without a transform.
func Decode(data []byte, secured bool, key *RSAKey) (*Table, error) {
	if !secured {
		r := wire.NewReader(data)
		table := New(len(data) / plainEntrySize)
		for i := range table.Entries {
			table.Entries[i].CRC = r.I32()
			table.Entries[i].Version = r.I32()
		}
		return table, r.Err()
	}

	table, err := decodeSecured(data, key)
	if err != nil {
		return nil, fmt.Errorf("decoding secured checksum table: %v: %w", err, cacheerr.ErrIntegrityViolation)
	}
	return table, nil
}

func decodeSecured(data []byte, key *RSAKey) (*Table, error) {
	if key != nil {
		if err := key.Valid(); err != nil {
			return nil, err
		}
	}

	r := wire.NewReader(data)
	size := int(r.U8())
	digestEnd := 1 + size*securedEntrySize
	if err := r.Err(); err != nil {
		return nil, err
	}
	if digestEnd > len(data) {
		return nil, fmt.Errorf("%d entries need %d bytes, have %d", size, digestEnd, len(data))
	}
	master := Whirlpool(data[:digestEnd])

	table := New(size)
	for i := range table.Entries {
		table.Entries[i].CRC = r.I32()
		table.Entries[i].Version = r.I32()
		copy(table.Entries[i].Whirlpool[:], r.Bytes(DigestSize))
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	trailer := r.Bytes(r.Remaining())
	if key != nil {
		// The transform drops leading zero bytes of the plaintext.
		plain := key.Transform(trailer)
		if len(plain) > trailerSize {
			return nil, fmt.Errorf("transformed trailer is %d bytes, want at most %d", len(plain), trailerSize)
		}
		trailer = make([]byte, trailerSize)
		copy(trailer[trailerSize-len(plain):], plain)
	}
	if len(trailer) != trailerSize {
		return nil, fmt.Errorf("trailer is %d bytes, want %d", len(trailer), trailerSize)
	}
	if trailer[0] != 0 || !bytes.Equal(trailer[1:], master[:]) {
		return nil, fmt.Errorf("trailer does not match the master digest")
	}
	return table, nil
}
