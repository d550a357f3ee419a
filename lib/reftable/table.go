// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"fmt"
	"maps"
	"slices"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
	"github.com/apollo-rsps/Vicis-sub000/lib/wire"
)

// Flags select the optional columns of a table.
type Flags uint8

const (
	// FlagIdentifiers adds a name hash to every entry and child.
	FlagIdentifiers Flags = 0x01

	// FlagWhirlpool adds a 64-byte whirlpool digest to every entry.
	FlagWhirlpool Flags = 0x02
)

// Has reports whether every bit of other is set in f.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

const (
	// FormatUnversioned is the oldest supported format. Tables in
	// this format carry no table version.
	FormatUnversioned uint8 = 5

	// FormatVersioned adds a table-wide version after the format
	// byte. New tables use it.
	FormatVersioned uint8 = 6

	// maxDelta is the largest id gap one 16-bit delta can express.
	maxDelta = 0xFFFF

	// maxCount is the largest entry or child count on the wire.
	maxCount = 0xFFFF
)

// Table is the directory of one cache type.
type Table struct {
	Format  uint8
	Version int32
	Flags   Flags

	entries map[int]*Entry
}

// New returns an empty table in the versioned format with no flags.
func New() *Table {
	return &Table{Format: FormatVersioned, entries: make(map[int]*Entry)}
}

// Entry returns the record for file id. The returned entry belongs to
// the table; use [Table.Clone] before handing a table to code that
// must not observe later changes.
func (t *Table) Entry(id int) (*Entry, bool) {
	entry, ok := t.entries[id]
	return entry, ok
}

// PutEntry adds or replaces the record for file id.
func (t *Table) PutEntry(id int, entry *Entry) {
	if t.entries == nil {
		t.entries = make(map[int]*Entry)
	}
	t.entries[id] = entry
}

// RemoveEntry deletes the record for file id.
func (t *Table) RemoveEntry(id int) {
	delete(t.entries, id)
}

// IDs returns the file ids in ascending order.
func (t *Table) IDs() []int {
	return slices.Sorted(maps.Keys(t.entries))
}

// Size returns the number of entries.
func (t *Table) Size() int {
	return len(t.entries)
}

// Capacity returns one more than the highest file id, or 0 for an
// empty table.
func (t *Table) Capacity() int {
	capacity := 0
	for id := range t.entries {
		capacity = max(capacity, id+1)
	}
	return capacity
}

// FindByIdentifier returns the lowest file id whose entry carries the
// given name hash.
func (t *Table) FindByIdentifier(identifier int32) (int, bool) {
	for _, id := range t.IDs() {
		if t.entries[id].Identifier == identifier {
			return id, true
		}
	}
	return 0, false
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	clone := &Table{
		Format:  t.Format,
		Version: t.Version,
		Flags:   t.Flags,
		entries: make(map[int]*Entry, len(t.entries)),
	}
	for id, entry := range t.entries {
		clone.entries[id] = entry.Clone()
	}
	return clone
}

func checkFormat(format uint8) error {
	if format < FormatUnversioned || format > FormatVersioned {
		return fmt.Errorf("reference table format %d: %w", format, cacheerr.ErrUnsupportedFormat)
	}
	return nil
}

// readIDs reconstructs count ascending ids from 16-bit deltas.
func readIDs(r *wire.Reader, count int) []int {
	ids := make([]int, count)
	accumulator := 0
	for i := range ids {
		accumulator += int(r.U16())
		ids[i] = accumulator
	}
	return ids
}

// checkAscending rejects decoded ids that repeat, which a zero delta
// after the first id produces.
func checkAscending(ids []int, what string) error {
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return fmt.Errorf("%s id %d repeats at position %d: %w", what, ids[i], i, cacheerr.ErrCorrupt)
		}
	}
	return nil
}

// writeIDs emits ascending ids as 16-bit deltas.
func writeIDs(w *wire.Writer, ids []int) error {
	last := 0
	for _, id := range ids {
		delta := id - last
		if delta < 0 || delta > maxDelta {
			return fmt.Errorf("id %d is %d past its predecessor, outside [0, %d]", id, delta, maxDelta)
		}
		w.U16(uint16(delta))
		last = id
	}
	return nil
}

// Decode parses a table from the payload of its container.
func Decode(data []byte) (*Table, error) {
	r := wire.NewReader(data)

	table := &Table{Format: r.U8()}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading table format: %w", err)
	}
	if err := checkFormat(table.Format); err != nil {
		return nil, err
	}
	if table.Format >= FormatVersioned {
		table.Version = r.I32()
	}
	table.Flags = Flags(r.U8())

	ids := readIDs(r, int(r.U16()))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading table header: %w", err)
	}
	if err := checkAscending(ids, "file"); err != nil {
		return nil, err
	}

	entries := make([]*Entry, len(ids))
	for i := range entries {
		entries[i] = NewEntry()
	}

	if table.Flags.Has(FlagIdentifiers) {
		for _, entry := range entries {
			entry.Identifier = r.I32()
		}
	}
	for _, entry := range entries {
		entry.CRC = r.I32()
	}
	if table.Flags.Has(FlagWhirlpool) {
		for _, entry := range entries {
			copy(entry.Whirlpool[:], r.Bytes(DigestSize))
		}
	}
	for _, entry := range entries {
		entry.Version = r.I32()
	}

	childCounts := make([]int, len(entries))
	for i := range childCounts {
		childCounts[i] = int(r.U16())
	}
	childIDs := make([][]int, len(entries))
	for i, count := range childCounts {
		childIDs[i] = readIDs(r, count)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading %d table entries: %w", len(entries), err)
	}
	for i, children := range childIDs {
		if err := checkAscending(children, fmt.Sprintf("file %d member", ids[i])); err != nil {
			return nil, err
		}
	}

	for i, entry := range entries {
		for _, childID := range childIDs[i] {
			child := Child{Identifier: NoIdentifier}
			if table.Flags.Has(FlagIdentifiers) {
				child.Identifier = r.I32()
			}
			entry.PutChild(childID, child)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading child identifiers: %w", err)
	}

	table.entries = make(map[int]*Entry, len(ids))
	for i, id := range ids {
		table.entries[id] = entries[i]
	}
	return table, nil
}

// Encode serializes t in its own format. Ids that cannot be expressed
// as 16-bit ascending deltas, or counts above 65535, are rejected with
// ErrIllegalOperation.
func (t *Table) Encode() ([]byte, error) {
	if err := checkFormat(t.Format); err != nil {
		return nil, err
	}

	ids := t.IDs()
	if len(ids) > maxCount {
		return nil, fmt.Errorf("table has %d entries, limit is %d: %w", len(ids), maxCount, cacheerr.ErrIllegalOperation)
	}

	w := wire.NewWriter(estimateSize(t, len(ids)))
	w.U8(t.Format)
	if t.Format >= FormatVersioned {
		w.I32(t.Version)
	}
	w.U8(uint8(t.Flags))
	w.U16(uint16(len(ids)))
	if err := writeIDs(w, ids); err != nil {
		return nil, fmt.Errorf("encoding entry ids: %v: %w", err, cacheerr.ErrIllegalOperation)
	}

	if t.Flags.Has(FlagIdentifiers) {
		for _, id := range ids {
			w.I32(t.entries[id].Identifier)
		}
	}
	for _, id := range ids {
		w.I32(t.entries[id].CRC)
	}
	if t.Flags.Has(FlagWhirlpool) {
		for _, id := range ids {
			w.Write(t.entries[id].Whirlpool[:])
		}
	}
	for _, id := range ids {
		w.I32(t.entries[id].Version)
	}

	childIDs := make([][]int, len(ids))
	for i, id := range ids {
		childIDs[i] = t.entries[id].ChildIDs()
		if len(childIDs[i]) > maxCount {
			return nil, fmt.Errorf("entry %d has %d children, limit is %d: %w",
				id, len(childIDs[i]), maxCount, cacheerr.ErrIllegalOperation)
		}
		w.U16(uint16(len(childIDs[i])))
	}
	for i, id := range ids {
		if err := writeIDs(w, childIDs[i]); err != nil {
			return nil, fmt.Errorf("encoding children of entry %d: %v: %w", id, err, cacheerr.ErrIllegalOperation)
		}
	}

	if t.Flags.Has(FlagIdentifiers) {
		for i, id := range ids {
			entry := t.entries[id]
			for _, childID := range childIDs[i] {
				w.I32(entry.children[childID].Identifier)
			}
		}
	}
	return w.Bytes(), nil
}

func estimateSize(t *Table, count int) int {
	perEntry := 2 + 4 + 4 + 2
	if t.Flags.Has(FlagIdentifiers) {
		perEntry += 4
	}
	if t.Flags.Has(FlagWhirlpool) {
		perEntry += DigestSize
	}
	return 8 + count*perEntry
}
