// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"maps"
	"slices"
)

// NoIdentifier marks an entry or child without a name hash.
const NoIdentifier int32 = -1

// DigestSize is the size of a whirlpool digest.
const DigestSize = 64

// Child is the directory record of one archive member.
type Child struct {
	Identifier int32
}

// Entry is the directory record of one file.
type Entry struct {
	CRC        int32
	Version    int32
	Identifier int32
	Whirlpool  [DigestSize]byte

	children map[int]Child
}

// NewEntry returns an entry with no identifier and no children.
func NewEntry() *Entry {
	return &Entry{Identifier: NoIdentifier, children: make(map[int]Child)}
}

// Child returns the member record for id.
func (e *Entry) Child(id int) (Child, bool) {
	child, ok := e.children[id]
	return child, ok
}

// PutChild adds or replaces the member record for id.
func (e *Entry) PutChild(id int, child Child) {
	if e.children == nil {
		e.children = make(map[int]Child)
	}
	e.children[id] = child
}

// RemoveChild deletes the member record for id.
func (e *Entry) RemoveChild(id int) {
	delete(e.children, id)
}

// ChildIDs returns the member ids in ascending order.
func (e *Entry) ChildIDs() []int {
	return slices.Sorted(maps.Keys(e.children))
}

// Size returns the number of members present.
func (e *Entry) Size() int {
	return len(e.children)
}

// Capacity returns one more than the highest member id, or 0 when the
// entry has no members. Capacity exceeds Size when ids have gaps.
func (e *Entry) Capacity() int {
	capacity := 0
	for id := range e.children {
		capacity = max(capacity, id+1)
	}
	return capacity
}

// Slot returns the position of member id within the archive payload:
// the number of present members with a lower id. The second result is
// false when id has no record.
func (e *Entry) Slot(id int) (int, bool) {
	if _, ok := e.children[id]; !ok {
		return 0, false
	}
	slot := 0
	for other := range e.children {
		if other < id {
			slot++
		}
	}
	return slot, true
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	clone := *e
	clone.children = maps.Clone(e.children)
	if clone.children == nil {
		clone.children = make(map[int]Child)
	}
	return &clone
}
