// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"

	"github.com/apollo-rsps/Vicis-sub000/lib/archive"
	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
	"github.com/apollo-rsps/Vicis-sub000/lib/checksum"
	"github.com/apollo-rsps/Vicis-sub000/lib/container"
	"github.com/apollo-rsps/Vicis-sub000/lib/filestore"
	"github.com/apollo-rsps/Vicis-sub000/lib/reftable"
)

// Write stores record as file (typ, id) and updates the type's
// reference table. The stored version is one more than the larger of
// record.Version and the version the table already holds for the
// file, wrapped to 16 bits; record itself is not modified.
func (c *Cache) Write(typ, id int, record *container.Container) error {
	if err := c.checkType(typ); err != nil {
		return err
	}
	table, stored, err := c.loadOrCreateTable(typ)
	if err != nil {
		return err
	}

	entry, ok := table.Entry(id)
	if !ok {
		entry = reftable.NewEntry()
	}
	next := *record
	return c.commit(typ, id, table, stored, entry, &next)
}

// WriteMember stores data as member of the archive in file (typ, id).
// Existing members keep their bytes and identifiers; every absent
// member id below the highest one is filled with a one-byte
// placeholder. A new file is created gzip-compressed; an existing one
// keeps its compression.
func (c *Cache) WriteMember(typ, id, member int, data []byte) error {
	if err := c.checkType(typ); err != nil {
		return err
	}
	if member < 0 {
		return fmt.Errorf("member %d of file %d/%d is negative: %w", member, typ, id, cacheerr.ErrIllegalOperation)
	}
	table, stored, err := c.loadOrCreateTable(typ)
	if err != nil {
		return err
	}

	entry, ok := table.Entry(id)
	members := make(map[int][]byte)
	var record *container.Container
	if ok {
		record, err = c.readContainer(typ, id)
		if err != nil {
			return err
		}
		if entry.Size() > 0 {
			existing, err := archive.Decode(record.Data, entry.Size())
			if err != nil {
				return fmt.Errorf("decoding archive %d/%d: %w", typ, id, err)
			}
			for slot, childID := range entry.ChildIDs() {
				members[childID] = existing.Members[slot]
			}
		}
	} else {
		entry = reftable.NewEntry()
		record = container.New(container.CompressionGzip, nil)
	}

	members[member] = data
	if _, ok := entry.Child(member); !ok {
		entry.PutChild(member, reftable.Child{Identifier: reftable.NoIdentifier})
	}
	for childID := range entry.Capacity() {
		if _, ok := entry.Child(childID); !ok {
			entry.PutChild(childID, reftable.Child{Identifier: reftable.NoIdentifier})
			members[childID] = archive.Placeholder
		}
	}

	childIDs := entry.ChildIDs()
	packed := archive.New(len(childIDs))
	for slot, childID := range childIDs {
		packed.Members[slot] = members[childID]
	}
	record.Data = packed.Encode()
	return c.commit(typ, id, table, stored, entry, record)
}

// commit bumps the version of record, refreshes entry from the encoded
// bytes, and persists the reference table followed by the payload.
func (c *Cache) commit(typ, id int, table *reftable.Table, stored *container.Container,
	entry *reftable.Entry, record *container.Container) error {
	version := entry.Version
	if record.Versioned {
		version = max(version, record.Version)
	}
	record.SetVersion(version + 1)

	encoded, err := record.Encode(c.keys.Key(typ, id))
	if err != nil {
		return fmt.Errorf("encoding file %d/%d: %w", typ, id, err)
	}
	body := encoded[:len(encoded)-container.VersionSize]
	entry.CRC = checksum.CRC(body)
	entry.Version = record.Version
	if table.Flags.Has(reftable.FlagWhirlpool) {
		entry.Whirlpool = checksum.Whirlpool(body)
	}
	table.PutEntry(id, entry)
	table.Version++

	if err := c.writeTable(typ, table, stored); err != nil {
		return err
	}
	if err := c.store.Write(typ, id, encoded); err != nil {
		return fmt.Errorf("writing file %d/%d: %w", typ, id, err)
	}
	c.logger.Debug("wrote file",
		"type", typ,
		"id", id,
		"version", record.Version,
		"bytes", len(encoded),
	)
	return nil
}

func (c *Cache) writeTable(typ int, table *reftable.Table, stored *container.Container) error {
	data, err := table.Encode()
	if err != nil {
		return fmt.Errorf("encoding reference table of type %d: %w", typ, err)
	}
	stored.Data = data
	encoded, err := stored.Encode(container.ZeroKey)
	if err != nil {
		return fmt.Errorf("encoding reference table container of type %d: %w", typ, err)
	}
	if err := c.store.Write(filestore.MetaType, typ, encoded); err != nil {
		return fmt.Errorf("writing reference table of type %d: %w", typ, err)
	}
	c.logger.Debug("wrote reference table",
		"type", typ,
		"version", table.Version,
		"entries", table.Size(),
	)
	return nil
}

// ReadMember returns member of the archive in file (typ, id). It fails
// with ErrNotFound when the file has no entry, when member lies outside
// [0, capacity), and when the entry has no record for member.
func (c *Cache) ReadMember(typ, id, member int) ([]byte, error) {
	if err := c.checkType(typ); err != nil {
		return nil, err
	}
	table, _, err := c.loadTable(typ)
	if err != nil {
		return nil, err
	}
	entry, ok := table.Entry(id)
	if !ok {
		return nil, fmt.Errorf("file %d/%d has no reference table entry: %w", typ, id, cacheerr.ErrNotFound)
	}
	if member < 0 || member >= entry.Capacity() {
		return nil, fmt.Errorf("member %d of file %d/%d outside [0, %d): %w",
			member, typ, id, entry.Capacity(), cacheerr.ErrNotFound)
	}
	slot, ok := entry.Slot(member)
	if !ok {
		return nil, fmt.Errorf("member %d of file %d/%d is absent: %w", member, typ, id, cacheerr.ErrNotFound)
	}

	record, err := c.readContainer(typ, id)
	if err != nil {
		return nil, err
	}
	packed, err := archive.Decode(record.Data, entry.Size())
	if err != nil {
		return nil, fmt.Errorf("decoding archive %d/%d: %w", typ, id, err)
	}
	return packed.Member(slot)
}
