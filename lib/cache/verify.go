// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"errors"
	"fmt"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
	"github.com/apollo-rsps/Vicis-sub000/lib/checksum"
	"github.com/apollo-rsps/Vicis-sub000/lib/container"
	"github.com/apollo-rsps/Vicis-sub000/lib/filestore"
	"github.com/apollo-rsps/Vicis-sub000/lib/reftable"
)

// CreateChecksumTable summarizes every type's reference table: the
// CRC-32 and whirlpool digest of the stored table bytes and the table
// version. Types without a table get a zero entry.
func (c *Cache) CreateChecksumTable() (*checksum.Table, error) {
	summary := checksum.New(c.TypeCount())
	for typ := range c.TypeCount() {
		raw, err := c.store.Read(filestore.MetaType, typ)
		if errors.Is(err, cacheerr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading reference table of type %d: %w", typ, err)
		}
		if len(raw) == 0 {
			continue
		}

		stored, err := container.Decode(raw, container.ZeroKey)
		if err != nil {
			return nil, fmt.Errorf("decoding reference table container of type %d: %w", typ, err)
		}
		table, err := reftable.Decode(stored.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding reference table of type %d: %w", typ, err)
		}
		summary.Entries[typ] = checksum.Entry{
			CRC:       checksum.CRC(raw),
			Version:   table.Version,
			Whirlpool: checksum.Whirlpool(raw),
		}
	}
	return summary, nil
}

// Mismatch is one reference table entry that does not describe the
// bytes stored for its file.
type Mismatch struct {
	Type   int
	ID     int
	Reason string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("file %d/%d: %s", m.Type, m.ID, m.Reason)
}

// Verify re-derives every reference table entry from the stored files
// and returns the entries that disagree: missing or unreadable data,
// a different CRC, version, or (when the table carries digests)
// whirlpool digest. The returned error reports failures that stop the
// walk, such as an undecodable reference table.
func (c *Cache) Verify() ([]Mismatch, error) {
	var mismatches []Mismatch
	for typ := range c.TypeCount() {
		table, _, err := c.loadTable(typ)
		if errors.Is(err, cacheerr.ErrNotFound) {
			continue
		}
		if err != nil {
			return mismatches, err
		}
		for _, id := range table.IDs() {
			entry, _ := table.Entry(id)
			if reason := c.verifyEntry(typ, id, table.Flags, entry); reason != "" {
				mismatches = append(mismatches, Mismatch{Type: typ, ID: id, Reason: reason})
			}
		}
	}
	return mismatches, nil
}

func (c *Cache) verifyEntry(typ, id int, flags reftable.Flags, entry *reftable.Entry) string {
	raw, err := c.store.Read(typ, id)
	if err != nil {
		return err.Error()
	}
	record, err := container.Decode(raw, c.keys.Key(typ, id))
	if err != nil {
		return err.Error()
	}

	body := raw
	if record.Versioned {
		body = raw[:len(raw)-container.VersionSize]
		if record.Version != entry.Version&0xFFFF {
			return fmt.Sprintf("version %d, table says %d", record.Version, entry.Version)
		}
	}
	if crc := checksum.CRC(body); crc != entry.CRC {
		return fmt.Sprintf("crc %d, table says %d", crc, entry.CRC)
	}
	if flags.Has(reftable.FlagWhirlpool) && checksum.Whirlpool(body) != entry.Whirlpool {
		return "whirlpool digest differs from table"
	}
	return ""
}
