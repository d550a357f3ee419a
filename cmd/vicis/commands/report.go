// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"

	"github.com/apollo-rsps/Vicis-sub000/lib/checksum"
	"github.com/apollo-rsps/Vicis-sub000/lib/reftable"
)

// digest is a whirlpool digest written as hex text in JSON and CBOR.
type digest [checksum.DigestSize]byte

func (d digest) MarshalText() ([]byte, error) {
	return []byte(checksum.FormatDigest(d)), nil
}

func (d *digest) UnmarshalText(text []byte) error {
	parsed, err := checksum.ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type tableReport struct {
	Type        int           `json:"type"`
	Format      uint8         `json:"format"`
	Version     int32         `json:"version"`
	Identifiers bool          `json:"identifiers"`
	Whirlpool   bool          `json:"whirlpool"`
	Entries     []entryReport `json:"entries"`
}

type entryReport struct {
	ID         int           `json:"id"`
	CRC        int32         `json:"crc"`
	Version    int32         `json:"version"`
	Identifier *int32        `json:"identifier,omitempty"`
	Whirlpool  *digest       `json:"whirlpool,omitempty"`
	Capacity   int           `json:"capacity"`
	Children   []childReport `json:"children,omitempty"`
}

type childReport struct {
	ID         int    `json:"id"`
	Identifier *int32 `json:"identifier,omitempty"`
}

func newTableReport(typ int, table *reftable.Table) tableReport {
	identifiers := table.Flags.Has(reftable.FlagIdentifiers)
	report := tableReport{
		Type:        typ,
		Format:      table.Format,
		Version:     table.Version,
		Identifiers: identifiers,
		Whirlpool:   table.Flags.Has(reftable.FlagWhirlpool),
		Entries:     make([]entryReport, 0, table.Size()),
	}
	for _, id := range table.IDs() {
		entry, _ := table.Entry(id)
		row := entryReport{
			ID:       id,
			CRC:      entry.CRC,
			Version:  entry.Version,
			Capacity: entry.Capacity(),
		}
		if identifiers {
			row.Identifier = &entry.Identifier
		}
		if report.Whirlpool {
			whirlpool := digest(entry.Whirlpool)
			row.Whirlpool = &whirlpool
		}
		for _, childID := range entry.ChildIDs() {
			child, _ := entry.Child(childID)
			childRow := childReport{ID: childID}
			if identifiers {
				childRow.Identifier = &child.Identifier
			}
			row.Children = append(row.Children, childRow)
		}
		report.Entries = append(report.Entries, row)
	}
	return report
}

type checksumReport struct {
	Entries []checksumEntryReport `json:"entries"`
}

type checksumEntryReport struct {
	Type      int    `json:"type"`
	CRC       int32  `json:"crc"`
	Version   int32  `json:"version"`
	Whirlpool digest `json:"whirlpool"`
}

func newChecksumReport(summary *checksum.Table) checksumReport {
	report := checksumReport{Entries: make([]checksumEntryReport, summary.Size())}
	for typ, entry := range summary.Entries {
		report.Entries[typ] = checksumEntryReport{
			Type:      typ,
			CRC:       entry.CRC,
			Version:   entry.Version,
			Whirlpool: digest(entry.Whirlpool),
		}
	}
	return report
}

// columnNames lists the optional columns a table carries.
func columnNames(flags reftable.Flags) string {
	var names []string
	if flags.Has(reftable.FlagIdentifiers) {
		names = append(names, "identifiers")
	}
	if flags.Has(reftable.FlagWhirlpool) {
		names = append(names, "whirlpool")
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
