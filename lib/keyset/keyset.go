// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyset holds the XTEA keys of enciphered cache files, keyed
// by (type, id). Key files are authored either as YAML or as JSONC
// (JSON extended with comments and trailing commas); both hold a list
// of records:
//
//	- type: 5
//	  id: 1234
//	  key: [-1920480496, -1423914110, 951774544, -1419269290]
//
// A file without a record reads with the zero key, which leaves the
// container cipher pass disabled.
package keyset

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/apollo-rsps/Vicis-sub000/lib/container"
)

// Record is one entry of a key file.
type Record struct {
	Type int     `yaml:"type" json:"type"`
	ID   int     `yaml:"id"   json:"id"`
	Key  []int32 `yaml:"key"  json:"key"`
}

type fileRef struct {
	typ, id int
}

// KeySet maps files to their keys. The zero value is not usable; call
// [New] or one of the parse functions.
type KeySet struct {
	keys map[fileRef]container.Key
}

// New returns an empty KeySet.
func New() *KeySet {
	return &KeySet{keys: make(map[fileRef]container.Key)}
}

// Put sets the key for a file. Putting the zero key removes the entry.
func (s *KeySet) Put(typ, id int, key container.Key) {
	if key.IsZero() {
		delete(s.keys, fileRef{typ, id})
		return
	}
	s.keys[fileRef{typ, id}] = key
}

// Key returns the key for a file, or the zero key when none is known.
// A nil KeySet has no keys.
func (s *KeySet) Key(typ, id int) container.Key {
	if s == nil {
		return container.ZeroKey
	}
	return s.keys[fileRef{typ, id}]
}

// Len returns the number of files with a key.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// FromRecords builds a KeySet, rejecting malformed and duplicate
// records. All problems are reported together.
func FromRecords(records []Record) (*KeySet, error) {
	set := New()
	seen := make(map[fileRef]bool, len(records))
	var errs []error
	for i, record := range records {
		ref := fileRef{record.Type, record.ID}
		switch {
		case record.Type < 0 || record.Type > 0xFF:
			errs = append(errs, fmt.Errorf("record %d: type %d outside [0, 255]", i, record.Type))
		case record.ID < 0:
			errs = append(errs, fmt.Errorf("record %d: negative id %d", i, record.ID))
		case len(record.Key) != len(container.Key{}):
			errs = append(errs, fmt.Errorf("record %d: key has %d words, want 4", i, len(record.Key)))
		case seen[ref]:
			errs = append(errs, fmt.Errorf("record %d: duplicate key for type %d id %d", i, record.Type, record.ID))
		default:
			seen[ref] = true
			var key container.Key
			copy(key[:], record.Key)
			set.Put(record.Type, record.ID, key)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid key set: %w", errors.Join(errs...))
	}
	return set, nil
}

// Records returns the keys of s as records, sorted by type then id.
func (s *KeySet) Records() []Record {
	if s == nil {
		return nil
	}
	records := make([]Record, 0, len(s.keys))
	for ref, key := range s.keys {
		records = append(records, Record{Type: ref.typ, ID: ref.id, Key: key[:]})
	}
	slices.SortFunc(records, func(a, b Record) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.ID, b.ID))
	})
	return records
}

// ParseYAML parses a YAML key file.
func ParseYAML(data []byte) (*KeySet, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing key set: %w", err)
	}
	return FromRecords(records)
}

// ParseJSON parses a JSON or JSONC key file.
func ParseJSON(data []byte) (*KeySet, error) {
	var records []Record
	if err := json.Unmarshal(jsonc.ToJSON(data), &records); err != nil {
		return nil, fmt.Errorf("parsing key set: %w", err)
	}
	return FromRecords(records)
}

// LoadFile reads a key file, choosing the parser from the extension:
// .yaml and .yml are YAML, .json and .jsonc are JSONC.
func LoadFile(path string) (*KeySet, error) {
	var parse func([]byte) (*KeySet, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parse = ParseYAML
	case ".json", ".jsonc":
		parse = ParseJSON
	default:
		return nil, fmt.Errorf("key file %s: unknown extension (want .yaml, .yml, .json, or .jsonc)", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	set, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}
