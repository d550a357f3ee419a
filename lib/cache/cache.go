// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache is the read/write façade over a cache directory. It
// composes the block store with the container, archive, and reference
// table codecs, and keeps each type's reference table (stored as file
// (MetaType, type)) in step with the files it describes.
//
// Writes persist the updated reference table before the payload. A
// failure between the two leaves the table describing data that is not
// there yet; [Cache.Verify] detects that state by re-deriving each
// entry from the stored bytes. Nothing is repaired automatically.
//
// A Cache is not safe for concurrent use. Callers serialize access,
// and only one Cache should have a directory open at a time (see
// [filestore.WithLock]).
package cache

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
	"github.com/apollo-rsps/Vicis-sub000/lib/container"
	"github.com/apollo-rsps/Vicis-sub000/lib/filestore"
	"github.com/apollo-rsps/Vicis-sub000/lib/keyset"
	"github.com/apollo-rsps/Vicis-sub000/lib/reftable"
)

// Cache reads and writes the files of one cache directory.
type Cache struct {
	store  *filestore.Store
	keys   *keyset.KeySet
	logger *slog.Logger
}

type options struct {
	logger       *slog.Logger
	keys         *keyset.KeySet
	storeOptions []filestore.Option
}

// Option configures [Open], [Create], and [New].
type Option func(*options)

// WithLogger sets the logger for the cache and its block store. The
// default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithKeys supplies XTEA keys for enciphered files. Files without a
// key in the set are read and written in the clear.
func WithKeys(keys *keyset.KeySet) Option {
	return func(o *options) { o.keys = keys }
}

// WithStoreOptions passes options through to the block store opened
// by [Open] or [Create].
func WithStoreOptions(opts ...filestore.Option) Option {
	return func(o *options) { o.storeOptions = append(o.storeOptions, opts...) }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) filestoreOptions() []filestore.Option {
	return append([]filestore.Option{filestore.WithLogger(o.logger)}, o.storeOptions...)
}

// Open opens the cache directory at root.
func Open(root string, opts ...Option) (*Cache, error) {
	o := buildOptions(opts)
	store, err := filestore.Open(root, o.filestoreOptions()...)
	if err != nil {
		return nil, err
	}
	return newCache(store, o), nil
}

// Create initialises an empty cache directory with typeCount types
// and opens it.
func Create(root string, typeCount int, opts ...Option) (*Cache, error) {
	o := buildOptions(opts)
	store, err := filestore.Create(root, typeCount, o.filestoreOptions()...)
	if err != nil {
		return nil, err
	}
	return newCache(store, o), nil
}

// New wraps an already open block store. The Cache takes ownership:
// closing the Cache closes the store. Store options are ignored.
func New(store *filestore.Store, opts ...Option) *Cache {
	return newCache(store, buildOptions(opts))
}

func newCache(store *filestore.Store, o options) *Cache {
	return &Cache{store: store, keys: o.keys, logger: o.logger}
}

// Store returns the underlying block store, for raw access to the
// meta type.
func (c *Cache) Store() *filestore.Store {
	return c.store
}

// Sync flushes every file of the cache directory to stable storage.
func (c *Cache) Sync() error {
	return c.store.Sync()
}

// Close flushes the cache directory and closes the underlying block
// store. The store is closed even when the flush fails.
func (c *Cache) Close() error {
	syncErr := c.store.Sync()
	return errors.Join(syncErr, c.store.Close())
}

// TypeCount returns the number of ordinary types.
func (c *Cache) TypeCount() int {
	return c.store.TypeCount()
}

// FileCount returns the number of index records of typ.
func (c *Cache) FileCount(typ int) (int, error) {
	if err := c.checkType(typ); err != nil {
		return 0, err
	}
	return c.store.FileCount(typ)
}

// checkType rejects the meta type and types the store does not have.
func (c *Cache) checkType(typ int) error {
	if typ == filestore.MetaType {
		return fmt.Errorf("type %d holds reference tables; use the block store directly: %w",
			typ, cacheerr.ErrIllegalOperation)
	}
	if typ < 0 || typ >= c.store.TypeCount() {
		return fmt.Errorf("type %d (cache has %d types): %w", typ, c.store.TypeCount(), cacheerr.ErrNotFound)
	}
	return nil
}

// Read returns the decoded container of file (typ, id).
func (c *Cache) Read(typ, id int) (*container.Container, error) {
	if err := c.checkType(typ); err != nil {
		return nil, err
	}
	return c.readContainer(typ, id)
}

func (c *Cache) readContainer(typ, id int) (*container.Container, error) {
	raw, err := c.store.Read(typ, id)
	if err != nil {
		return nil, err
	}
	decoded, err := container.Decode(raw, c.keys.Key(typ, id))
	if err != nil {
		return nil, fmt.Errorf("decoding file %d/%d: %w", typ, id, err)
	}
	return decoded, nil
}

// ReadTable returns a copy of the reference table of typ. It fails
// with ErrNotFound when the type has never been written or its meta
// record is empty.
func (c *Cache) ReadTable(typ int) (*reftable.Table, error) {
	if err := c.checkType(typ); err != nil {
		return nil, err
	}
	table, _, err := c.loadTable(typ)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// loadTable decodes the reference table of typ along with the
// container it was stored in. Every call decodes afresh, so the
// returned table is private to the caller.
func (c *Cache) loadTable(typ int) (*reftable.Table, *container.Container, error) {
	raw, err := c.store.Read(filestore.MetaType, typ)
	if err != nil {
		return nil, nil, fmt.Errorf("reading reference table of type %d: %w", typ, err)
	}
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("reference table of type %d is empty: %w", typ, cacheerr.ErrNotFound)
	}
	stored, err := container.Decode(raw, container.ZeroKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding reference table container of type %d: %w", typ, err)
	}
	table, err := reftable.Decode(stored.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding reference table of type %d: %w", typ, err)
	}
	return table, stored, nil
}

// loadOrCreateTable is loadTable for the write path: a type with no
// reference table yet starts from an empty one stored gzip-compressed.
func (c *Cache) loadOrCreateTable(typ int) (*reftable.Table, *container.Container, error) {
	table, stored, err := c.loadTable(typ)
	if errors.Is(err, cacheerr.ErrNotFound) {
		c.logger.Debug("starting reference table", "type", typ)
		return reftable.New(), container.New(container.CompressionGzip, nil), nil
	}
	return table, stored, err
}
