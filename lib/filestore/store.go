// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
)

// File names within a cache directory.
const (
	DataFileName    = "main_file_cache.dat2"
	IndexFilePrefix = "main_file_cache.idx"
	lockFileName    = "LOCK"
)

// MetaType is the reserved type whose files are the reference tables
// of every other type.
const MetaType = 255

// MaxTypes is the number of ordinary type index files a store can
// open (types 0 through 253).
const MaxTypes = 254

// errStaleChain marks an in-place overwrite that found a block not
// belonging to the file being written. The store recovers from it by
// appending a fresh chain; it never escapes Write.
var errStaleChain = errors.New("existing chain is not reusable")

// Store owns the data file and index files of one cache directory.
type Store struct {
	root    string
	data    *os.File
	indexes []*os.File
	meta    *os.File
	lock    *os.File
	logger  *slog.Logger
}

type options struct {
	logger *slog.Logger
	lock   bool
}

// Option configures [Open] and [Create].
type Option func(*options)

// WithLogger sets the logger used for chain recovery events. The
// default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLock takes an exclusive advisory lock on the cache directory for
// the lifetime of the store. Opening a directory already locked by
// another store fails immediately.
func WithLock() Option {
	return func(o *options) { o.lock = true }
}

// IndexFileName returns the index file name for typ (MetaType
// included).
func IndexFileName(typ int) string {
	return IndexFilePrefix + strconv.Itoa(typ)
}

// Create initialises an empty cache directory with typeCount ordinary
// types and opens it. It fails if a data file already exists.
func Create(root string, typeCount int, opts ...Option) (*Store, error) {
	if typeCount < 1 || typeCount > MaxTypes {
		return nil, fmt.Errorf("type count %d outside [1, %d]: %w", typeCount, MaxTypes, cacheerr.ErrIllegalOperation)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", root, err)
	}

	names := []string{DataFileName, IndexFileName(MetaType)}
	for typ := 0; typ < typeCount; typ++ {
		names = append(names, IndexFileName(typ))
	}
	for _, name := range names {
		path := filepath.Join(root, name)
		file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", path, err)
		}
		if err := file.Close(); err != nil {
			return nil, fmt.Errorf("closing %s: %w", path, err)
		}
	}

	return Open(root, opts...)
}

// Open opens the cache directory at root. The data file, the meta
// index, and index file 0 must exist; further index files are opened
// in order until the first missing one. Either every handle is opened
// or none is left open.
func Open(root string, opts ...Option) (*Store, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{root: root, logger: o.logger}
	if err := s.open(o.lock); err != nil {
		if closeErr := s.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}
	return s, nil
}

func (s *Store) open(lock bool) error {
	if lock {
		lockFile, err := lockDirectory(filepath.Join(s.root, lockFileName))
		if err != nil {
			return err
		}
		s.lock = lockFile
	}

	var err error
	if s.data, err = openExisting(filepath.Join(s.root, DataFileName)); err != nil {
		return err
	}

	for typ := 0; typ < MaxTypes; typ++ {
		index, err := openExisting(filepath.Join(s.root, IndexFileName(typ)))
		if errors.Is(err, cacheerr.ErrNotFound) {
			break
		}
		if err != nil {
			return err
		}
		s.indexes = append(s.indexes, index)
	}
	if len(s.indexes) == 0 {
		return fmt.Errorf("no index files in %s: %w", s.root, cacheerr.ErrNotFound)
	}

	if s.meta, err = openExisting(filepath.Join(s.root, IndexFileName(MetaType))); err != nil {
		return err
	}
	return nil
}

func openExisting(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening %s: %w", path, cacheerr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return file, nil
}

// Close releases every handle held by the store. All handles are
// closed even when some fail; the failures are joined.
func (s *Store) Close() error {
	var errs []error
	closeFile := func(file *os.File) {
		if file == nil {
			return
		}
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	closeFile(s.data)
	for _, index := range s.indexes {
		closeFile(index)
	}
	closeFile(s.meta)
	if s.lock != nil {
		if err := unlockDirectory(s.lock); err != nil {
			errs = append(errs, err)
		}
	}

	s.data, s.indexes, s.meta, s.lock = nil, nil, nil, nil
	return errors.Join(errs...)
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// TypeCount returns the number of ordinary types (index files other
// than the meta index).
func (s *Store) TypeCount() int {
	return len(s.indexes)
}

// FileCount returns the number of index records for typ, which is one
// more than the highest file id ever written.
func (s *Store) FileCount(typ int) (int, error) {
	index, err := s.indexFile(typ)
	if err != nil {
		return 0, err
	}
	size, err := fileSize(index)
	if err != nil {
		return 0, err
	}
	return int(size / IndexRecordSize), nil
}

func (s *Store) indexFile(typ int) (*os.File, error) {
	if typ == MetaType {
		return s.meta, nil
	}
	if typ < 0 || typ >= len(s.indexes) {
		return nil, fmt.Errorf("type %d (store has %d types): %w", typ, len(s.indexes), cacheerr.ErrNotFound)
	}
	return s.indexes[typ], nil
}

func fileSize(file *os.File) (int64, error) {
	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stating %s: %w", file.Name(), err)
	}
	return info.Size(), nil
}

// blockCount returns the number of blocks the data file spans,
// counting a trailing partial block.
func (s *Store) blockCount() (int64, error) {
	size, err := fileSize(s.data)
	if err != nil {
		return 0, err
	}
	return (size + BlockSize - 1) / BlockSize, nil
}

// nextFreeBlock returns the first block past the end of the data
// file. Block 0 is reserved.
func (s *Store) nextFreeBlock() (uint32, error) {
	count, err := s.blockCount()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		count = 1
	}
	if count > maxBlock {
		return 0, fmt.Errorf("data file holds %d blocks, pointer space exhausted", count)
	}
	return uint32(count), nil
}

// readIndex loads the index record for (typ, id). Ids past the end of
// the index file fail with ErrNotFound.
func (s *Store) readIndex(index *os.File, typ, id int) (IndexRecord, error) {
	if id < 0 {
		return IndexRecord{}, fmt.Errorf("file %d/%d: negative id: %w", typ, id, cacheerr.ErrNotFound)
	}
	size, err := fileSize(index)
	if err != nil {
		return IndexRecord{}, err
	}
	offset := int64(id) * IndexRecordSize
	if offset+IndexRecordSize > size {
		return IndexRecord{}, fmt.Errorf("file %d/%d: past end of index: %w", typ, id, cacheerr.ErrNotFound)
	}

	var buf [IndexRecordSize]byte
	if _, err := index.ReadAt(buf[:], offset); err != nil {
		return IndexRecord{}, fmt.Errorf("reading index record %d/%d: %w", typ, id, err)
	}
	return DecodeIndexRecord(buf[:]), nil
}

func (s *Store) writeIndex(index *os.File, typ, id int, record IndexRecord) error {
	var buf [IndexRecordSize]byte
	record.Encode(buf[:])
	if _, err := index.WriteAt(buf[:], int64(id)*IndexRecordSize); err != nil {
		return fmt.Errorf("writing index record %d/%d: %w", typ, id, err)
	}
	return nil
}

// Read returns the bytes of file (typ, id). It fails with ErrNotFound
// if the file was never written and with ErrCorrupt if the chain does
// not hold together.
func (s *Store) Read(typ, id int) ([]byte, error) {
	index, err := s.indexFile(typ)
	if err != nil {
		return nil, err
	}
	record, err := s.readIndex(index, typ, id)
	if err != nil {
		return nil, err
	}
	if record.FirstBlock == 0 {
		return nil, fmt.Errorf("file %d/%d: no data: %w", typ, id, cacheerr.ErrNotFound)
	}

	blocks, err := s.blockCount()
	if err != nil {
		return nil, err
	}

	out := make([]byte, record.Size)
	buf := make([]byte, BlockSize)
	block := record.FirstBlock
	for chunk, offset := 0, 0; offset < len(out); chunk++ {
		if block == 0 || int64(block) >= blocks {
			return nil, fmt.Errorf("file %d/%d chunk %d: block %d outside data file of %d blocks: %w",
				typ, id, chunk, block, blocks, cacheerr.ErrCorrupt)
		}

		n := min(BlockPayloadSize, len(out)-offset)
		segment := buf[:BlockHeaderSize+n]
		if _, err := s.data.ReadAt(segment, int64(block)*BlockSize); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("file %d/%d chunk %d: block %d truncated: %w",
					typ, id, chunk, block, cacheerr.ErrCorrupt)
			}
			return nil, fmt.Errorf("reading block %d: %w", block, err)
		}

		header := DecodeBlockHeader(segment)
		if err := header.check(typ, id, chunk); err != nil {
			return nil, fmt.Errorf("file %d/%d chunk %d at block %d: %v: %w",
				typ, id, chunk, block, err, cacheerr.ErrCorrupt)
		}

		copy(out[offset:], segment[BlockHeaderSize:])
		offset += n
		block = header.NextBlock
	}
	return out, nil
}

// Write stores data as file (typ, id), reusing the file's existing
// chain when every block of it validates and appending a new chain
// otherwise.
func (s *Store) Write(typ, id int, data []byte) error {
	if id < 0 || id > MaxFileID {
		return fmt.Errorf("file id %d outside [0, %d]: %w", id, MaxFileID, cacheerr.ErrIllegalOperation)
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("file %d/%d is %d bytes, limit %d: %w", typ, id, len(data), MaxFileSize, cacheerr.ErrIllegalOperation)
	}
	index, err := s.indexFile(typ)
	if err != nil {
		return err
	}

	err = s.writeChain(index, typ, id, data, true)
	if errors.Is(err, errStaleChain) {
		s.logger.Debug("overwrite target invalid, appending new chain",
			"type", typ,
			"id", id,
			"reason", err.Error(),
		)
		err = s.writeChain(index, typ, id, data, false)
	}
	return err
}

// writeChain writes data as a chain of blocks. With overwrite set it
// starts at the file's current first block and follows the existing
// chain, returning an error wrapping errStaleChain as soon as a block
// fails validation; once the old chain runs out it continues by
// appending. Without overwrite the whole chain is appended.
func (s *Store) writeChain(index *os.File, typ, id int, data []byte, overwrite bool) error {
	blocks, err := s.blockCount()
	if err != nil {
		return err
	}

	var block uint32
	if overwrite {
		record, err := s.readIndex(index, typ, id)
		if errors.Is(err, cacheerr.ErrNotFound) {
			return fmt.Errorf("no index record: %w", errStaleChain)
		}
		if err != nil {
			return err
		}
		if record.FirstBlock == 0 || int64(record.FirstBlock) >= blocks {
			return fmt.Errorf("first block %d not in data file: %w", record.FirstBlock, errStaleChain)
		}
		block = record.FirstBlock
	} else {
		if block, err = s.nextFreeBlock(); err != nil {
			return err
		}
	}

	if err := s.writeIndex(index, typ, id, IndexRecord{Size: uint32(len(data)), FirstBlock: block}); err != nil {
		return err
	}

	// An empty file still gets one zero-padded block, so its first
	// block pointer never aliases a chain appended later.
	buf := make([]byte, BlockSize)
	for chunk, offset := 0, 0; chunk == 0 || offset < len(data); chunk++ {
		var next uint32
		if overwrite {
			if _, err := s.data.ReadAt(buf[:BlockHeaderSize], int64(block)*BlockSize); err != nil {
				if errors.Is(err, io.EOF) {
					return fmt.Errorf("block %d truncated: %w", block, errStaleChain)
				}
				return fmt.Errorf("reading block %d: %w", block, err)
			}
			header := DecodeBlockHeader(buf)
			if err := header.check(typ, id, chunk); err != nil {
				return fmt.Errorf("block %d: %v: %w", block, err, errStaleChain)
			}
			next = header.NextBlock
			if int64(next) >= blocks {
				return fmt.Errorf("block %d points past data file to %d: %w", block, next, errStaleChain)
			}
		}

		if next == 0 {
			overwrite = false
			if next, err = s.nextFreeBlock(); err != nil {
				return err
			}
			if next == block {
				next++
			}
		}

		n := min(BlockPayloadSize, len(data)-offset)
		if offset+n == len(data) {
			next = 0
		}

		BlockHeader{
			OwnerType:  uint8(typ),
			OwnerID:    uint16(id),
			ChunkIndex: uint16(chunk),
			NextBlock:  next,
		}.Encode(buf)
		copy(buf[BlockHeaderSize:], data[offset:offset+n])
		clear(buf[BlockHeaderSize+n:])

		if _, err := s.data.WriteAt(buf, int64(block)*BlockSize); err != nil {
			return fmt.Errorf("writing block %d of file %d/%d: %w", block, typ, id, err)
		}

		offset += n
		block = next
	}
	return nil
}

// Sync flushes the data file and every index file to stable storage.
// Syncing a closed store does nothing.
func (s *Store) Sync() error {
	var errs []error
	for _, file := range append([]*os.File{s.data, s.meta}, s.indexes...) {
		if file == nil {
			continue
		}
		if err := file.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("syncing %s: %w", file.Name(), err))
		}
	}
	return errors.Join(errs...)
}
