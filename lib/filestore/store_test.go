// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
	"github.com/apollo-rsps/Vicis-sub000/lib/testutil"
)

var chainSizes = []int{0, 1, 511, 512, 513, 10000}

func newTestStore(t *testing.T, typeCount int) *Store {
	t.Helper()
	store, err := Create(testutil.CacheDir(t), typeCount)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dataFileSize(t *testing.T, store *Store) int64 {
	t.Helper()
	info, err := os.Stat(filepath.Join(store.Root(), DataFileName))
	if err != nil {
		t.Fatalf("stat data file: %v", err)
	}
	return info.Size()
}

func TestCreateLayout(t *testing.T) {
	store := newTestStore(t, 3)

	if store.TypeCount() != 3 {
		t.Errorf("TypeCount = %d, want 3", store.TypeCount())
	}
	for _, name := range []string{DataFileName, "main_file_cache.idx0", "main_file_cache.idx2", "main_file_cache.idx255"} {
		if _, err := os.Stat(filepath.Join(store.Root(), name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	for _, typ := range []int{0, 1, 2, MetaType} {
		count, err := store.FileCount(typ)
		if err != nil {
			t.Fatalf("FileCount(%d) failed: %v", typ, err)
		}
		if count != 0 {
			t.Errorf("FileCount(%d) = %d, want 0", typ, count)
		}
	}
}

func TestCreateRefusesExistingCache(t *testing.T) {
	root := testutil.CacheDir(t)
	store, err := Create(root, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.Close()

	if _, err := Create(root, 1); err == nil {
		t.Fatal("second Create succeeded over an existing cache")
	}
}

func TestOpenMissingFiles(t *testing.T) {
	for _, missing := range []string{DataFileName, "main_file_cache.idx0", "main_file_cache.idx255"} {
		t.Run(missing, func(t *testing.T) {
			root := testutil.CacheDir(t)
			store, err := Create(root, 2)
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			store.Close()

			if err := os.Remove(filepath.Join(root, missing)); err != nil {
				t.Fatal(err)
			}
			_, err = Open(root)
			testutil.RequireErrorIs(t, err, cacheerr.ErrNotFound, "opening without %s", missing)
		})
	}
}

func TestOpenStopsAtFirstMissingIndex(t *testing.T) {
	root := testutil.CacheDir(t)
	store, err := Create(root, 4)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.Close()

	if err := os.Remove(filepath.Join(root, "main_file_cache.idx2")); err != nil {
		t.Fatal(err)
	}
	store, err = Open(root)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if store.TypeCount() != 2 {
		t.Errorf("TypeCount = %d, want 2", store.TypeCount())
	}
	_, err = store.Read(3, 0)
	testutil.RequireErrorIs(t, err, cacheerr.ErrNotFound, "reading type beyond the gap")
}

func TestWriteReadAppend(t *testing.T) {
	for _, size := range chainSizes {
		store := newTestStore(t, 1)
		data := testutil.Payload(size, 1)

		if err := store.Write(0, 4, data); err != nil {
			t.Fatalf("Write(%d bytes) failed: %v", size, err)
		}
		got, err := store.Read(0, 4)
		if err != nil {
			t.Fatalf("Read(%d bytes) failed: %v", size, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("size %d: read %d bytes, content mismatch", size, len(got))
		}
		if size := dataFileSize(t, store); size%BlockSize != 0 {
			t.Errorf("data file length %d is not a whole number of blocks", size)
		}
	}
}

func TestOverwriteReusesChain(t *testing.T) {
	for _, size := range chainSizes {
		store := newTestStore(t, 1)

		original := testutil.Payload(size, 1)
		if err := store.Write(0, 0, original); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		before := dataFileSize(t, store)

		replacement := testutil.Payload(size, 2)
		if err := store.Write(0, 0, replacement); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		if after := dataFileSize(t, store); after != before {
			t.Errorf("size %d: data file grew from %d to %d on same-size overwrite", size, before, after)
		}

		got, err := store.Read(0, 0)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !bytes.Equal(got, replacement) {
			t.Errorf("size %d: overwritten content mismatch", size)
		}
	}
}

func TestOverwriteGrowsAndShrinks(t *testing.T) {
	store := newTestStore(t, 1)

	for i, size := range []int{513, 10000, 1, 2000, 0, 512} {
		data := testutil.Payload(size, byte(i))
		if err := store.Write(0, 9, data); err != nil {
			t.Fatalf("Write #%d (%d bytes) failed: %v", i, size, err)
		}
		got, err := store.Read(0, 9)
		if err != nil {
			t.Fatalf("Read #%d failed: %v", i, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("write #%d (%d bytes): content mismatch", i, size)
		}
	}
}

func TestEmptyFileOwnsItsBlock(t *testing.T) {
	store := newTestStore(t, 1)

	if err := store.Write(0, 1, nil); err != nil {
		t.Fatalf("Write(empty) failed: %v", err)
	}
	if size := dataFileSize(t, store); size != 2*BlockSize {
		t.Errorf("data file is %d bytes after an empty write, want %d", size, 2*BlockSize)
	}
	if err := store.Write(0, 2, testutil.Payload(700, 3)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	index, err := store.indexFile(0)
	testutil.RequireNoError(t, err, "opening index")
	empty, err := store.readIndex(index, 0, 1)
	testutil.RequireNoError(t, err, "reading empty record")
	other, err := store.readIndex(index, 0, 2)
	testutil.RequireNoError(t, err, "reading second record")
	if empty.FirstBlock == 0 || empty.FirstBlock == other.FirstBlock {
		t.Fatalf("empty file first block %d, second file first block %d", empty.FirstBlock, other.FirstBlock)
	}

	header := make([]byte, BlockHeaderSize)
	if _, err := store.data.ReadAt(header, int64(empty.FirstBlock)*BlockSize); err != nil {
		t.Fatalf("reading block %d failed: %v", empty.FirstBlock, err)
	}
	owner := DecodeBlockHeader(header)
	if owner.OwnerType != 0 || owner.OwnerID != 1 || owner.ChunkIndex != 0 || owner.NextBlock != 0 {
		t.Errorf("empty file block header = %+v", owner)
	}

	got, err := store.Read(0, 1)
	testutil.RequireNoError(t, err, "reading empty file")
	if len(got) != 0 {
		t.Errorf("empty file read back %d bytes", len(got))
	}
}

func TestSync(t *testing.T) {
	store := newTestStore(t, 2)
	testutil.RequireNoError(t, store.Write(1, 3, testutil.Payload(1500, 4)), "writing file")
	testutil.RequireNoError(t, store.Write(MetaType, 1, testutil.Payload(20, 5)), "writing meta record")
	testutil.RequireNoError(t, store.Sync(), "syncing open store")

	testutil.RequireNoError(t, store.Close(), "closing store")
	testutil.RequireNoError(t, store.Sync(), "syncing closed store")
}

func TestInterleavedFilesStayIndependent(t *testing.T) {
	store := newTestStore(t, 2)

	files := map[[2]int][]byte{
		{0, 0}: testutil.Payload(1500, 1),
		{0, 1}: testutil.Payload(700, 2),
		{1, 0}: testutil.Payload(3000, 3),
	}
	// Grow each file twice so the chains interleave in the data file.
	for round := 0; round < 2; round++ {
		for key, data := range files {
			grown := append(append([]byte(nil), data...), testutil.Payload(600*round, byte(round))...)
			files[key] = grown
			if err := store.Write(key[0], key[1], grown); err != nil {
				t.Fatalf("Write(%v) failed: %v", key, err)
			}
		}
	}
	for key, data := range files {
		got, err := store.Read(key[0], key[1])
		if err != nil {
			t.Fatalf("Read(%v) failed: %v", key, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("file %v content mismatch", key)
		}
	}
}

func TestMetaTypeHasOwnIndex(t *testing.T) {
	store := newTestStore(t, 1)

	if err := store.Write(MetaType, 0, []byte("table")); err != nil {
		t.Fatalf("Write meta failed: %v", err)
	}
	if err := store.Write(0, 0, []byte("data")); err != nil {
		t.Fatalf("Write data failed: %v", err)
	}

	meta, err := store.Read(MetaType, 0)
	if err != nil {
		t.Fatalf("Read meta failed: %v", err)
	}
	if string(meta) != "table" {
		t.Errorf("meta = %q, want %q", meta, "table")
	}
	if count, _ := store.FileCount(MetaType); count != 1 {
		t.Errorf("FileCount(meta) = %d, want 1", count)
	}
}

func TestReadMissing(t *testing.T) {
	store := newTestStore(t, 1)
	if err := store.Write(0, 3, []byte("x")); err != nil {
		t.Fatal(err)
	}

	_, err := store.Read(0, 10)
	testutil.RequireErrorIs(t, err, cacheerr.ErrNotFound, "id past end of index")

	// Ids below 3 have zeroed records: never written.
	_, err = store.Read(0, 1)
	testutil.RequireErrorIs(t, err, cacheerr.ErrNotFound, "unallocated record")

	_, err = store.Read(5, 0)
	testutil.RequireErrorIs(t, err, cacheerr.ErrNotFound, "unknown type")
}

func TestFileCount(t *testing.T) {
	store := newTestStore(t, 1)
	if err := store.Write(0, 41, []byte("x")); err != nil {
		t.Fatal(err)
	}
	count, err := store.FileCount(0)
	if err != nil {
		t.Fatal(err)
	}
	if count != 42 {
		t.Errorf("FileCount = %d, want 42", count)
	}
}

func TestReadDetectsForeignBlock(t *testing.T) {
	store := newTestStore(t, 2)

	if err := store.Write(0, 0, testutil.Payload(1000, 1)); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(1, 0, testutil.Payload(100, 2)); err != nil {
		t.Fatal(err)
	}

	// Point file 0/0 at the block owned by 1/0.
	record, err := store.readIndex(store.indexes[1], 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.writeIndex(store.indexes[0], 0, 0, IndexRecord{Size: 1000, FirstBlock: record.FirstBlock}); err != nil {
		t.Fatal(err)
	}

	_, err = store.Read(0, 0)
	testutil.RequireErrorIs(t, err, cacheerr.ErrCorrupt, "reading through a foreign block")
}

func TestReadDetectsBrokenChainOrder(t *testing.T) {
	store := newTestStore(t, 1)
	if err := store.Write(0, 0, testutil.Payload(1200, 1)); err != nil {
		t.Fatal(err)
	}
	record, err := store.readIndex(store.indexes[0], 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Rewrite the second block's chunk index.
	var header [BlockHeaderSize]byte
	second := int64(record.FirstBlock+1) * BlockSize
	if _, err := store.data.ReadAt(header[:], second); err != nil {
		t.Fatal(err)
	}
	decoded := DecodeBlockHeader(header[:])
	decoded.ChunkIndex = 5
	decoded.Encode(header[:])
	if _, err := store.data.WriteAt(header[:], second); err != nil {
		t.Fatal(err)
	}

	_, err = store.Read(0, 0)
	testutil.RequireErrorIs(t, err, cacheerr.ErrCorrupt, "reading out-of-order chain")
}

func TestWriteRecoversFromForeignChain(t *testing.T) {
	store := newTestStore(t, 2)

	if err := store.Write(1, 0, testutil.Payload(900, 9)); err != nil {
		t.Fatal(err)
	}
	foreign, err := store.readIndex(store.indexes[1], 1, 0)
	if err != nil {
		t.Fatal(err)
	}

	// File 0/0's index claims 1/0's chain. Overwriting 0/0 must not
	// clobber it.
	if err := store.writeIndex(store.indexes[0], 0, 0, foreign); err != nil {
		t.Fatal(err)
	}
	data := testutil.Payload(1300, 4)
	if err := store.Write(0, 0, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read(0, 0)
	if err != nil {
		t.Fatalf("Read(0, 0) failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("recovered file content mismatch")
	}
	untouched, err := store.Read(1, 0)
	if err != nil {
		t.Fatalf("Read(1, 0) failed: %v", err)
	}
	if !bytes.Equal(untouched, testutil.Payload(900, 9)) {
		t.Error("foreign chain was modified by the failed overwrite")
	}
}

func TestWriteRejectsUnrepresentableFiles(t *testing.T) {
	store := newTestStore(t, 1)

	err := store.Write(0, MaxFileID+1, []byte("x"))
	testutil.RequireErrorIs(t, err, cacheerr.ErrIllegalOperation, "id above 65535")

	err = store.Write(0, -1, []byte("x"))
	testutil.RequireErrorIs(t, err, cacheerr.ErrIllegalOperation, "negative id")
}
