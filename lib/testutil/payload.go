// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// Payload returns size bytes derived from seed. The bytes cycle
// through a short seed-dependent alphabet, so gzip and bzip2 both
// shrink them while different seeds still produce different content.
func Payload(size int, seed byte) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = seed + byte(i%61) + byte(i/4099)
	}
	return out
}

// CacheDir returns a path inside t.TempDir() that does not exist yet,
// suitable for filestore.Create.
func CacheDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache")
}
