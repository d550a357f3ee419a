// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package filestore

import (
	"fmt"
	"os"
)

// lockDirectory opens the lock file at path. Platforms without flock
// get no cross-process exclusion; the file only records that a store
// was opened with locking requested.
func lockDirectory(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}
	return file, nil
}

func unlockDirectory(file *os.File) error {
	return file.Close()
}
