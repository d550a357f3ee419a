// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package filestore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lockDirectory opens (creating if needed) the lock file at path and
// takes an exclusive, non-blocking flock on it. The returned file must
// stay open for as long as the lock is held.
func lockDirectory(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf("cache directory is in use by another store (%s): %w", path, err)
	}
	return file, nil
}

func unlockDirectory(file *os.File) error {
	unlockErr := unix.Flock(int(file.Fd()), unix.LOCK_UN)
	closeErr := file.Close()
	if unlockErr != nil {
		return fmt.Errorf("releasing lock %s: %w", file.Name(), unlockErr)
	}
	return closeErr
}
