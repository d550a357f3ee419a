// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for cache packages.
//
// [Payload] builds deterministic, mildly compressible byte strings of
// a given size, so round-trip tests exercise real compression without
// depending on crypto/rand. [CacheDir] returns a fresh directory for an
// on-disk store. [RequireErrorIs] and [RequireNoError] encapsulate the
// error assertions that every storage test repeats.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies on the packages it serves, so their
// internal tests can import it without cycles.
package testutil
