// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"errors"
	"fmt"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireNoError fails the test if err is non-nil.
//
//	testutil.RequireNoError(t, err, "writing file %d", id)
func RequireNoError(t TB, err error, msgAndArgs ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", formatMessage(msgAndArgs), err)
	}
}

// RequireErrorIs fails the test unless errors.Is(err, target).
//
//	testutil.RequireErrorIs(t, err, cacheerr.ErrNotFound, "reading missing file")
func RequireErrorIs(t TB, err, target error, msgAndArgs ...any) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error %v, got nil", formatMessage(msgAndArgs), target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("%s: expected error %v, got %v", formatMessage(msgAndArgs), target, err)
	}
}

// formatMessage renders the optional context of a Require call: a
// plain value, or a format string followed by its arguments.
func formatMessage(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return "(no message)"
	case len(msgAndArgs) > 1:
		if format, ok := msgAndArgs[0].(string); ok {
			return fmt.Sprintf(format, msgAndArgs[1:]...)
		}
		return fmt.Sprint(msgAndArgs...)
	default:
		return fmt.Sprint(msgAndArgs[0])
	}
}
