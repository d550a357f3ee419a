// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reftable

import "strings"

// NameHash returns the identifier stored for a file or member name:
// h = 31*h + c over the lower-cased bytes of name, in 32-bit two's
// complement arithmetic.
func NameHash(name string) int32 {
	var hash int32
	for _, c := range []byte(strings.ToLower(name)) {
		hash = hash*31 + int32(c)
	}
	return hash
}
