// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the vicis
// command.
//
// Configuration is loaded from a single file specified by either the
// VICIS_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search. Command-line
// flags override individual values after loading.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${VICIS_ROOT} (the configured cache root), and
// ${VAR:-default} patterns are expanded. No other environment
// variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Cache, Keys, Checksum, Log
//   - [Default] -- returns a Config with defaults for every field
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.EncodingKey] and [Config.DecodingKey] -- the RSA halves
//     used for secured checksum tables
package config
