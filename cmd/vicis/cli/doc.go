// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command-tree framework behind the vicis
// binary: a [Command] has a name, help text, lazily built pflag flags,
// and either subcommands or a Run function. [Command.Execute] parses
// flags, dispatches to subcommands, prints help on -h/--help, and
// suggests the closest command or flag name on typos.
package cli
