// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the vicis command tree.
package commands

import (
	"io"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
)

// Root returns the top-level vicis command. Command output goes to
// stdout; help and logs go to stderr.
func Root(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "vicis",
		Summary: "Inspect and verify a game-asset cache",
		Description: `vicis reads the block-store cache format: a shared data file of
520-byte blocks, one index file per type, and a meta index holding each
type's reference table.

Configuration comes from --config, or the file named by VICIS_CONFIG,
or built-in defaults. --root and --keys override the file.`,
		Subcommands: []*cli.Command{
			infoCommand(stdout),
			readCommand(stdout),
			tableCommand(stdout),
			checksumCommand(stdout),
			verifyCommand(stdout),
		},
	}
}
