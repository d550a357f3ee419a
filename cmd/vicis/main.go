// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// vicis inspects, extracts from, and verifies a game-asset cache.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that already reported their outcome (verify,
		// checksum --check) return an exit code without a message.
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root(os.Stdout).Execute(os.Args[1:])
}
