// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
)

func verifyCommand(stdout io.Writer) *cli.Command {
	var params commonParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check every file against its reference table",
		Description: `Re-derive the CRC, version, and (when recorded) whirlpool digest of
every file listed in a reference table from the bytes actually stored,
and list the files that disagree. A write interrupted after its table
update shows up here as a file whose data does not match.

Exits 1 when any file disagrees.`,
		Usage: "vicis verify [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			params.register(flagSet)
			return flagSet
		},
		Run: func(args []string) (err error) {
			if len(args) != 0 {
				return fmt.Errorf("usage: vicis verify [flags]")
			}
			env, err := params.open("verify")
			if err != nil {
				return err
			}
			defer env.closeCache(&err)

			mismatches, err := env.cache.Verify()
			if err != nil {
				return err
			}
			for _, mismatch := range mismatches {
				fmt.Fprintln(stdout, mismatch)
			}
			if len(mismatches) > 0 {
				env.logger.Warn("verification failed", "mismatches", len(mismatches))
				return &cli.ExitError{Code: 1}
			}
			fmt.Fprintln(stdout, "all files match their reference tables")
			return nil
		},
	}
}
