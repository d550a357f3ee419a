// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
	"github.com/apollo-rsps/Vicis-sub000/lib/cacheerr"
)

func infoCommand(stdout io.Writer) *cli.Command {
	var params commonParams

	return &cli.Command{
		Name:    "info",
		Summary: "Summarize the types of a cache",
		Description: `List every type of the cache with its index record count and, when
the type has a reference table, the table version, entry count, and
optional columns.`,
		Usage: "vicis info [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
			params.register(flagSet)
			return flagSet
		},
		Run: func(args []string) (err error) {
			if len(args) != 0 {
				return fmt.Errorf("usage: vicis info [flags]")
			}
			env, err := params.open("info")
			if err != nil {
				return err
			}
			defer env.closeCache(&err)

			fmt.Fprintf(stdout, "root:  %s\ntypes: %d\n\n", env.config.Cache.Root, env.cache.TypeCount())
			tw := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tFILES\tTABLE\tENTRIES\tCOLUMNS")
			for typ := range env.cache.TypeCount() {
				files, err := env.cache.FileCount(typ)
				if err != nil {
					return err
				}
				table, err := env.cache.ReadTable(typ)
				if errors.Is(err, cacheerr.ErrNotFound) {
					fmt.Fprintf(tw, "%d\t%d\t-\t-\t-\n", typ, files)
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%d\tv%d (format %d)\t%d\t%s\n",
					typ, files, table.Version, table.Format, table.Size(), columnNames(table.Flags))
			}
			return tw.Flush()
		},
	}
}
