// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
	"github.com/apollo-rsps/Vicis-sub000/lib/codec"
)

func tableCommand(stdout io.Writer) *cli.Command {
	var (
		params commonParams
		typ    int
		format string
	)

	return &cli.Command{
		Name:    "table",
		Summary: "Dump the reference table of a type",
		Description: `Print every entry of a type's reference table: file id, CRC, version,
name hash and whirlpool digest when the table carries them, and the
archive members.

The json and cbor formats write the complete table; cbor output is
deterministic, so two dumps of the same table are byte-identical.`,
		Usage: "vicis table --type N [--format text|json|cbor] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("table", pflag.ContinueOnError)
			params.register(flagSet)
			flagSet.IntVar(&typ, "type", -1, "cache type")
			flagSet.StringVar(&format, "format", "text", "output format: text, json, or cbor")
			return flagSet
		},
		Run: func(args []string) (err error) {
			if len(args) != 0 || typ < 0 {
				return fmt.Errorf("usage: vicis table --type N [--format text|json|cbor]")
			}
			outputFormat, err := codec.ParseFormat(format)
			if err != nil {
				return err
			}
			env, err := params.open("table")
			if err != nil {
				return err
			}
			defer env.closeCache(&err)

			table, err := env.cache.ReadTable(typ)
			if err != nil {
				return err
			}
			report := newTableReport(typ, table)
			if outputFormat != codec.FormatText {
				return codec.Write(stdout, outputFormat, report)
			}
			return printTableReport(stdout, report)
		},
	}
}

func printTableReport(w io.Writer, report tableReport) error {
	fmt.Fprintf(w, "type %d: format %d, version %d, %d entries\n\n",
		report.Type, report.Format, report.Version, len(report.Entries))

	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	header := "ID\tCRC\tVERSION"
	if report.Identifiers {
		header += "\tIDENTIFIER"
	}
	if report.Whirlpool {
		header += "\tWHIRLPOOL"
	}
	fmt.Fprintln(tw, header+"\tMEMBERS")

	for _, entry := range report.Entries {
		fmt.Fprintf(tw, "%d\t%d\t%d", entry.ID, entry.CRC, entry.Version)
		if entry.Identifier != nil {
			fmt.Fprintf(tw, "\t%d", *entry.Identifier)
		}
		if entry.Whirlpool != nil {
			text, _ := entry.Whirlpool.MarshalText()
			fmt.Fprintf(tw, "\t%s…", text[:16])
		}
		fmt.Fprintf(tw, "\t%d/%d\n", len(entry.Children), entry.Capacity)
	}
	return tw.Flush()
}
