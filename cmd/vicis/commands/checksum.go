// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
	"github.com/apollo-rsps/Vicis-sub000/lib/checksum"
	"github.com/apollo-rsps/Vicis-sub000/lib/codec"
)

func checksumCommand(stdout io.Writer) *cli.Command {
	var (
		params    commonParams
		whirlpool bool
		outPath   string
		checkPath string
		format    string
	)

	return &cli.Command{
		Name:    "checksum",
		Summary: "Build or check the cache checksum table",
		Description: `Summarize every type's reference table (CRC-32, version, whirlpool
digest) into a checksum table.

With --out the encoded table is written to a file. The secured form
(--whirlpool or checksum.whirlpool) carries digests and a trailer,
RSA-transformed with checksum.modulus and checksum.private_exponent
when a modulus is configured.

With --check an existing encoded table is decoded (using
checksum.public_exponent for the trailer) and compared against the
cache; the command exits 1 when they differ.`,
		Usage: "vicis checksum [--whirlpool] [--out PATH | --check PATH] [flags]",
		Examples: []cli.Example{
			{
				Description: "Write a secured checksum table",
				Command:     "vicis checksum --whirlpool --out checksums.bin",
			},
			{
				Description: "Check a checksum table served to clients",
				Command:     "vicis checksum --whirlpool --check checksums.bin",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("checksum", pflag.ContinueOnError)
			params.register(flagSet)
			flagSet.BoolVar(&whirlpool, "whirlpool", false, "use the secured form (overrides checksum.whirlpool when set)")
			flagSet.StringVarP(&outPath, "out", "o", "", "write the encoded table to this file")
			flagSet.StringVar(&checkPath, "check", "", "compare an encoded table against the cache")
			flagSet.StringVar(&format, "format", "text", "summary format: text, json, or cbor")
			return flagSet
		},
		Run: func(args []string) (err error) {
			if len(args) != 0 {
				return fmt.Errorf("usage: vicis checksum [--whirlpool] [--out PATH | --check PATH]")
			}
			if outPath != "" && checkPath != "" {
				return fmt.Errorf("--out and --check are mutually exclusive")
			}
			outputFormat, err := codec.ParseFormat(format)
			if err != nil {
				return err
			}
			env, err := params.open("checksum")
			if err != nil {
				return err
			}
			defer env.closeCache(&err)

			secured := whirlpool || env.config.Checksum.Whirlpool
			summary, err := env.cache.CreateChecksumTable()
			if err != nil {
				return err
			}

			switch {
			case checkPath != "":
				return checkChecksumTable(stdout, env, checkPath, secured, summary)
			case outPath != "":
				key, err := env.config.EncodingKey()
				if err != nil {
					return err
				}
				encoded, err := summary.Encode(secured, key)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outPath, err)
				}
				env.logger.Info("wrote checksum table",
					"path", outPath,
					"types", summary.Size(),
					"secured", secured,
					"rsa", key != nil,
				)
			}

			report := newChecksumReport(summary)
			if outputFormat != codec.FormatText {
				return codec.Write(stdout, outputFormat, report)
			}
			return printChecksumReport(stdout, report)
		},
	}
}

func checkChecksumTable(stdout io.Writer, env *environment, path string, secured bool, summary *checksum.Table) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	key, err := env.config.DecodingKey()
	if err != nil {
		return err
	}
	served, err := checksum.Decode(data, secured, key)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	differences := 0
	for typ := range max(served.Size(), summary.Size()) {
		var want, got checksum.Entry
		if typ < summary.Size() {
			want = summary.Entries[typ]
		}
		if typ < served.Size() {
			got = served.Entries[typ]
		}
		if !secured {
			want.Whirlpool = [checksum.DigestSize]byte{}
		}
		if got != want {
			differences++
			fmt.Fprintf(stdout, "type %d: table has crc %d version %d, cache has crc %d version %d\n",
				typ, got.CRC, got.Version, want.CRC, want.Version)
		}
	}
	if differences > 0 {
		return &cli.ExitError{Code: 1}
	}
	fmt.Fprintf(stdout, "%s matches the cache (%d types)\n", path, summary.Size())
	return nil
}

func printChecksumReport(w io.Writer, report checksumReport) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCRC\tVERSION\tWHIRLPOOL")
	for _, entry := range report.Entries {
		text, _ := entry.Whirlpool.MarshalText()
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s…\n", entry.Type, entry.CRC, entry.Version, text[:16])
	}
	return tw.Flush()
}
