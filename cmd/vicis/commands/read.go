// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
)

func readCommand(stdout io.Writer) *cli.Command {
	var (
		params  commonParams
		typ     int
		id      int
		member  int
		outPath string
	)

	return &cli.Command{
		Name:    "read",
		Summary: "Extract a file or archive member",
		Description: `Decode file (type, id) and write its payload. With --member, the
file is treated as an archive and only that member is written.

Enciphered files need their key in the key file (--keys or keys.file).`,
		Usage: "vicis read --type N --id N [--member N] [--out PATH] [flags]",
		Examples: []cli.Example{
			{
				Description: "Write file 12 of type 5 to a local file",
				Command:     "vicis read --type 5 --id 12 --out 5-12.bin",
			},
			{
				Description: "Print member 3 of archive 0 in type 2",
				Command:     "vicis read --type 2 --id 0 --member 3",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("read", pflag.ContinueOnError)
			params.register(flagSet)
			flagSet.IntVar(&typ, "type", -1, "cache type")
			flagSet.IntVar(&id, "id", -1, "file id")
			flagSet.IntVar(&member, "member", -1, "archive member id (default: the whole file)")
			flagSet.StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
			return flagSet
		},
		Run: func(args []string) (err error) {
			if len(args) != 0 || typ < 0 || id < 0 {
				return fmt.Errorf("usage: vicis read --type N --id N [--member N] [--out PATH]")
			}
			env, err := params.open("read")
			if err != nil {
				return err
			}
			defer env.closeCache(&err)

			var data []byte
			if member >= 0 {
				data, err = env.cache.ReadMember(typ, id, member)
				if err != nil {
					return err
				}
			} else {
				record, err := env.cache.Read(typ, id)
				if err != nil {
					return err
				}
				env.logger.Info("decoded file",
					"type", typ,
					"id", id,
					"compression", record.Compression.String(),
					"version", record.Version,
					"bytes", len(record.Data),
				)
				data = record.Data
			}

			if outPath == "" {
				_, err = stdout.Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			return nil
		},
	}
}
