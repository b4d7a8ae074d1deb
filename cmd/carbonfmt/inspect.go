package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/jaksonlabs/carbonfmt/container"
	"github.com/jaksonlabs/carbonfmt/internal/config"
	"github.com/jaksonlabs/carbonfmt/memfile"
)

func newCmdInspect() *cli.Command {
	return &cli.Command{
		Name:        "inspect",
		Usage:       "Print a record's key variant, size, and top-level element count.",
		ArgsUsage:   "<record>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("carbonfmt inspect: expected <record>")
			}
			rec, err := loadRecord(config.New(c.Args().Get(0)))
			if err != nil {
				return err
			}
			key, err := rec.Key()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "key variant: %s\n", key.Variant)
			fmt.Fprintf(c.App.Writer, "size: %s (%d bytes)\n", humanize.Bytes(uint64(len(rec.Bytes()))), len(rec.Bytes()))

			root, err := container.OpenArray(rec.MemFile(), rec.PayloadOffset(), memfile.ReadOnly)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "root abstract type: %s\n", root.AbstractType())

			n := 0
			for {
				_, ok, err := root.Next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				n++
			}
			fmt.Fprintf(c.App.Writer, "root element count: %s\n", humanize.Comma(int64(n)))
			return nil
		},
	}
}
