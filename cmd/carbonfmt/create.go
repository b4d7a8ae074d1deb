package main

import (
	"github.com/urfave/cli/v2"

	"github.com/jaksonlabs/carbonfmt/internal/config"
	"github.com/jaksonlabs/carbonfmt/record"
)

func newCmdCreate() *cli.Command {
	return &cli.Command{
		Name:        "create",
		Usage:       "Create an empty carbonfmt record.",
		Description: "Create an empty carbonfmt record with the given key variant and root abstract type, writing it to --out.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Value: "nokey", Usage: "nokey|autokey"},
			&cli.StringFlag{Name: "abstract-type", Value: "unsorted-multiset"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "destination path, or - for stdout"},
		},
		Action: func(c *cli.Context) error {
			at, err := parseAbstractType(c.String("abstract-type"))
			if err != nil {
				return err
			}
			variant := record.NoKey
			if c.String("key") == "autokey" {
				variant = record.AutoKey
			}
			rec, err := record.New(variant, at)
			if err != nil {
				return err
			}
			return saveRecord(config.New(c.String("out")), rec)
		},
	}
}
