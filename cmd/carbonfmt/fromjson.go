package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jaksonlabs/carbonfmt/internal/config"
	"github.com/jaksonlabs/carbonfmt/jsoncodec"
	"github.com/jaksonlabs/carbonfmt/record"
)

func newCmdFromJSON() *cli.Command {
	return &cli.Command{
		Name:        "from-json",
		Usage:       "Build a record from a JSON array (from_json/to_json contract, not part of the wire format).",
		ArgsUsage:   "<json-file> <out>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "abstract-type", Value: "unsorted-multiset"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("carbonfmt from-json: expected <json-file> <out>")
			}
			at, err := parseAbstractType(c.String("abstract-type"))
			if err != nil {
				return err
			}
			var data []byte
			if c.Args().Get(0) == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(c.Args().Get(0))
			}
			if err != nil {
				return err
			}
			rec, err := jsoncodec.FromJSON(data, record.NoKey, at)
			if err != nil {
				return err
			}
			return saveRecord(config.New(c.Args().Get(1)), rec)
		},
	}
}
