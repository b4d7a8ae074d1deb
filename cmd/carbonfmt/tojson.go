package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jaksonlabs/carbonfmt/internal/config"
	"github.com/jaksonlabs/carbonfmt/jsoncodec"
)

func newCmdToJSON() *cli.Command {
	return &cli.Command{
		Name:        "to-json",
		Usage:       "Render a record as JSON (from_json/to_json contract, not part of the wire format).",
		ArgsUsage:   "<record>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("carbonfmt to-json: expected <record>")
			}
			rec, err := loadRecord(config.New(c.Args().Get(0)))
			if err != nil {
				return err
			}
			out, err := jsoncodec.ToJSON(rec)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(out, '\n'))
			return err
		},
	}
}
