package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/jaksonlabs/carbonfmt/dotpath"
	"github.com/jaksonlabs/carbonfmt/internal/config"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/revise"
)

func newCmdRevise() *cli.Command {
	return &cli.Command{
		Name:        "revise",
		Usage:       "Clone a record, patch a leaf, and recompute its commit hash.",
		Description: "revise <record> <dotpath> <value>: unlike set, this writes the result to a new record with a freshly computed commit hash.",
		ArgsUsage:   "<record> <dotpath> <value>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Required: true},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 3 {
				return fmt.Errorf("carbonfmt revise: expected <record> <dotpath> <value>")
			}
			rec, err := loadRecord(config.New(c.Args().Get(0)))
			if err != nil {
				return err
			}

			ctx, err := revise.Begin(rec, revise.ReviseMode, nil)
			if err != nil {
				return err
			}

			res, err := dotpath.Find(ctx.Record(), c.Args().Get(1), memfile.ReadWrite)
			if err != nil {
				_ = ctx.Abort()
				return err
			}
			if res.Status != dotpath.Resolved {
				_ = ctx.Abort()
				return fmt.Errorf("carbonfmt revise: %s", res.Status.String())
			}
			if err := applySet(res, c.Args().Get(2)); err != nil {
				_ = ctx.Abort()
				return err
			}

			working, err := ctx.End()
			if err != nil {
				return err
			}
			h, err := working.CommitHash()
			if err == nil {
				fmt.Fprintf(c.App.Writer, "new commit hash: %s\n", strconv.FormatUint(h, 16))
			}
			return saveRecord(config.New(c.String("out")), working)
		},
	}
}
