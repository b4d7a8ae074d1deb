package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/jaksonlabs/carbonfmt/dotpath"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/internal/config"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/revise"
)

func newCmdSet() *cli.Command {
	return &cli.Command{
		Name:        "set",
		Usage:       "Patch an existing leaf in place.",
		Description: "set <record> <dotpath> <value>: updates an already-resolved scalar leaf without touching the record's commit hash (Patch, not Revise).",
		ArgsUsage:   "<record> <dotpath> <value>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "destination path; defaults to overwriting the input"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 3 {
				return fmt.Errorf("carbonfmt set: expected <record> <dotpath> <value>")
			}
			in := config.New(c.Args().Get(0))
			rec, err := loadRecord(in)
			if err != nil {
				return err
			}
			makeWritable(rec)

			ctx, err := revise.Begin(rec, revise.PatchMode, nil)
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
				return fmt.Errorf("carbonfmt set: %s", res.Status.String())
			}
			if err := applySet(res, c.Args().Get(2)); err != nil {
				_ = ctx.Abort()
				return err
			}

			working, err := ctx.End()
			if err != nil {
				return err
			}

			out := in
			if c.String("out") != "" {
				out = config.New(c.String("out"))
			}
			return saveRecord(out, working)
		},
	}
}

func applySet(res dotpath.Result, raw string) error {
	switch res.Tag {
	case field.True, field.False:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		return res.SetBool(v)
	case field.String:
		return res.SetString(raw)
	case field.U64:
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		return res.SetU64(v)
	case field.I64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		return res.SetI64(v)
	case field.F32:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		return res.SetF32(float32(v))
	default:
		return fmt.Errorf("carbonfmt set: unsupported leaf tag 0x%02x for in-place update", byte(res.Tag))
	}
}
