package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/jaksonlabs/carbonfmt/dotpath"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/internal/config"
	"github.com/jaksonlabs/carbonfmt/memfile"
)

func newCmdGet() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Evaluate a dot-path against a record and print the resolved leaf.",
		Description: "get <file> <dotpath>: prints the value at the path (null, bool, string, u64, i64 or f32; other numeric widths print <numeric leaf> and any other leaf prints <container>), or reports why it did not resolve.",
		ArgsUsage:   "<record> <dotpath>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("carbonfmt get: expected <record> <dotpath>")
			}
			rec, err := loadRecord(config.New(c.Args().Get(0)))
			if err != nil {
				return err
			}
			res, err := dotpath.Find(rec, c.Args().Get(1), memfile.ReadOnly)
			if err != nil {
				return err
			}
			if res.Status != dotpath.Resolved {
				fmt.Println(res.Status.String())
				return nil
			}
			return printLeaf(res)
		},
	}
}

func printLeaf(res dotpath.Result) error {
	switch {
	case res.Tag == field.Null:
		fmt.Println("null")
		return nil
	case res.Tag == field.True, res.Tag == field.False:
		v, err := res.BoolValue()
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case res.Tag == field.String:
		v, err := res.StringValue()
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case field.IsNumber(res.Tag):
		switch res.Tag {
		case field.U64:
			v, err := res.U64Value()
			if err != nil {
				return err
			}
			fmt.Println(v)
		case field.I64:
			v, err := res.I64Value()
			if err != nil {
				return err
			}
			fmt.Println(v)
		case field.F32:
			v, err := res.F32Value()
			if err != nil {
				return err
			}
			fmt.Println(v)
		default:
			fmt.Println("<numeric leaf>")
		}
		return nil
	default:
		fmt.Println("<container>")
		return nil
	}
}
