// Package logging wires klog verbosity flags for the carbonfmt CLI, the
// way main.go and its FlagVerbose/FlagVeryVerbose wire klog for the
// teacher's CLI.
package logging

import (
	"flag"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

// FlagVerbose sets klog verbosity to 2 (-v=2).
var FlagVerbose = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "enable verbose logging",
}

// FlagVeryVerbose sets klog verbosity to 4 (-v=4).
var FlagVeryVerbose = &cli.BoolFlag{
	Name:  "very-verbose",
	Usage: "enable very verbose logging",
}

// Setup binds the klog flag set and applies the CLI context's verbosity
// flags. Call from a cli.App's Before hook.
func Setup(c *cli.Context) error {
	klog.InitFlags(nil)
	level := "0"
	switch {
	case c.Bool(FlagVeryVerbose.Name):
		level = "4"
	case c.Bool(FlagVerbose.Name):
		level = "2"
	}
	if err := flag.Set("v", level); err != nil {
		return err
	}
	flag.Parse()
	return nil
}
