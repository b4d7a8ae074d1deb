// Command carbonfmt is the CLI front end for the carbonfmt library,
// structured like the teacher's main.go: a sorted cli.App with one
// cli.Command per verb and a shared context cancelled on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/jaksonlabs/carbonfmt/internal/logging"
)

var gitCommitSHA = ""

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "carbonfmt",
		Version:     gitCommitSHA,
		Description: "Create, inspect, and mutate self-describing carbonfmt binary records.",
		Before:      logging.Setup,
		Flags: []cli.Flag{
			logging.FlagVerbose,
			logging.FlagVeryVerbose,
		},
		Commands: []*cli.Command{
			newCmdCreate(),
			newCmdGet(),
			newCmdSet(),
			newCmdRevise(),
			newCmdToJSON(),
			newCmdFromJSON(),
			newCmdInspect(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Fatal(err)
	}
}
