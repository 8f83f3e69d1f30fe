package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "servicebusreceiver",
		Usage:     "Receive and accept messages from a Service Bus queue or subscription",
		ArgsUsage: "<namespace> <entity> <issuer> <key>",
		Flags:     runFlags(),
		Writer:    out,
		Action: func(c *cli.Context) error {
			return run(c, out)
		},
	}
}
