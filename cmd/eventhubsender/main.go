package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/eventhub-sender/pkg/eventhub"
)

// deps are the process level collaborators, replaced in tests.
type deps struct {
	in     io.Reader
	out    io.Writer
	dialer eventhub.Dialer    // nil selects the dialer for the configured transport
	log    *zap.SugaredLogger // nil builds one from --verbose
}

func main() {
	app := newApp(deps{in: os.Stdin, out: os.Stdout})
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(d deps) *cli.App {
	return &cli.App{
		Name:      "eventhubsender",
		Usage:     "Send sample messages to an Event Hub, one per line typed on stdin",
		ArgsUsage: "<namespace> <channel-path> <issuer> <key>",
		Flags:     runFlags(),
		Writer:    d.out,
		Action: func(c *cli.Context) error {
			return run(c, d)
		},
	}
}
