package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

// runFlags returns all CLI flags for the receiver
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "env-file",
			Usage:   "Load EVENTHUB_* settings from this .env file before reading the environment",
			EnvVars: []string{"ENV_FILE"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Stop after this long without a message",
			EnvVars: []string{"RECEIVE_TIMEOUT"},
			Value:   10 * time.Second,
		},
		&cli.StringFlag{
			Name:    "domain",
			Usage:   "Service domain appended to the namespace",
			EnvVars: []string{"EVENTHUB_DOMAIN"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "Address for the Prometheus metrics server (e.g. :9090); empty disables it",
			EnvVars: []string{"METRICS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "environment",
			Usage:   "Deployment environment label for metrics (e.g. production, staging)",
			EnvVars: []string{"ENVIRONMENT"},
		},
	}
}
