package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/eventhub-sender/pkg/eventhub"
)

// Config holds all configuration for the sender
type Config struct {
	// Application settings
	Verbose bool
	EnvFile string

	// Destination, from the positional arguments
	Namespace   string
	ChannelPath string
	Issuer      string
	Key         string

	// Connection settings
	EventHub eventhub.Config

	// Metrics settings
	MetricsAddr string
	Environment string
}

// buildConfig builds a Config from CLI context flags, positional arguments and
// the EVENTHUB_* environment. Callers check the argument count first.
func buildConfig(c *cli.Context) (*Config, error) {
	envFile := c.String("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, &eventhub.ConfigurationError{Field: "env file", Err: err}
		}
	}

	ehCfg, err := eventhub.LoadConfig()
	if err != nil {
		return nil, err
	}
	if c.IsSet("transport") {
		ehCfg.Transport = c.String("transport")
	}
	if c.IsSet("domain") {
		ehCfg.Domain = c.String("domain")
	}
	ehCfg = ehCfg.WithDefaults()
	if err := ehCfg.Validate(); err != nil {
		return nil, err
	}

	args := c.Args()
	if args.Len() != requiredArgs {
		return nil, fmt.Errorf("expected %d arguments, got %d", requiredArgs, args.Len())
	}

	return &Config{
		Verbose:     c.Bool("verbose"),
		EnvFile:     envFile,
		Namespace:   args.Get(0),
		ChannelPath: args.Get(1),
		Issuer:      args.Get(2),
		Key:         args.Get(3),
		EventHub:    ehCfg,
		MetricsAddr: c.String("metrics-addr"),
		Environment: c.String("environment"),
	}, nil
}
