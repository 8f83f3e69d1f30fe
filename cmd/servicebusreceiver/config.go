package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/eventhub-sender/pkg/eventhub"
)

const requiredArgs = 4

// Config holds all configuration for the receiver
type Config struct {
	Verbose bool
	Timeout time.Duration

	Namespace string
	Entity    string
	Issuer    string
	Key       string

	EventHub eventhub.Config

	MetricsAddr string
	Environment string
}

func buildConfig(c *cli.Context) (*Config, error) {
	if envFile := c.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, &eventhub.ConfigurationError{Field: "env file", Err: err}
		}
	}

	ehCfg, err := eventhub.LoadConfig()
	if err != nil {
		return nil, err
	}
	if c.IsSet("domain") {
		ehCfg.Domain = c.String("domain")
	}
	// The receiver always speaks AMQP.
	ehCfg.Transport = eventhub.TransportAMQP
	ehCfg = ehCfg.WithDefaults()
	if err := ehCfg.Validate(); err != nil {
		return nil, err
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		return nil, &eventhub.ConfigurationError{Field: "timeout", Err: fmt.Errorf("must be positive, got %s", timeout)}
	}

	args := c.Args()
	if args.Len() != requiredArgs {
		return nil, fmt.Errorf("expected %d arguments, got %d", requiredArgs, args.Len())
	}

	return &Config{
		Verbose:     c.Bool("verbose"),
		Timeout:     timeout,
		Namespace:   args.Get(0),
		Entity:      args.Get(1),
		Issuer:      args.Get(2),
		Key:         args.Get(3),
		EventHub:    ehCfg,
		MetricsAddr: c.String("metrics-addr"),
		Environment: c.String("environment"),
	}, nil
}
