package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ava-labs/eventhub-sender/pkg/eventhub"
	"github.com/ava-labs/eventhub-sender/pkg/metrics"
	"github.com/ava-labs/eventhub-sender/pkg/utils"
)

const shutdownTimeout = 5 * time.Second

func run(c *cli.Context, out io.Writer) error {
	if c.NArg() != requiredArgs {
		printUsage(out)
		return nil
	}

	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	desc, err := eventhub.NewDescriptor(cfg.Namespace, cfg.Entity, cfg.Issuer, cfg.Key, cfg.EventHub.Domain)
	if err != nil {
		sugar.Errorw("invalid arguments", "error", err)
		return err
	}

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"endpoint", desc.String(),
		"timeout", cfg.Timeout,
		"metricsAddr", cfg.MetricsAddr,
		"environment", cfg.Environment,
	)

	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{
		Namespace:   cfg.Namespace,
		Transport:   eventhub.TransportAMQP,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	var open atomic.Bool
	if cfg.MetricsAddr != "" {
		metricsServer := metrics.NewServer(cfg.MetricsAddr, registry, open.Load)
		metricsErrCh := metricsServer.Start()
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr)
		go func() {
			if err := <-metricsErrCh; err != nil {
				sugar.Errorw("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				sugar.Warnw("metrics server shutdown error", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	receiver, err := eventhub.OpenReceiver(ctx, desc, cfg.EventHub, sugar, m)
	if err != nil {
		sugar.Errorw("failed to connect", "error", err)
		return err
	}
	open.Store(true)
	defer func() {
		open.Store(false)
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := receiver.Close(closeCtx); err != nil {
			sugar.Warnw("failed to close receiver", "error", err)
		}
	}()

	received, err := receiveLoop(ctx, receiver, out, cfg.Timeout, sugar)
	sugar.Infow("receive loop finished", "received", received)
	if err != nil {
		sugar.Errorw("run failed", "error", err)
		return err
	}
	sugar.Info("shutdown complete")
	return nil
}

type messageSource interface {
	Receive(ctx context.Context) (*eventhub.ReceivedMessage, error)
	Accept(ctx context.Context, msg *eventhub.ReceivedMessage) error
}

// receiveLoop prints and accepts messages until idle for timeout or ctx is done.
func receiveLoop(
	ctx context.Context,
	src messageSource,
	out io.Writer,
	timeout time.Duration,
	log *zap.SugaredLogger,
) (uint64, error) {
	var received uint64
	for {
		recvCtx, cancel := context.WithTimeout(ctx, timeout)
		msg, err := src.Receive(recvCtx)
		cancel()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			log.Infow("exiting due to context cancellation")
			return received, nil
		case errors.Is(err, context.DeadlineExceeded):
			log.Infow("no message received before timeout", "timeout", timeout)
			return received, nil
		default:
			return received, err
		}

		printMessage(out, received, msg)
		if err := src.Accept(ctx, msg); err != nil {
			return received, err
		}
		received++
	}
}
