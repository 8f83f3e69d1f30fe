package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/eventhub-sender/internal/prompt"
	"github.com/ava-labs/eventhub-sender/pkg/eventhub"
	"github.com/ava-labs/eventhub-sender/pkg/metrics"
	"github.com/ava-labs/eventhub-sender/pkg/utils"
)

const shutdownTimeout = 5 * time.Second

func run(c *cli.Context, d deps) error {
	if c.NArg() != requiredArgs {
		printUsage(d.out)
		return nil
	}

	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar := d.log
	if sugar == nil {
		sugar, err = utils.NewSugaredLogger(cfg.Verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	desc, err := eventhub.NewDescriptor(cfg.Namespace, cfg.ChannelPath, cfg.Issuer, cfg.Key, cfg.EventHub.Domain)
	if err != nil {
		sugar.Errorw("invalid arguments", "error", err)
		return err
	}

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"endpoint", desc.String(),
		"transport", cfg.EventHub.Transport,
		"connectTimeout", cfg.EventHub.ConnectTimeout,
		"sendTimeout", cfg.EventHub.SendTimeout,
		"partitionKeys", !cfg.EventHub.DisableAnnotations,
		"metricsAddr", cfg.MetricsAddr,
		"environment", cfg.Environment,
	)

	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{
		Namespace:   cfg.Namespace,
		Transport:   cfg.EventHub.Transport,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	// Set once the session is open; /health reports 503 until then.
	var current atomic.Pointer[eventhub.Session]

	var metricsErrCh <-chan error
	var metricsServer *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr, registry, func() bool {
			return current.Load().IsOpen()
		})
		metricsErrCh = metricsServer.Start()
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr)
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

	dialer := d.dialer
	if dialer == nil {
		dialer, err = eventhub.NewDialer(cfg.EventHub.Transport)
		if err != nil {
			return err
		}
	}

	session, err := eventhub.Open(ctx, dialer, desc, cfg.EventHub, sugar, m)
	if err != nil {
		sugar.Errorw("failed to connect", "error", err)
		return err
	}
	current.Store(session)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			sugar.Warnw("failed to close session", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})
	g.Go(func() error {
		defer close(loopDone)
		loop := &prompt.Loop{In: d.in, Out: d.out, Sender: session}
		sent, err := loop.Run(gctx)
		sugar.Infow("send loop finished", "sent", sent)
		return err
	})
	if metricsErrCh != nil {
		g.Go(func() error {
			select {
			case <-loopDone:
				return nil
			case <-gctx.Done():
				return nil
			case err := <-metricsErrCh:
				if err != nil {
					return fmt.Errorf("metrics server failed: %w", err)
				}
				return nil
			}
		})
	}

	err = g.Wait()
	switch {
	case errors.Is(err, context.Canceled):
		sugar.Infow("exiting due to context cancellation")
		err = nil
	case err != nil:
		sugar.Errorw("run failed", "error", err)
	}

	sugar.Info("shutdown complete")
	return err
}
