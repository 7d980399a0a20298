package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/amqp"
	"saldo/internal/cli"
	"saldo/internal/log"
	"saldo/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting saldo-worker",
		"backend", cfg.DataBackend,
		"export_dir", cfg.ExportDir,
		"interval", cfg.ExportInterval,
		"publishing", cfg.PublishingEnabled())

	app, err := cli.Bootstrap(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", log.FieldError, err)
		os.Exit(1)
	}

	// The store closes only after both loops have returned.
	stopped := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		<-stopped
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	})

	w := worker.NewExportWorker(app.Service, cfg.ExportDir, cfg.ExportConcurrency, cfg.ExportInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	if cfg.AMQPURL != "" {
		g.Go(func() error {
			return w.Consume(gctx, func() (worker.ExportConsumer, error) {
				c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
				if err != nil {
					return nil, err
				}
				return c, nil
			})
		})
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, running periodic exports only")
	}

	err = g.Wait()
	close(stopped)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		if cerr := app.Close(); cerr != nil {
			logger.Error("Failed to release resources", log.FieldError, cerr)
		}
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
