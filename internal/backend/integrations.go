package backend

import (
	"context"
	"errors"
	"fmt"

	"saldo/internal/amqp"
	"saldo/internal/config"
	"saldo/internal/events/kafka"
	"saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/sheets/google"
)

// Integrations holds the optional outside systems. A nil field means the
// integration is not configured or could not be reached.
type Integrations struct {
	Queue  *amqp.Client
	Events *kafka.Publisher
	Sheets *google.Client
}

// Connect opens every configured integration. Queue and event failures are
// logged and leave the field nil; a configured but broken Sheets client is an
// error because publishing was asked for explicitly.
func Connect(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Integrations, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentBackend)
	in := &Integrations{}

	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without export queue", log.FieldError, err)
		} else {
			in.Queue = c
			logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		in.Events = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.InfoContext(ctx, "Initialized Kafka publisher", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.PublishingEnabled() {
		c, err := google.New(ctx, cfg.GoogleSpreadsheetID, google.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("google sheets: %w", err)
		}
		in.Sheets = c
	}
	return in, nil
}

// ServiceDeps fills the optional dependencies of a LedgerService, leaving
// unconfigured ones nil.
func (in *Integrations) ServiceDeps(store services.Store, logger *log.Logger) services.Deps {
	d := services.Deps{Store: store, Logger: logger}
	if in == nil {
		return d
	}
	if in.Queue != nil {
		d.Exports = in.Queue
	}
	if in.Events != nil {
		d.Imports = in.Events
	}
	if in.Sheets != nil {
		d.Publisher = in.Sheets
		d.SheetReader = in.Sheets
	}
	return d
}

func (in *Integrations) Close() error {
	if in == nil {
		return nil
	}
	var errs []error
	if in.Queue != nil {
		if err := in.Queue.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if in.Events != nil {
		if err := in.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errs...)
}
