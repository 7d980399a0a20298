package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/services"
)

// LedgerExporter is the part of services.LedgerService the worker drives.
type LedgerExporter interface {
	Accounts(ctx context.Context) ([]core.Account, error)
	Export(ctx context.Context, accountID string) (services.Export, error)
	Publish(ctx context.Context, accountID string) (string, error)
	CanPublish() bool
}

// ExportConsumer delivers queued export jobs until ctx ends or the
// connection drops.
type ExportConsumer interface {
	ConsumeLedgerExports(ctx context.Context, handler func(context.Context, *amqp.LedgerExportMessage) error) error
	Close() error
}

// ExportWorker writes account ledgers to an export directory and, when
// configured, publishes them. Jobs come from the queue and from a periodic
// full re-export.
type ExportWorker struct {
	ledgers     LedgerExporter
	dir         string
	concurrency int
	interval    time.Duration
	logger      *log.Logger
	sleep       func(context.Context, time.Duration) error
}

func NewExportWorker(ledgers LedgerExporter, dir string, concurrency int, interval time.Duration, logger *log.Logger) *ExportWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		ledgers:     ledgers,
		dir:         dir,
		concurrency: concurrency,
		interval:    interval,
		logger:      logger.WithComponent(log.ComponentWorker),
		sleep:       sleepContext,
	}
}

// HandleExportMessage processes a single export job from AMQP.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.LedgerExportMessage) error {
	w.logger.InfoContext(ctx, "Processing export message",
		log.FieldAccountID, msg.AccountID,
		"requested_at", msg.RequestedAt)
	if err := w.exportOne(ctx, msg.AccountID); err != nil {
		// Unknown accounts are acked, not requeued.
		if errors.Is(err, core.ErrAccountNotFound) {
			w.logger.WarnContext(ctx, "Dropping export for unknown account", log.FieldAccountID, msg.AccountID)
			return nil
		}
		return err
	}
	return nil
}

// ExportAll exports every account, at most concurrency at a time. A failing
// account does not stop the others; it returns the number of accounts
// exported and every failure joined.
func (w *ExportWorker) ExportAll(ctx context.Context) (int, error) {
	runID := uuid.New().String()
	start := time.Now()

	accts, err := w.ledgers.Accounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	var (
		done atomic.Int64
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(w.concurrency)
	for _, a := range accts {
		id := a.ID
		g.Go(func() error {
			if err := w.exportOne(ctx, id); err != nil {
				w.logger.ErrorContext(ctx, "Account export failed",
					log.FieldRunID, runID,
					log.FieldAccountID, id,
					log.FieldError, err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("account %s: %w", id, err))
				mu.Unlock()
				return nil
			}
			done.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	err = errors.Join(errs...)

	w.logger.InfoContext(ctx, "Full export finished",
		log.FieldOperation, log.OpExport,
		log.FieldRunID, runID,
		"accounts", len(accts),
		"exported", done.Load(),
		"failed", len(errs),
		log.FieldDuration, time.Since(start).Milliseconds())
	return int(done.Load()), err
}

// Run exports everything once, then again on every interval until ctx ends.
func (w *ExportWorker) Run(ctx context.Context) error {
	if _, err := w.ExportAll(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup export failed", log.FieldError, err)
	}
	if w.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ExportAll(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", log.FieldError, err)
			}
		}
	}
}

// Consume runs the queue consumer, reconnecting with backoff when the broker
// connection drops. Other consumer errors end the loop.
func (w *ExportWorker) Consume(ctx context.Context, connect func() (ExportConsumer, error)) error {
	for attempt := 0; ; {
		c, err := connect()
		if err == nil {
			attempt = 0
			err = c.ConsumeLedgerExports(ctx, w.HandleExportMessage)
			c.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !amqp.IsConnectionError(err) {
			return err
		}
		wait := amqp.Backoff(attempt)
		attempt++
		w.logger.WarnContext(ctx, "AMQP connection lost, reconnecting",
			log.FieldError, err,
			"attempt", attempt,
			"wait", wait)
		if err := w.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (w *ExportWorker) exportOne(ctx context.Context, accountID string) error {
	exp, err := w.ledgers.Export(ctx, accountID)
	if err != nil {
		return err
	}
	path, err := writeFileAtomic(w.dir, exp.Filename, exp.Data)
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Ledger written",
		log.FieldAccountID, accountID,
		log.FieldFilename, path)

	if !w.ledgers.CanPublish() {
		return nil
	}
	if _, err := w.ledgers.Publish(ctx, accountID); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// writeFileAtomic writes data next to its destination and renames it into
// place, so readers never see a partial workbook.
func writeFileAtomic(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename export: %w", err)
	}
	return path, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
