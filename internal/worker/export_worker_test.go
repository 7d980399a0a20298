package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/sheets/memory"
)

type fakeLedgers struct {
	mu        sync.Mutex
	accounts  []core.Account
	failFor   string
	publish   bool
	published []string
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func (f *fakeLedgers) Accounts(context.Context) ([]core.Account, error) { return f.accounts, nil }

func (f *fakeLedgers) Export(ctx context.Context, id string) (services.Export, error) {
	if err := ctx.Err(); err != nil {
		return services.Export{}, err
	}
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxFlight.Load()
		if n <= m || f.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if id == f.failFor {
		return services.Export{}, errors.New("boom")
	}
	for _, a := range f.accounts {
		if a.ID == id {
			return services.Export{Filename: id + "_2025-03-09.xlsx", Data: []byte("xlsx:" + id)}, nil
		}
	}
	return services.Export{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
}

func (f *fakeLedgers) Publish(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, id)
	return id, nil
}

func (f *fakeLedgers) CanPublish() bool { return f.publish }

func quietLogger() *log.Logger {
	var buf bytes.Buffer
	return log.New(log.Config{Level: slog.LevelError, Output: &buf})
}

func accounts(n int) []core.Account {
	out := make([]core.Account, n)
	for i := range out {
		out[i] = core.Account{ID: fmt.Sprintf("acct%02d", i), Kind: core.CategoryAccount}
	}
	return out
}

func TestHandleExportMessage(t *testing.T) {
	dir := t.TempDir()
	ledgers := &fakeLedgers{accounts: accounts(1), publish: true}
	w := NewExportWorker(ledgers, dir, 2, 0, quietLogger())

	if err := w.HandleExportMessage(context.Background(), amqp.NewLedgerExportMessage("acct00")); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "acct00_2025-03-09.xlsx"))
	if err != nil || string(data) != "xlsx:acct00" {
		t.Fatalf("export not written: %q err=%v", data, err)
	}
	if len(ledgers.published) != 1 {
		t.Fatalf("expected a publish, got %v", ledgers.published)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}

	if err := w.HandleExportMessage(context.Background(), amqp.NewLedgerExportMessage("gone")); err != nil {
		t.Fatalf("unknown account must be acked, got %v", err)
	}
	ledgers.failFor = "acct00"
	if err := w.HandleExportMessage(context.Background(), amqp.NewLedgerExportMessage("acct00")); err == nil {
		t.Fatalf("expected export failure to surface for requeue")
	}
}

func TestExportAllBounded(t *testing.T) {
	dir := t.TempDir()
	ledgers := &fakeLedgers{accounts: accounts(12)}
	w := NewExportWorker(ledgers, dir, 3, 0, quietLogger())

	n, err := w.ExportAll(context.Background())
	if err != nil || n != 12 {
		t.Fatalf("ExportAll: n=%d err=%v", n, err)
	}
	if got := ledgers.maxFlight.Load(); got > 3 || got < 1 {
		t.Fatalf("concurrency limit not honoured: %d in flight", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 12 {
		t.Fatalf("expected 12 files, got %d", len(entries))
	}
	if len(ledgers.published) != 0 {
		t.Fatalf("publishing disabled, got %v", ledgers.published)
	}
}

func TestExportAllContinuesPastFailure(t *testing.T) {
	dir := t.TempDir()
	ledgers := &fakeLedgers{accounts: accounts(5), failFor: "acct01"}
	w := NewExportWorker(ledgers, dir, 2, 0, quietLogger())

	n, err := w.ExportAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "acct01") {
		t.Fatalf("expected the acct01 failure, got %v", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Fatalf("one failure must not cancel the other accounts: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected the 4 healthy accounts exported, got %d", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 4 {
		t.Fatalf("expected 4 files, got %d", len(entries))
	}
}

func TestExportAllSameLabelAccounts(t *testing.T) {
	dir := t.TempDir()
	store := memory.New(
		core.Account{ID: "food", Kind: core.CategoryAccount, Label: "Food"},
		core.Account{ID: "food-card", Kind: core.PaymentMethodAccount, Label: "Food"},
	)
	svc := services.NewLedgerService(services.Deps{
		Store:  store,
		Logger: quietLogger(),
		Now:    func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	w := NewExportWorker(svc, dir, 2, 0, quietLogger())

	n, err := w.ExportAll(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("ExportAll: n=%d err=%v", n, err)
	}
	var names []string
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	want := []string{"Food_food-card_2025-03-01.xlsx", "Food_food_2025-03-01.xlsx"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("expected one file per account %v, got %v", want, names)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ledgers := &fakeLedgers{accounts: accounts(2)}
	w := NewExportWorker(ledgers, t.TempDir(), 2, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type fakeConsumer struct {
	err    error
	closed bool
}

func (c *fakeConsumer) ConsumeLedgerExports(ctx context.Context, h func(context.Context, *amqp.LedgerExportMessage) error) error {
	return c.err
}

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

func TestConsumeReconnects(t *testing.T) {
	w := NewExportWorker(&fakeLedgers{}, t.TempDir(), 1, 0, quietLogger())
	var waits []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	fatal := errors.New("access refused")
	var dials int
	var consumers []*fakeConsumer
	err := w.Consume(context.Background(), func() (ExportConsumer, error) {
		dials++
		switch dials {
		case 1:
			return nil, errors.New("dial tcp: connection refused")
		case 2:
			c := &fakeConsumer{err: amqp.ErrChannelClosed}
			consumers = append(consumers, c)
			return c, nil
		default:
			c := &fakeConsumer{err: fatal}
			consumers = append(consumers, c)
			return c, nil
		}
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error to end the loop, got %v", err)
	}
	if dials != 3 {
		t.Fatalf("expected 3 dials, got %d", dials)
	}
	// Dial failure backs off 1s; a successful connection resets the attempt counter.
	if len(waits) != 2 || waits[0] != time.Second || waits[1] != time.Second {
		t.Fatalf("unexpected backoff %v", waits)
	}
	for _, c := range consumers {
		if !c.closed {
			t.Fatalf("consumer not closed")
		}
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	w := NewExportWorker(&fakeLedgers{}, t.TempDir(), 1, 0, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Consume(ctx, func() (ExportConsumer, error) {
		return &fakeConsumer{err: context.Canceled}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
