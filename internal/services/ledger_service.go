package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/exchange"
	"saldo/internal/ledger"
	"saldo/internal/log"
	"saldo/internal/sheets"
)

var ErrPublishingDisabled = errors.New("ledger publishing is not configured")

// Store is the event and account storage the service works on.
type Store interface {
	sheets.AccountReader
	sheets.AccountWriter
	sheets.EventReader
	sheets.EventWriter
}

// ExportRequester queues an asynchronous export of one account's ledger.
type ExportRequester interface {
	PublishLedgerExport(ctx context.Context, accountID string) error
}

// ImportNotifier announces finished imports.
type ImportNotifier interface {
	PublishImportCompleted(ctx context.Context, imported, skipped int) error
}

// Deps wires a LedgerService. Only Store is required.
type Deps struct {
	Store       Store
	Exports     ExportRequester
	Imports     ImportNotifier
	Publisher   sheets.LedgerPublisher
	SheetReader sheets.LedgerSheetReader
	Logger      *log.Logger
	Now         func() time.Time
}

// LedgerService orchestrates recording events, building ledgers and moving
// them in and out of the exchange format.
type LedgerService struct {
	store     Store
	exports   ExportRequester
	imports   ImportNotifier
	publisher sheets.LedgerPublisher
	reader    sheets.LedgerSheetReader
	logger    *log.Logger
	now       func() time.Time
}

func NewLedgerService(d Deps) *LedgerService {
	logger := d.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		store:     d.Store,
		exports:   d.Exports,
		imports:   d.Imports,
		publisher: d.Publisher,
		reader:    d.SheetReader,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       now,
	}
}

// Export is a serialized ledger ready to be written to disk or sent.
type Export struct {
	Filename string
	Data     []byte
}

// ImportResult counts the data rows of an imported document. Skipped rows were
// not complete expenditures; fund-addition rows are always skipped.
type ImportResult struct {
	Imported int
	Skipped  int
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) error {
	a.ID = strings.TrimSpace(a.ID)
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveAccount(ctx, a); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account saved", log.NewFields().
		WithOperation(log.OpCreate).
		WithAccount(a.ID, string(a.Kind)).ToSlice()...)
	return nil
}

func (s *LedgerService) Accounts(ctx context.Context) ([]core.Account, error) {
	accts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accts, nil
}

// RecordExpenditure stores e against an existing category account and queues
// exports for the category and, when it is an account too, the payment method.
func (s *LedgerService) RecordExpenditure(ctx context.Context, e core.Expenditure) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if _, err := s.store.GetAccount(ctx, e.AccountID); err != nil {
		return "", err
	}
	ref, err := s.store.AppendExpenditure(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save expenditure: %w", err)
	}

	s.requestExport(ctx, e.AccountID)
	if _, err := s.store.GetAccount(ctx, e.PaymentMethod); err == nil {
		s.requestExport(ctx, e.PaymentMethod)
	}
	return ref, nil
}

// AddFunds stores f against an existing account and queues its export.
func (s *LedgerService) AddFunds(ctx context.Context, f core.FundAddition) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	if _, err := s.store.GetAccount(ctx, f.AccountID); err != nil {
		return "", err
	}
	ref, err := s.store.AppendFundAddition(ctx, f)
	if err != nil {
		return "", fmt.Errorf("save fund addition: %w", err)
	}
	s.requestExport(ctx, f.AccountID)
	return ref, nil
}

// Ledger loads the account's events and computes its ledger. Nothing is
// cached: every call reads the store again.
func (s *LedgerService) Ledger(ctx context.Context, accountID string) (core.Account, []core.LedgerRow, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.Account{}, nil, err
	}
	exps, err := s.store.ListExpenditures(ctx, acct)
	if err != nil {
		return core.Account{}, nil, fmt.Errorf("load expenditures: %w", err)
	}
	adds, err := s.store.ListFundAdditions(ctx, acct)
	if err != nil {
		return core.Account{}, nil, fmt.Errorf("load fund additions: %w", err)
	}
	rows, err := ledger.Build(acct, exps, adds)
	if err != nil {
		return core.Account{}, nil, fmt.Errorf("build ledger for %s: %w", acct.ID, err)
	}
	s.logger.DebugContext(ctx, "Ledger built",
		log.FieldOperation, log.OpBuild,
		log.FieldAccountID, acct.ID,
		log.FieldRows, len(rows))
	return acct, rows, nil
}

// Summary returns the totals of the account's ledger.
func (s *LedgerService) Summary(ctx context.Context, accountID string) (ledger.Summary, error) {
	acct, rows, err := s.Ledger(ctx, accountID)
	if err != nil {
		return ledger.Summary{}, err
	}
	return ledger.Summarize(rows, acct.OpeningBalance), nil
}

func (s *LedgerService) Export(ctx context.Context, accountID string) (Export, error) {
	acct, rows, err := s.Ledger(ctx, accountID)
	if err != nil {
		return Export{}, err
	}
	name, err := s.exportName(ctx, acct)
	if err != nil {
		return Export{}, err
	}
	data, err := exchange.Serialize(rows, acct.DisplayName())
	if err != nil {
		return Export{}, fmt.Errorf("serialize ledger: %w", err)
	}
	out := Export{Filename: exchange.Filename(name, s.now()), Data: data}
	s.logger.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldAccountID, acct.ID,
		log.FieldRows, len(rows),
		log.FieldFilename, out.Filename)
	return out, nil
}

// exportName is the label used for the account's export file and sheet tab.
// Accounts whose labels reduce to the same name get their id appended.
func (s *LedgerService) exportName(ctx context.Context, acct core.Account) (string, error) {
	label := acct.DisplayName()
	accts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return "", fmt.Errorf("list accounts: %w", err)
	}
	base := exchange.BaseName(label)
	for _, other := range accts {
		if other.ID != acct.ID && strings.EqualFold(exchange.BaseName(other.DisplayName()), base) {
			return label + "_" + acct.ID, nil
		}
	}
	return label, nil
}

// Import stores the expenditures of an exchange workbook under the placeholder
// category.
func (s *LedgerService) Import(ctx context.Context, data []byte) (ImportResult, error) {
	rows, err := exchange.ReadRows(data)
	if err != nil {
		return ImportResult{}, err
	}
	return s.importRows(ctx, rows)
}

// ImportSheet imports the expenditures of a published ledger tab.
func (s *LedgerService) ImportSheet(ctx context.Context, label string) (ImportResult, error) {
	if s.reader == nil {
		return ImportResult{}, ErrPublishingDisabled
	}
	rows, err := s.reader.ReadLedgerRows(ctx, label)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read ledger sheet: %w", err)
	}
	return s.importRows(ctx, rows)
}

func (s *LedgerService) importRows(ctx context.Context, rows [][]string) (ImportResult, error) {
	total := exchange.DataRows(rows)
	var exps []core.Expenditure
	for _, e := range exchange.ParseRows(rows) {
		if err := e.Validate(); err != nil {
			s.logger.DebugContext(ctx, "Skipping invalid imported row", log.FieldError, err)
			continue
		}
		exps = append(exps, e)
	}

	imported := 0
	if len(exps) > 0 {
		if err := s.ensurePlaceholder(ctx); err != nil {
			return ImportResult{}, err
		}
		n, err := s.store.ImportExpenditures(ctx, exps)
		if err != nil {
			return ImportResult{}, fmt.Errorf("store imported expenditures: %w", err)
		}
		imported = n
		s.requestExport(ctx, core.PlaceholderCategory)
	}

	res := ImportResult{Imported: imported, Skipped: total - imported}
	if res.Skipped < 0 {
		res.Skipped = 0
	}
	s.logger.InfoContext(ctx, "Import finished", log.NewFields().
		WithOperation(log.OpImport).
		WithImport(res.Imported, res.Skipped).ToSlice()...)

	if s.imports != nil {
		if err := s.imports.PublishImportCompleted(ctx, res.Imported, res.Skipped); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish import event", log.FieldError, err)
		}
	}
	return res, nil
}

func (s *LedgerService) ensurePlaceholder(ctx context.Context) error {
	_, err := s.store.GetAccount(ctx, core.PlaceholderCategory)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrAccountNotFound) {
		return err
	}
	return s.store.SaveAccount(ctx, core.Account{
		ID:    core.PlaceholderCategory,
		Kind:  core.CategoryAccount,
		Label: "Uncategorized",
	})
}

// Publish pushes the account's ledger to the configured publisher.
func (s *LedgerService) Publish(ctx context.Context, accountID string) (string, error) {
	if s.publisher == nil {
		return "", ErrPublishingDisabled
	}
	acct, rows, err := s.Ledger(ctx, accountID)
	if err != nil {
		return "", err
	}
	name, err := s.exportName(ctx, acct)
	if err != nil {
		return "", err
	}
	ref, err := s.publisher.PublishLedger(ctx, name, rows)
	if err != nil {
		return "", fmt.Errorf("publish ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger published",
		log.FieldOperation, log.OpPublish,
		log.FieldAccountID, acct.ID,
		log.FieldSheetsRef, ref)
	return ref, nil
}

// CanPublish reports whether a publisher is configured.
func (s *LedgerService) CanPublish() bool {
	return s.publisher != nil
}

// requestExport logs queue failures and never returns them.
func (s *LedgerService) requestExport(ctx context.Context, accountID string) {
	if s.exports == nil {
		s.logger.DebugContext(ctx, "Export queue not available, skipping export request", log.FieldAccountID, accountID)
		return
	}
	if err := s.exports.PublishLedgerExport(ctx, accountID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to request ledger export",
			log.FieldAccountID, accountID,
			log.FieldError, err)
	}
}
