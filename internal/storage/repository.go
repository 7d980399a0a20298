package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/sheets"

	_ "modernc.org/sqlite"
)

var (
	_ sheets.AccountReader = (*SQLiteRepository)(nil)
	_ sheets.AccountWriter = (*SQLiteRepository)(nil)
	_ sheets.EventReader   = (*SQLiteRepository)(nil)
	_ sheets.EventWriter   = (*SQLiteRepository)(nil)
)

// timeLayout is how event timestamps are stored: RFC 3339 text in UTC.
const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetAccount implements sheets.AccountReader
func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	a, err := r.queries.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return toAccount(a), nil
}

// ListAccounts implements sheets.AccountReader
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, len(rows))
	for i, a := range rows {
		out[i] = toAccount(a)
	}
	return out, nil
}

// SaveAccount implements sheets.AccountWriter
func (r *SQLiteRepository) SaveAccount(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	err := r.queries.UpsertAccount(ctx, UpsertAccountParams{
		ID:           a.ID,
		Kind:         string(a.Kind),
		Label:        a.Label,
		OpeningCents: a.OpeningBalance.Cents,
	})
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	log.For(log.ComponentStorage).InfoContext(ctx, "Account saved to SQLite", log.NewFields().
		WithOperation(log.OpCreate).
		WithAccount(a.ID, string(a.Kind)).ToSlice()...)
	return nil
}

// ListExpenditures implements sheets.EventReader. Payment-method accounts
// see every expenditure paid with them, whatever the category.
func (r *SQLiteRepository) ListExpenditures(ctx context.Context, a core.Account) ([]core.Expenditure, error) {
	var (
		rows []Expenditure
		err  error
	)
	if a.Kind == core.PaymentMethodAccount {
		rows, err = r.queries.ListExpendituresByMethod(ctx, a.ID)
	} else {
		rows, err = r.queries.ListExpendituresByAccount(ctx, a.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list expenditures: %w", err)
	}
	out := make([]core.Expenditure, 0, len(rows))
	for _, e := range rows {
		ts, err := time.Parse(timeLayout, e.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("expenditure %d: bad timestamp %q: %w", e.ID, e.OccurredAt, err)
		}
		out = append(out, core.Expenditure{
			ID:            strconv.FormatInt(e.ID, 10),
			AccountID:     e.AccountID,
			PaymentMethod: e.PaymentMethod,
			Timestamp:     ts,
			Amount:        core.Cents(e.AmountCents),
			Note:          e.Note,
		})
	}
	return out, nil
}

// ListFundAdditions implements sheets.EventReader
func (r *SQLiteRepository) ListFundAdditions(ctx context.Context, a core.Account) ([]core.FundAddition, error) {
	rows, err := r.queries.ListFundAdditionsByAccount(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list fund additions: %w", err)
	}
	out := make([]core.FundAddition, 0, len(rows))
	for _, f := range rows {
		ts, err := time.Parse(timeLayout, f.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("fund addition %d: bad timestamp %q: %w", f.ID, f.OccurredAt, err)
		}
		out = append(out, core.FundAddition{
			ID:        strconv.FormatInt(f.ID, 10),
			AccountID: f.AccountID,
			Timestamp: ts,
			Amount:    core.Cents(f.AmountCents),
			Note:      f.Note,
		})
	}
	return out, nil
}

// AppendExpenditure implements sheets.EventWriter
func (r *SQLiteRepository) AppendExpenditure(ctx context.Context, e core.Expenditure) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	row, err := r.queries.CreateExpenditure(ctx, expenditureParams(e))
	if err != nil {
		return "", fmt.Errorf("create expenditure: %w", err)
	}

	log.For(log.ComponentStorage).InfoContext(ctx, "Expenditure saved to SQLite",
		log.FieldOperation, log.OpAppend,
		"id", row.ID,
		log.FieldAccountID, row.AccountID,
		"payment_method", row.PaymentMethod,
		log.FieldAmountCents, row.AmountCents)

	return strconv.FormatInt(row.ID, 10), nil
}

// AppendFundAddition implements sheets.EventWriter
func (r *SQLiteRepository) AppendFundAddition(ctx context.Context, f core.FundAddition) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	row, err := r.queries.CreateFundAddition(ctx, CreateFundAdditionParams{
		AccountID:   f.AccountID,
		OccurredAt:  f.Timestamp.UTC().Format(timeLayout),
		AmountCents: f.Amount.Cents,
		Note:        f.Note,
	})
	if err != nil {
		return "", fmt.Errorf("create fund addition: %w", err)
	}

	log.For(log.ComponentStorage).InfoContext(ctx, "Fund addition saved to SQLite",
		log.FieldOperation, log.OpAppend,
		"id", row.ID,
		log.FieldAccountID, row.AccountID,
		log.FieldAmountCents, row.AmountCents)

	return strconv.FormatInt(row.ID, 10), nil
}

// ImportExpenditures implements sheets.EventWriter. The batch is stored in a
// single transaction.
func (r *SQLiteRepository) ImportExpenditures(ctx context.Context, es []core.Expenditure) (int, error) {
	for i, e := range es {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("expenditure %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for i, e := range es {
		if _, err := q.CreateExpenditure(ctx, expenditureParams(e)); err != nil {
			return 0, fmt.Errorf("import expenditure %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	log.For(log.ComponentStorage).InfoContext(ctx, "Expenditures imported to SQLite",
		log.FieldOperation, log.OpImport,
		log.FieldImported, len(es))
	return len(es), nil
}

func expenditureParams(e core.Expenditure) CreateExpenditureParams {
	return CreateExpenditureParams{
		AccountID:     e.AccountID,
		PaymentMethod: e.PaymentMethod,
		OccurredAt:    e.Timestamp.UTC().Format(timeLayout),
		AmountCents:   e.Amount.Cents,
		Note:          e.Note,
	}
}

func toAccount(a Account) core.Account {
	return core.Account{
		ID:             a.ID,
		Kind:           core.AccountKind(a.Kind),
		Label:          a.Label,
		OpeningBalance: core.Cents(a.OpeningCents),
	}
}
