package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Account struct {
	ID           string
	Kind         string
	Label        string
	OpeningCents int64
}

type Expenditure struct {
	ID            int64
	AccountID     string
	PaymentMethod string
	OccurredAt    string
	AmountCents   int64
	Note          string
}

type FundAddition struct {
	ID          int64
	AccountID   string
	OccurredAt  string
	AmountCents int64
	Note        string
}

const getAccount = `-- name: GetAccount :one
SELECT id, kind, label, opening_cents FROM accounts WHERE id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, id)
	var i Account
	err := row.Scan(&i.ID, &i.Kind, &i.Label, &i.OpeningCents)
	return i, err
}

const listAccounts = `-- name: ListAccounts :many
SELECT id, kind, label, opening_cents FROM accounts ORDER BY kind, id
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.ID, &i.Kind, &i.Label, &i.OpeningCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertAccount = `-- name: UpsertAccount :exec
INSERT INTO accounts (id, kind, label, opening_cents) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, label = excluded.label, opening_cents = excluded.opening_cents
`

type UpsertAccountParams struct {
	ID           string
	Kind         string
	Label        string
	OpeningCents int64
}

func (q *Queries) UpsertAccount(ctx context.Context, arg UpsertAccountParams) error {
	_, err := q.db.ExecContext(ctx, upsertAccount, arg.ID, arg.Kind, arg.Label, arg.OpeningCents)
	return err
}

const createExpenditure = `-- name: CreateExpenditure :one
INSERT INTO expenditures (account_id, payment_method, occurred_at, amount_cents, note)
VALUES (?, ?, ?, ?, ?)
RETURNING id, account_id, payment_method, occurred_at, amount_cents, note
`

type CreateExpenditureParams struct {
	AccountID     string
	PaymentMethod string
	OccurredAt    string
	AmountCents   int64
	Note          string
}

func (q *Queries) CreateExpenditure(ctx context.Context, arg CreateExpenditureParams) (Expenditure, error) {
	row := q.db.QueryRowContext(ctx, createExpenditure,
		arg.AccountID,
		arg.PaymentMethod,
		arg.OccurredAt,
		arg.AmountCents,
		arg.Note,
	)
	var i Expenditure
	err := row.Scan(&i.ID, &i.AccountID, &i.PaymentMethod, &i.OccurredAt, &i.AmountCents, &i.Note)
	return i, err
}

const listExpendituresByAccount = `-- name: ListExpendituresByAccount :many
SELECT id, account_id, payment_method, occurred_at, amount_cents, note
FROM expenditures WHERE account_id = ? ORDER BY id
`

func (q *Queries) ListExpendituresByAccount(ctx context.Context, accountID string) ([]Expenditure, error) {
	return q.listExpenditures(ctx, listExpendituresByAccount, accountID)
}

const listExpendituresByMethod = `-- name: ListExpendituresByMethod :many
SELECT id, account_id, payment_method, occurred_at, amount_cents, note
FROM expenditures WHERE payment_method = ? ORDER BY id
`

func (q *Queries) ListExpendituresByMethod(ctx context.Context, method string) ([]Expenditure, error) {
	return q.listExpenditures(ctx, listExpendituresByMethod, method)
}

func (q *Queries) listExpenditures(ctx context.Context, query, arg string) ([]Expenditure, error) {
	rows, err := q.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expenditure
	for rows.Next() {
		var i Expenditure
		if err := rows.Scan(&i.ID, &i.AccountID, &i.PaymentMethod, &i.OccurredAt, &i.AmountCents, &i.Note); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createFundAddition = `-- name: CreateFundAddition :one
INSERT INTO fund_additions (account_id, occurred_at, amount_cents, note)
VALUES (?, ?, ?, ?)
RETURNING id, account_id, occurred_at, amount_cents, note
`

type CreateFundAdditionParams struct {
	AccountID   string
	OccurredAt  string
	AmountCents int64
	Note        string
}

func (q *Queries) CreateFundAddition(ctx context.Context, arg CreateFundAdditionParams) (FundAddition, error) {
	row := q.db.QueryRowContext(ctx, createFundAddition,
		arg.AccountID,
		arg.OccurredAt,
		arg.AmountCents,
		arg.Note,
	)
	var i FundAddition
	err := row.Scan(&i.ID, &i.AccountID, &i.OccurredAt, &i.AmountCents, &i.Note)
	return i, err
}

const listFundAdditionsByAccount = `-- name: ListFundAdditionsByAccount :many
SELECT id, account_id, occurred_at, amount_cents, note
FROM fund_additions WHERE account_id = ? ORDER BY id
`

func (q *Queries) ListFundAdditionsByAccount(ctx context.Context, accountID string) ([]FundAddition, error) {
	rows, err := q.db.QueryContext(ctx, listFundAdditionsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FundAddition
	for rows.Next() {
		var i FundAddition
		if err := rows.Scan(&i.ID, &i.AccountID, &i.OccurredAt, &i.AmountCents, &i.Note); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
