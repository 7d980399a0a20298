package sheets

import (
	"context"

	"saldo/internal/core"
)

// Ports for outbound adapters.
type (
	AccountReader interface {
		// GetAccount returns core.ErrAccountNotFound when id is unknown.
		GetAccount(ctx context.Context, id string) (core.Account, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
	}

	AccountWriter interface {
		// SaveAccount creates the account or replaces the one with the same id.
		SaveAccount(ctx context.Context, a core.Account) error
	}

	// EventReader returns the events that belong to an account, in storage
	// order. Filtering is the reader's job; the ledger engine rejects events
	// of other accounts.
	EventReader interface {
		ListExpenditures(ctx context.Context, a core.Account) ([]core.Expenditure, error)
		ListFundAdditions(ctx context.Context, a core.Account) ([]core.FundAddition, error)
	}

	EventWriter interface {
		AppendExpenditure(ctx context.Context, e core.Expenditure) (rowRef string, err error)
		AppendFundAddition(ctx context.Context, f core.FundAddition) (rowRef string, err error)
		// ImportExpenditures stores parsed expenditures, assigning their
		// identities, and returns how many were stored.
		ImportExpenditures(ctx context.Context, es []core.Expenditure) (int, error)
	}

	// LedgerPublisher pushes a computed ledger to an external document.
	LedgerPublisher interface {
		PublishLedger(ctx context.Context, label string, rows []core.LedgerRow) (ref string, err error)
	}

	// LedgerSheetReader reads back the raw records of a published ledger.
	LedgerSheetReader interface {
		ReadLedgerRows(ctx context.Context, label string) ([][]string, error)
	}
)
