// Package ledger merges the expenditure and fund-addition streams of one
// account into a chronological ledger with running totals.
//
// Build is a pure function: it reads its inputs, allocates the result and
// keeps no state, so it may be called concurrently for any number of
// accounts. Results are recomputed on every call.
package ledger

import (
	"errors"
	"fmt"
	"slices"

	"saldo/internal/core"
)

var (
	ErrNonPositiveAmount      = errors.New("non-positive amount")
	ErrInvalidAccountMismatch = errors.New("event belongs to a different account")
	ErrTotalOverflow          = errors.New("running total out of range")
)

// Build returns the ledger of account. Events are ordered by timestamp; on
// equal timestamps fund additions come before expenditures, and events of the
// same kind keep their input order.
//
// The running balance starts at the account's opening balance and is allowed
// to go negative. Every event is validated before any row is produced, and
// running totals that do not fit in int64 cents fail with ErrTotalOverflow.
func Build(account core.Account, expenditures []core.Expenditure, additions []core.FundAddition) ([]core.LedgerRow, error) {
	events := make([]core.Event, 0, len(expenditures)+len(additions))
	for i, e := range expenditures {
		if err := check(account, e); err != nil {
			return nil, fmt.Errorf("expenditure %d: %w", i, err)
		}
		events = append(events, e)
	}
	for i, f := range additions {
		if err := check(account, f); err != nil {
			return nil, fmt.Errorf("fund addition %d: %w", i, err)
		}
		events = append(events, f)
	}

	slices.SortStableFunc(events, compare)

	rows := make([]core.LedgerRow, 0, len(events))
	spent := core.Zero
	funded := account.OpeningBalance
	for i, ev := range events {
		row := core.LedgerRow{
			Timestamp: ev.When(),
			Kind:      ev.Kind(),
			Amount:    ev.Value(),
		}
		var err error
		switch e := ev.(type) {
		case core.Expenditure:
			spent, err = spent.AddChecked(e.Amount)
			row.Note = e.Note
			row.PaymentMethod = e.PaymentMethod
		case core.FundAddition:
			funded, err = funded.AddChecked(e.Amount)
			row.Note = e.Note
		default:
			panic(fmt.Sprintf("ledger: unknown event %T", ev))
		}
		if err == nil {
			row.RunningBalance, err = funded.SubChecked(spent)
		}
		if err != nil {
			return nil, fmt.Errorf("%w at row %d: %w", ErrTotalOverflow, i, err)
		}
		row.RunningSpent = spent
		row.RunningFunded = funded
		rows = append(rows, row)
	}
	return rows, nil
}

func check(account core.Account, ev core.Event) error {
	if !ev.Value().IsPositive() {
		return fmt.Errorf("%w: %s", ErrNonPositiveAmount, ev.Value())
	}
	if !ev.BelongsTo(account) {
		return fmt.Errorf("%w: want %q", ErrInvalidAccountMismatch, account.ID)
	}
	return nil
}

func compare(a, b core.Event) int {
	if c := a.When().Compare(b.When()); c != 0 {
		return c
	}
	return rank(a) - rank(b)
}

// rank puts funds ahead of spending at the same instant.
func rank(ev core.Event) int {
	switch ev.(type) {
	case core.FundAddition:
		return 0
	case core.Expenditure:
		return 1
	default:
		panic(fmt.Sprintf("ledger: unknown event %T", ev))
	}
}
