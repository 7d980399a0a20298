package ledger

import "saldo/internal/core"

// Summary is a compact view of a ledger.
type Summary struct {
	Opening      core.Money
	Funded       core.Money // fund additions only, without the opening balance
	Spent        core.Money
	Closing      core.Money
	Expenditures int
	Additions    int
}

// Summarize totals rows produced by Build for an account opening at opening.
func Summarize(rows []core.LedgerRow, opening core.Money) Summary {
	s := Summary{Opening: opening, Closing: opening}
	for _, r := range rows {
		switch r.Kind {
		case core.KindExpenditure:
			s.Expenditures++
			s.Spent = s.Spent.Add(r.Amount)
		case core.KindFundAddition:
			s.Additions++
			s.Funded = s.Funded.Add(r.Amount)
		}
	}
	if n := len(rows); n > 0 {
		s.Closing = rows[n-1].RunningBalance
	}
	return s
}

// Overspent reports whether the balance dropped below zero at any row.
func Overspent(rows []core.LedgerRow) bool {
	for _, r := range rows {
		if r.RunningBalance.IsNegative() {
			return true
		}
	}
	return false
}
