package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"saldo/internal/core"
	"saldo/internal/exchange"
	"saldo/internal/ledger"
)

// DefaultStyle is the glamour style used when Env.Style is empty.
const DefaultStyle = "dark"

func (e *Env) printMarkdown(md string, raw bool) error {
	if raw {
		_, err := fmt.Fprint(e.out(), md)
		return err
	}
	style := e.Style
	if style == "" {
		style = DefaultStyle
	}
	r, err := glamour.NewTermRenderer(glamour.WithStylePath(style), glamour.WithWordWrap(120))
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = fmt.Fprint(e.out(), out)
	return err
}

// AccountsMarkdown renders accounts as a markdown table.
func AccountsMarkdown(accts []core.Account, currency string) string {
	var b strings.Builder
	b.WriteString("# Accounts\n\n")
	if len(accts) == 0 {
		b.WriteString("No accounts.\n")
		return b.String()
	}
	b.WriteString("| Id | Kind | Label | Opening |\n")
	b.WriteString("|:---|:---|:---|---:|\n")
	for _, a := range accts {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			cell(a.ID), a.Kind, cell(a.Label), core.Display(a.OpeningBalance, currency))
	}
	return b.String()
}

// LedgerMarkdown renders the ledger of acct with a summary line. When tail is
// positive only the last tail rows are listed; the summary always covers the
// whole ledger.
func LedgerMarkdown(acct core.Account, rows []core.LedgerRow, tail int, currency string) string {
	sum := ledger.Summarize(rows, acct.OpeningBalance)
	show := func(m core.Money) string { return core.Display(m, currency) }

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cell(acct.DisplayName()))
	fmt.Fprintf(&b, "Opening %s, funded %s, spent %s, balance **%s**\n\n",
		show(sum.Opening), show(sum.Funded), show(sum.Spent), show(sum.Closing))
	if ledger.Overspent(rows) {
		b.WriteString("> The balance went below zero at least once.\n\n")
	}
	if len(rows) == 0 {
		b.WriteString("No events.\n")
		return b.String()
	}

	if tail > 0 && len(rows) > tail {
		rows = rows[len(rows)-tail:]
	}
	b.WriteString("| Date | Method | Amount | Description | Spent | Balance | Funded | Total Funded |\n")
	b.WriteString("|:---|:---|---:|:---|---:|---:|---:|---:|\n")
	for _, r := range rows {
		var amount, added string
		switch r.Kind {
		case core.KindExpenditure:
			amount = show(r.Amount)
		case core.KindFundAddition:
			added = show(r.Amount)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Timestamp.UTC().Format(exchange.DateLayout),
			cell(r.PaymentMethod),
			amount,
			cell(r.Note),
			show(r.RunningSpent),
			show(r.RunningBalance),
			added,
			show(r.RunningFunded))
	}
	return b.String()
}

// cell escapes text for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
