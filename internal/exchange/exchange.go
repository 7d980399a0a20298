// Package exchange converts ledgers to and from the tabular exchange format,
// an .xlsx workbook with a single "Ledger" sheet.
//
// The format has eight columns (see Header). Row 1 is the header and every
// following row is either an expenditure (Payment Method and Amount filled,
// Fund Added empty) or a fund addition (Fund Added filled, Payment Method and
// Amount empty), never both.
//
// Export and import are deliberately asymmetric: fund-addition rows are
// written on export but never read back on import. Funds live in the account's
// own allocation, so reconstructing them from a file would count them twice.
// Only expenditures survive a round trip.
package exchange

import (
	"errors"
	"time"

	"saldo/internal/core"
)

// SheetName is the worksheet written by Serialize and read by Parse.
const SheetName = "Ledger"

// DateLayout is the layout of the Date column. Dates are written in UTC.
const DateLayout = "2006-01-02 15:04:05"

// Column positions in a data row.
const (
	ColDate = iota
	ColPaymentMethod
	ColAmount
	ColDescription
	ColRunningSpent
	ColBalance
	ColFundAdded
	ColRunningFunded
	columnCount
)

// Header is the first row of every exchange document. Order is part of the format.
var Header = [columnCount]string{
	"Date",
	"Payment Method",
	"Amount",
	"Description",
	"Running Spent Total",
	"Available Balance",
	"Fund Added",
	"Running Funded Total",
}

var (
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
	ErrNoWorksheet        = errors.New("ledger worksheet not found")
)

// Records renders rows as the header followed by one string record per row,
// in the given order. Both the workbook writer and the Google Sheets publisher
// write these records.
func Records(rows []core.LedgerRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, Header[:])
	for _, r := range rows {
		rec := make([]string, columnCount)
		rec[ColDate] = r.Timestamp.UTC().Format(DateLayout)
		rec[ColDescription] = r.Note
		rec[ColRunningSpent] = r.RunningSpent.String()
		rec[ColBalance] = r.RunningBalance.String()
		rec[ColRunningFunded] = r.RunningFunded.String()
		switch r.Kind {
		case core.KindExpenditure:
			rec[ColPaymentMethod] = r.PaymentMethod
			rec[ColAmount] = r.Amount.String()
		case core.KindFundAddition:
			rec[ColFundAdded] = r.Amount.String()
		}
		out = append(out, rec)
	}
	return out
}

var dateLayouts = []string{DateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
