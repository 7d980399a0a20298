package exchange

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"saldo/internal/core"
)

// Extension is the file extension of exchange documents.
const Extension = ".xlsx"

// Serialize writes rows to an .xlsx workbook and returns its bytes. The rows
// are written in the order given; the ledger is already chronological.
// accountLabel may be empty and only sets the workbook title.
func Serialize(rows []core.LedgerRow, accountLabel string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for i, rec := range Records(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := styleHeader(f); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(accountLabel)
	if title == "" {
		title = "Ledger"
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title}); err != nil {
		return nil, fmt.Errorf("set properties: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func styleHeader(f *excelize.File) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "H", 20); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^\pL\pN._-]+`)

// BaseName reduces label to the characters safe in file names. Runs of
// anything else become "_"; an empty result becomes "ledger".
func BaseName(label string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(label), "_"), "_")
	if name == "" {
		return "ledger"
	}
	return name
}

// Filename returns "<label>_<YYYY-MM-DD>.xlsx", or "ledger_<YYYY-MM-DD>.xlsx"
// when label is empty, with label reduced by BaseName.
func Filename(label string, day time.Time) string {
	return BaseName(label) + "_" + core.DateOf(day).ISO() + Extension
}
