package exchange

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"saldo/internal/core"
)

// Parse recovers the expenditures stored in an exchange workbook. Rows that
// are not complete expenditures are skipped without error; this includes
// every fund-addition row.
func Parse(data []byte) ([]core.Expenditure, error) {
	rows, err := ReadRows(data)
	if err != nil {
		return nil, err
	}
	return ParseRows(rows), nil
}

// ReadRows opens the workbook and returns the raw cell text of its Ledger
// sheet, header included.
func ReadRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: sheets=%v", ErrNoWorksheet, f.GetSheetList())
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	return rows, nil
}

// ParseRows converts raw records to expenditures. The first record is always
// treated as the header. Parsed expenditures have no ID and are filed under
// core.PlaceholderCategory.
func ParseRows(rows [][]string) []core.Expenditure {
	var out []core.Expenditure
	for i := 1; i < len(rows); i++ {
		if e, ok := parseRow(rows[i]); ok {
			out = append(out, e)
		}
	}
	return out
}

// DataRows counts the non-blank records after the header.
func DataRows(rows [][]string) int {
	n := 0
	for i := 1; i < len(rows); i++ {
		for _, v := range rows[i] {
			if strings.TrimSpace(v) != "" {
				n++
				break
			}
		}
	}
	return n
}

func parseRow(row []string) (core.Expenditure, bool) {
	dateStr := safeGet(row, ColDate)
	method := safeGet(row, ColPaymentMethod)
	amountStr := safeGet(row, ColAmount)
	desc := cellAt(row, ColDescription)
	if dateStr == "" || method == "" || amountStr == "" || strings.TrimSpace(desc) == "" {
		return core.Expenditure{}, false
	}
	at, err := parseDate(dateStr)
	if err != nil {
		return core.Expenditure{}, false
	}
	amount, err := core.ParseAmountLabel(amountStr)
	if err != nil || amount.Validate() != nil {
		return core.Expenditure{}, false
	}
	return core.Expenditure{
		AccountID:     core.PlaceholderCategory,
		PaymentMethod: method,
		Timestamp:     at,
		Amount:        amount,
		Note:          desc,
	}, true
}

func safeGet(arr []string, idx int) string {
	return strings.TrimSpace(cellAt(arr, idx))
}

// cellAt returns the cell text as stored, or "" past the end of a short row.
func cellAt(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
