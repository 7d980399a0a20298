package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"saldo/internal/core"
	"saldo/internal/exchange"
	"saldo/internal/log"
	ports "saldo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// lastColumn is the column letter of the eighth exchange column.
const lastColumn = "H"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var (
	_ ports.LedgerPublisher   = (*Client)(nil)
	_ ports.LedgerSheetReader = (*Client)(nil)
)

// Credentials selects the service account used to reach the spreadsheet.
// JSON wins over File; when both are empty GOOGLE_APPLICATION_CREDENTIALS is read.
type Credentials struct {
	JSON string
	File string
}

// New creates a Sheets client for one spreadsheet. Every account ledger is a
// tab of that spreadsheet named after the account label.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(creds)
	if err != nil {
		return nil, err
	}

	log.For(log.ComponentSheets).InfoContext(ctx, "Creating Google Sheets service with Service Account",
		log.FieldOperation, log.OpStartup,
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(creds Credentials) ([]byte, error) {
	inline := strings.TrimSpace(creds.JSON)
	file := strings.TrimSpace(creds.File)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// PublishLedger replaces the content of the account's tab with the exchange
// records of rows, creating the tab when it does not exist yet.
func (c *Client) PublishLedger(ctx context.Context, label string, rows []core.LedgerRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	tab := tabName(label)
	if err := c.ensureTab(ctx, tab); err != nil {
		return "", err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, columnsRange(tab), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", tab, err)
	}

	records := exchange.Records(rows)
	ref := recordsRange(tab, len(records))
	vr := &gsheet.ValueRange{Values: toValues(records)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update %s: %w", ref, err)
	}

	log.For(log.ComponentSheets).InfoContext(ctx, "Ledger published to Google Sheets",
		log.FieldOperation, log.OpPublish,
		log.FieldTab, tab,
		log.FieldRows, len(rows))
	return ref, nil
}

// ReadLedgerRows returns the cell text of the account's tab, header included.
func (c *Client) ReadLedgerRows(ctx context.Context, label string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := columnsRange(tabName(label))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = toStrings(row)
	}
	return out, nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	log.For(log.ComponentSheets).InfoContext(ctx, "Created ledger tab", log.FieldTab, tab)
	return nil
}

// tabName maps an account label to a sheet title. Sheets rejects []*?/\: in
// titles and caps them at 100 characters.
func tabName(label string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]*?/\:`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(label))
	if name == "" {
		name = exchange.SheetName
	}
	if r := []rune(name); len(r) > 100 {
		name = string(r[:100])
	}
	return name
}

// quoteTab returns tab in A1 notation quoting.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func columnsRange(tab string) string {
	return fmt.Sprintf("%s!A:%s", quoteTab(tab), lastColumn)
}

func recordsRange(tab string, n int) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%s!A1:%s%d", quoteTab(tab), lastColumn, n)
}

func toValues(records [][]string) [][]interface{} {
	out := make([][]interface{}, len(records))
	for i, rec := range records {
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		out[i] = row
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
