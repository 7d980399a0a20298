// Package commands implements the saldo command line: one subcommand per
// ledger operation, registered on a google/subcommands Commander.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"saldo/internal/core"
	"saldo/internal/ledger"
	"saldo/internal/services"
)

// Ledgers is the part of services.LedgerService the commands drive.
type Ledgers interface {
	CreateAccount(ctx context.Context, a core.Account) error
	Accounts(ctx context.Context) ([]core.Account, error)
	RecordExpenditure(ctx context.Context, e core.Expenditure) (string, error)
	AddFunds(ctx context.Context, f core.FundAddition) (string, error)
	Ledger(ctx context.Context, accountID string) (core.Account, []core.LedgerRow, error)
	Summary(ctx context.Context, accountID string) (ledger.Summary, error)
	Export(ctx context.Context, accountID string) (services.Export, error)
	Import(ctx context.Context, data []byte) (services.ImportResult, error)
	ImportSheet(ctx context.Context, label string) (services.ImportResult, error)
	Publish(ctx context.Context, accountID string) (string, error)
}

// Env is shared by every command.
type Env struct {
	Ledgers  Ledgers
	Currency string
	Style    string
	Out      io.Writer
	Err      io.Writer
	Now      func() time.Time
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) errOut() io.Writer {
	if e.Err == nil {
		return os.Stderr
	}
	return e.Err
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

func (e *Env) fail(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(e.errOut(), "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

func (e *Env) usage(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(e.errOut(), "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

// Register adds the saldo subcommands to c.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&accountsCmd{env: env}, "accounts")
	c.Register(&accountAddCmd{env: env}, "accounts")

	c.Register(&spendCmd{env: env}, "events")
	c.Register(&fundCmd{env: env}, "events")

	c.Register(&ledgerCmd{env: env}, "ledgers")
	c.Register(&exportCmd{env: env}, "ledgers")
	c.Register(&importCmd{env: env}, "ledgers")
	c.Register(&publishCmd{env: env}, "ledgers")
}

var whenLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

// parseWhen reads an event time. Values without a zone are UTC; empty means now.
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DD[ HH:MM[:SS]] or RFC 3339", s)
}
