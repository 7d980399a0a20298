package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"saldo/internal/core"
)

type spendCmd struct {
	env     *Env
	account string
	method  string
	amount  string
	note    string
	at      string
}

func (*spendCmd) Name() string     { return "spend" }
func (*spendCmd) Synopsis() string { return "record an expenditure" }
func (*spendCmd) Usage() string {
	return `saldo spend -account <category> -method <payment method> -amount <amount> -note <text> [-at <time>]

  Records an outflow against a category, paid with a payment method.
  The time defaults to now.
`
}

func (c *spendCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Category account id (required)")
	f.StringVar(&c.method, "method", "", "Payment method (required)")
	f.StringVar(&c.amount, "amount", "", "Amount, e.g. 12.50 (required)")
	f.StringVar(&c.note, "note", "", "Description (required)")
	f.StringVar(&c.at, "at", "", "Time of the expenditure, YYYY-MM-DD[ HH:MM[:SS]] or RFC 3339")
}

func (c *spendCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" || c.method == "" || c.amount == "" {
		return c.env.usage("-account, -method and -amount are required")
	}
	amount, err := core.ParseAmountLabel(c.amount)
	if err != nil {
		return c.env.usage("invalid -amount: %v", err)
	}
	at, err := parseWhen(c.at, c.env.now())
	if err != nil {
		return c.env.usage("%v", err)
	}
	ref, err := c.env.Ledgers.RecordExpenditure(ctx, core.Expenditure{
		AccountID:     strings.TrimSpace(c.account),
		PaymentMethod: strings.TrimSpace(c.method),
		Timestamp:     at,
		Amount:        amount,
		Note:          strings.TrimSpace(c.note),
	})
	if err != nil {
		return c.env.fail("%v", err)
	}
	fmt.Fprintf(c.env.out(), "recorded %s on %s (%s)\n", core.Display(amount, c.env.Currency), c.account, ref)
	return subcommands.ExitSuccess
}

type fundCmd struct {
	env     *Env
	account string
	amount  string
	note    string
	at      string
}

func (*fundCmd) Name() string     { return "fund" }
func (*fundCmd) Synopsis() string { return "add funds to an account" }
func (*fundCmd) Usage() string {
	return `saldo fund -account <id> -amount <amount> [-note <text>] [-at <time>]

  Records an inflow into a category or payment method account.
  The time defaults to now.
`
}

func (c *fundCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id (required)")
	f.StringVar(&c.amount, "amount", "", "Amount, e.g. 200.00 (required)")
	f.StringVar(&c.note, "note", "", "Description")
	f.StringVar(&c.at, "at", "", "Time of the addition, YYYY-MM-DD[ HH:MM[:SS]] or RFC 3339")
}

func (c *fundCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" || c.amount == "" {
		return c.env.usage("-account and -amount are required")
	}
	amount, err := core.ParseAmountLabel(c.amount)
	if err != nil {
		return c.env.usage("invalid -amount: %v", err)
	}
	at, err := parseWhen(c.at, c.env.now())
	if err != nil {
		return c.env.usage("%v", err)
	}
	ref, err := c.env.Ledgers.AddFunds(ctx, core.FundAddition{
		AccountID: strings.TrimSpace(c.account),
		Timestamp: at,
		Amount:    amount,
		Note:      strings.TrimSpace(c.note),
	})
	if err != nil {
		return c.env.fail("%v", err)
	}
	fmt.Fprintf(c.env.out(), "added %s to %s (%s)\n", core.Display(amount, c.env.Currency), c.account, ref)
	return subcommands.ExitSuccess
}
