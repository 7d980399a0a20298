package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"saldo/internal/core"
)

type accountsCmd struct {
	env *Env
	raw bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list categories and payment methods" }
func (*accountsCmd) Usage() string {
	return `saldo accounts [-raw]

  Lists every account with its kind and opening balance.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "Print plain markdown instead of rendering it.")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	accts, err := c.env.Ledgers.Accounts(ctx)
	if err != nil {
		return c.env.fail("%v", err)
	}
	if err := c.env.printMarkdown(AccountsMarkdown(accts, c.env.Currency), c.raw); err != nil {
		return c.env.fail("%v", err)
	}
	return subcommands.ExitSuccess
}

type accountAddCmd struct {
	env     *Env
	id      string
	kind    string
	label   string
	opening string
}

func (*accountAddCmd) Name() string     { return "account-add" }
func (*accountAddCmd) Synopsis() string { return "create or update an account" }
func (*accountAddCmd) Usage() string {
	return `saldo account-add -id <id> [-kind category|payment_method] [-label <label>] [-opening <amount>]

  Saves an account. An existing account with the same id is replaced.
  - kind: "category" (default) or "payment_method".
  - opening: funds already allocated before the first recorded event.
`
}

func (c *accountAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Account identifier (required)")
	f.StringVar(&c.kind, "kind", string(core.CategoryAccount), "Account kind: category or payment_method")
	f.StringVar(&c.label, "label", "", "Display label")
	f.StringVar(&c.opening, "opening", "", "Opening balance, e.g. 250.00")
}

func (c *accountAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.id) == "" {
		return c.env.usage("-id is required")
	}
	kind, err := core.ParseAccountKind(c.kind)
	if err != nil {
		return c.env.usage("%v", err)
	}
	acct := core.Account{ID: c.id, Kind: kind, Label: strings.TrimSpace(c.label)}
	if strings.TrimSpace(c.opening) != "" {
		opening, err := core.ParseAmountLabel(c.opening)
		if err != nil {
			return c.env.usage("invalid -opening: %v", err)
		}
		acct.OpeningBalance = opening
	}
	if err := c.env.Ledgers.CreateAccount(ctx, acct); err != nil {
		return c.env.fail("%v", err)
	}
	fmt.Fprintf(c.env.out(), "saved %s %q\n", kind, strings.TrimSpace(c.id))
	return subcommands.ExitSuccess
}
