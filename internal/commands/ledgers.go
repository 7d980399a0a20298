package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
)

type ledgerCmd struct {
	env     *Env
	account string
	tail    int
	raw     bool
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "show the chronological ledger of an account" }
func (*ledgerCmd) Usage() string {
	return `saldo ledger -account <id> [-tail <n>] [-raw]

  Prints every expenditure and fund addition of the account in time order,
  with running spent and funded totals and the available balance.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id (required)")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N rows.")
	f.BoolVar(&c.raw, "raw", false, "Print plain markdown instead of rendering it.")
}

func (c *ledgerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		return c.env.usage("-account is required")
	}
	if c.tail < 0 {
		return c.env.usage("-tail cannot be negative")
	}
	acct, rows, err := c.env.Ledgers.Ledger(ctx, c.account)
	if err != nil {
		return c.env.fail("%v", err)
	}
	md := LedgerMarkdown(acct, rows, c.tail, c.env.Currency)
	if err := c.env.printMarkdown(md, c.raw); err != nil {
		return c.env.fail("%v", err)
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	env     *Env
	account string
	dir     string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write an account's ledger to an .xlsx file" }
func (*exportCmd) Usage() string {
	return `saldo export -account <id> [-o <dir>]

  Serializes the ledger to <label>_<YYYY-MM-DD>.xlsx in the output directory.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id (required)")
	f.StringVar(&c.dir, "o", ".", "Output directory")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		return c.env.usage("-account is required")
	}
	exp, err := c.env.Ledgers.Export(ctx, c.account)
	if err != nil {
		return c.env.fail("%v", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return c.env.fail("create %s: %v", c.dir, err)
	}
	path := filepath.Join(c.dir, exp.Filename)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return c.env.fail("write %s: %v", path, err)
	}
	fmt.Fprintln(c.env.out(), path)
	return subcommands.ExitSuccess
}

type importCmd struct {
	env   *Env
	sheet string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import expenditures from an .xlsx file or a published sheet" }
func (*importCmd) Usage() string {
	return `saldo import <file.xlsx>
saldo import -sheet <label>

  Reads the expenditure rows of an exchange document and stores them under
  the "uncategorized" category. Fund-addition rows are skipped.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sheet, "sheet", "", "Read the published Google Sheets tab with this label instead of a file")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.sheet == "") == (f.NArg() != 1) {
		return c.env.usage("give exactly one of a file argument or -sheet")
	}
	if c.sheet != "" {
		res, err := c.env.Ledgers.ImportSheet(ctx, c.sheet)
		if err != nil {
			return c.env.fail("%v", err)
		}
		fmt.Fprintf(c.env.out(), "imported %d, skipped %d\n", res.Imported, res.Skipped)
		return subcommands.ExitSuccess
	}

	name := f.Arg(0)
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return c.env.fail("file %q does not exist", name)
	}
	if err != nil {
		return c.env.fail("read %s: %v", name, err)
	}
	res, err := c.env.Ledgers.Import(ctx, data)
	if err != nil {
		return c.env.fail("import %s: %v", name, err)
	}
	fmt.Fprintf(c.env.out(), "imported %d, skipped %d\n", res.Imported, res.Skipped)
	return subcommands.ExitSuccess
}

type publishCmd struct {
	env     *Env
	account string
}

func (*publishCmd) Name() string     { return "publish" }
func (*publishCmd) Synopsis() string { return "publish an account's ledger to Google Sheets" }
func (*publishCmd) Usage() string {
	return `saldo publish -account <id>

  Replaces the account's tab in the configured spreadsheet with its ledger.
`
}

func (c *publishCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id (required)")
}

func (c *publishCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		return c.env.usage("-account is required")
	}
	ref, err := c.env.Ledgers.Publish(ctx, c.account)
	if err != nil {
		return c.env.fail("%v", err)
	}
	fmt.Fprintln(c.env.out(), ref)
	return subcommands.ExitSuccess
}
