package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"saldo/internal/cli"
	"saldo/internal/commands"
	"saldo/internal/log"
)

var style = flag.String("style", commands.DefaultStyle, "Glamour style for rendered output (dark, light, notty, ascii)")

func main() {
	// Load .env file for local development
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	env := &commands.Env{}
	commands.Register(commander, env)
	flag.Parse()

	if flag.NArg() == 0 || isHelp(flag.Arg(0)) {
		os.Exit(int(commander.Execute(context.Background())))
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentCLI)

	ctx := context.Background()
	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	env.Ledgers = app.Service
	env.Currency = cfg.DisplayCurrency
	env.Style = *style

	status := commander.Execute(ctx)
	if err := app.Close(); err != nil {
		logger.Error("Failed to release resources", log.FieldError, err)
	}
	os.Exit(int(status))
}

func isHelp(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	return false
}
