// Package main provides the giftaid command line tool for workstation
// submissions outside AWS: creating the local config, storing the gateway
// credential, submitting a claim document and polling its outcome.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/thebiggive/hmrc-gift-aid/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("a command is required")
	}

	switch args[0] {
	case "init":
		return runInit()
	case "credential":
		return runSetCredential(os.Stdin)
	case "submit":
		fs := flag.NewFlagSet("submit", flag.ContinueOnError)
		input := fs.String("input", "", "path to the claim document JSON file")
		dryRun := fs.Bool("dry-run", false, "route to the gateway test service")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *input == "" {
			return errors.New("-input is required")
		}
		// Workstation submissions persist no state.
		return runSubmit(context.Background(), *input, *dryRun,
			storage.NewNoopStateStore(time.Time{}))
	case "poll":
		fs := flag.NewFlagSet("poll", flag.ContinueOnError)
		correlationID := fs.String("correlation-id", "", "correlation id returned at submission")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *correlationID == "" {
			return errors.New("-correlation-id is required")
		}
		return runPoll(context.Background(), *correlationID)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() {
	fmt.Println("Usage: giftaid <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a sample config file")
	fmt.Println("  credential  Store the gateway password locally")
	fmt.Println("  submit      Submit a claim document (-input FILE [-dry-run])")
	fmt.Println("  poll        Poll a submission outcome (-correlation-id ID)")
	fmt.Println()
}
