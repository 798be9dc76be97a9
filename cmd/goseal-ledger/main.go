// goseal-ledger is an interactive ledger simulator. It reads one command per
// line from stdin and prints results to stdout.
//
//	goseal-ledger --owner alice --initial 100.00
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSeal/ledger"
)

func main() {
	if err := run(os.Stdin, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, args []string) error {
	var (
		owner   string
		initial string
		verbose bool
	)

	flagSet := pflag.NewFlagSet("goseal-ledger", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&owner, "owner", "", "open an account for this owner at startup")
	flagSet.StringVar(&initial, "initial", "0", "initial balance for --owner, e.g. 25.00")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log ledger operations to stderr")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	logger := zap.NewNop()
	if verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = dev
		defer func() { _ = logger.Sync() }()
	}

	sh := newShell(ledger.New(ledger.WithLogger(logger)), out)

	if owner != "" {
		cents, err := ledger.ParseCents(initial)
		if err != nil {
			return fmt.Errorf("--initial: %w", err)
		}
		acct, err := sh.ledger.Open(owner, cents)
		if err != nil {
			return err
		}
		sh.printf("opened %s for %s with %s\n", acct.ID, acct.Owner, ledger.FormatCents(acct.Balance))
	}

	return sh.loop(in)
}
