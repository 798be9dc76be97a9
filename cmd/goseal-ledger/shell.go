package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/MrEthical07/goSeal/ledger"
)

const helpText = `commands:
  open <owner> [amount]          open an account
  deposit <account> <amount>     credit an account
  withdraw <account> <amount>    debit an account
  transfer <from> <to> <amount>  move funds between accounts
  balance <account>              show one account
  list                           show all accounts
  history <account>              show account entries
  help                           show this text
  quit                           exit
accounts may be given by a unique id prefix; amounts are decimal, e.g. 12.50
`

var errQuit = errors.New("quit")

type shell struct {
	ledger *ledger.Ledger
	out    io.Writer
}

func newShell(l *ledger.Ledger, out io.Writer) *shell {
	return &shell{ledger: l, out: out}
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.printf("goseal ledger. type 'help' for commands.\n")
	for {
		s.printf("> ")
		if !scanner.Scan() {
			s.printf("\n")
			return scanner.Err()
		}
		err := s.exec(strings.Fields(scanner.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			s.printf("error: %v\n", err)
		}
	}
}

func (s *shell) exec(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		s.printf("%s", helpText)
		return nil
	case "quit", "exit", "q":
		return errQuit
	case "open":
		return s.open(args)
	case "deposit":
		return s.deposit(args)
	case "withdraw":
		return s.withdraw(args)
	case "transfer":
		return s.transfer(args)
	case "balance":
		return s.balance(args)
	case "list":
		return s.list()
	case "history":
		return s.history(args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage(text string) error {
	return fmt.Errorf("usage: %s", text)
}

func (s *shell) open(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("open <owner> [amount]")
	}
	var cents int64
	if len(args) == 2 {
		var err error
		if cents, err = ledger.ParseCents(args[1]); err != nil {
			return err
		}
	}
	acct, err := s.ledger.Open(args[0], cents)
	if err != nil {
		return err
	}
	s.printf("opened %s for %s with %s\n", acct.ID, acct.Owner, ledger.FormatCents(acct.Balance))
	return nil
}

func (s *shell) deposit(args []string) error {
	if len(args) != 2 {
		return usage("deposit <account> <amount>")
	}
	acct, cents, err := s.accountAndAmount(args[0], args[1])
	if err != nil {
		return err
	}
	bal, err := s.ledger.Deposit(acct.ID, cents)
	if err != nil {
		return err
	}
	s.printf("balance %s\n", ledger.FormatCents(bal))
	return nil
}

func (s *shell) withdraw(args []string) error {
	if len(args) != 2 {
		return usage("withdraw <account> <amount>")
	}
	acct, cents, err := s.accountAndAmount(args[0], args[1])
	if err != nil {
		return err
	}
	bal, err := s.ledger.Withdraw(acct.ID, cents)
	if err != nil {
		return err
	}
	s.printf("balance %s\n", ledger.FormatCents(bal))
	return nil
}

func (s *shell) transfer(args []string) error {
	if len(args) != 3 {
		return usage("transfer <from> <to> <amount>")
	}
	from, cents, err := s.accountAndAmount(args[0], args[2])
	if err != nil {
		return err
	}
	to, err := s.ledger.Resolve(args[1])
	if err != nil {
		return err
	}
	if err := s.ledger.Transfer(from.ID, to.ID, cents); err != nil {
		return err
	}
	s.printf("transferred %s from %s to %s\n", ledger.FormatCents(cents), from.Owner, to.Owner)
	return nil
}

func (s *shell) balance(args []string) error {
	if len(args) != 1 {
		return usage("balance <account>")
	}
	acct, err := s.ledger.Resolve(args[0])
	if err != nil {
		return err
	}
	s.printf("%s %s %s\n", acct.ID, acct.Owner, ledger.FormatCents(acct.Balance))
	return nil
}

func (s *shell) list() error {
	accts := s.ledger.Accounts()
	if len(accts) == 0 {
		s.printf("no accounts\n")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tBALANCE")
	for _, a := range accts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, a.Owner, ledger.FormatCents(a.Balance))
	}
	return tw.Flush()
}

func (s *shell) history(args []string) error {
	if len(args) != 1 {
		return usage("history <account>")
	}
	acct, err := s.ledger.Resolve(args[0])
	if err != nil {
		return err
	}
	entries, err := s.ledger.History(acct.ID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tKIND\tAMOUNT\tBALANCE\tCOUNTERPARTY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Seq, e.Kind, ledger.FormatCents(e.Amount), ledger.FormatCents(e.Balance), e.Counterparty)
	}
	return tw.Flush()
}

func (s *shell) accountAndAmount(ref, amount string) (ledger.Account, int64, error) {
	acct, err := s.ledger.Resolve(ref)
	if err != nil {
		return ledger.Account{}, 0, err
	}
	cents, err := ledger.ParseCents(amount)
	if err != nil {
		return ledger.Account{}, 0, err
	}
	return acct, cents, nil
}
