package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrAccountNotFound is returned for unknown account ids.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientFunds is returned when a debit would make a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrSameAccount is returned when a transfer names one account twice.
	ErrSameAccount = errors.New("cannot transfer to the same account")
	// ErrInvalidOwner is returned when an account is opened without an owner.
	ErrInvalidOwner = errors.New("owner is required")
	// ErrBalanceOverflow is returned when a credit would exceed the largest representable balance.
	ErrBalanceOverflow = errors.New("balance would overflow")
)

// EntryKind labels a history entry.
type EntryKind string

const (
	EntryOpen        EntryKind = "open"
	EntryDeposit     EntryKind = "deposit"
	EntryWithdrawal  EntryKind = "withdrawal"
	EntryTransferIn  EntryKind = "transfer_in"
	EntryTransferOut EntryKind = "transfer_out"
)

// Account is a snapshot of one account.
type Account struct {
	ID        string
	Owner     string
	Balance   int64
	CreatedAt time.Time
}

// Entry is one balance change. Balance is the account balance after it.
type Entry struct {
	Seq          uint64
	AccountID    string
	Kind         EntryKind
	Amount       int64
	Balance      int64
	Counterparty string
	At           time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger attaches a logger; operations are logged at Debug.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	order    []string
	history  map[string][]Entry
	seq      uint64

	now    func() time.Time
	logger *zap.Logger
}

// New returns an empty Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[string]*Account),
		history:  make(map[string][]Entry),
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates an account. initialCents may be zero.
func (l *Ledger) Open(owner string, initialCents int64) (Account, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Account{}, ErrInvalidOwner
	}
	if initialCents < 0 {
		return Account{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct := &Account{
		ID:        uuid.NewString(),
		Owner:     owner,
		Balance:   initialCents,
		CreatedAt: l.now().UTC(),
	}
	l.accounts[acct.ID] = acct
	l.order = append(l.order, acct.ID)
	l.record(acct, EntryOpen, initialCents, "")

	l.logger.Debug("account opened", zap.String("account_id", acct.ID), zap.Int64("balance", acct.Balance))
	return *acct, nil
}

// Deposit credits an account and returns its new balance.
func (l *Ledger) Deposit(id string, cents int64) (int64, error) {
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return 0, ErrAccountNotFound
	}
	if !canCredit(acct.Balance, cents) {
		return acct.Balance, ErrBalanceOverflow
	}
	acct.Balance += cents
	l.record(acct, EntryDeposit, cents, "")

	l.logger.Debug("deposit", zap.String("account_id", id), zap.Int64("amount", cents))
	return acct.Balance, nil
}

// Withdraw debits an account and returns its new balance.
func (l *Ledger) Withdraw(id string, cents int64) (int64, error) {
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return 0, ErrAccountNotFound
	}
	if acct.Balance < cents {
		return acct.Balance, fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, FormatCents(acct.Balance), FormatCents(cents))
	}
	acct.Balance -= cents
	l.record(acct, EntryWithdrawal, cents, "")

	l.logger.Debug("withdrawal", zap.String("account_id", id), zap.Int64("amount", cents))
	return acct.Balance, nil
}

// Transfer moves cents between two accounts atomically.
func (l *Ledger) Transfer(from, to string, cents int64) error {
	if cents <= 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSameAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	dst, ok := l.accounts[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, to)
	}
	if src.Balance < cents {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, FormatCents(src.Balance), FormatCents(cents))
	}
	if !canCredit(dst.Balance, cents) {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}

	src.Balance -= cents
	dst.Balance += cents
	l.record(src, EntryTransferOut, cents, dst.ID)
	l.record(dst, EntryTransferIn, cents, src.ID)

	l.logger.Debug("transfer",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int64("amount", cents))
	return nil
}

// Account returns a snapshot of one account.
func (l *Ledger) Account(id string) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *acct, nil
}

// Accounts returns all accounts in opening order.
func (l *Ledger) Accounts() []Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Account, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.accounts[id])
	}
	return out
}

// History returns the entries of one account, oldest first.
func (l *Ledger) History(id string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.accounts[id]; !ok {
		return nil, ErrAccountNotFound
	}
	entries := append([]Entry(nil), l.history[id]...)
	return entries, nil
}

// Resolve finds an account by exact id or by a unique id prefix.
func (l *Ledger) Resolve(ref string) (Account, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Account{}, ErrAccountNotFound
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if acct, ok := l.accounts[ref]; ok {
		return *acct, nil
	}
	var matches []string
	for id := range l.accounts {
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return Account{}, ErrAccountNotFound
	case 1:
		return *l.accounts[matches[0]], nil
	default:
		sort.Strings(matches)
		return Account{}, fmt.Errorf("ambiguous account prefix %q matches %s", ref, strings.Join(matches, ", "))
	}
}

// Total returns the sum of all balances.
func (l *Ledger) Total() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total int64
	for _, acct := range l.accounts {
		total += acct.Balance
	}
	return total
}

func canCredit(balance, cents int64) bool {
	return balance <= math.MaxInt64-cents
}

// record must be called with l.mu held.
func (l *Ledger) record(acct *Account, kind EntryKind, amount int64, counterparty string) {
	l.seq++
	l.history[acct.ID] = append(l.history[acct.ID], Entry{
		Seq:          l.seq,
		AccountID:    acct.ID,
		Kind:         kind,
		Amount:       amount,
		Balance:      acct.Balance,
		Counterparty: counterparty,
		At:           l.now().UTC(),
	})
}
