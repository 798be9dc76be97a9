// Package ledger is an in-memory account ledger with deposits, withdrawals
// and transfers. Amounts are int64 cents and balances never go negative.
package ledger
