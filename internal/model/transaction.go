package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of a ledger entry.
type TransactionKind string

const (
	KindDeposit    TransactionKind = "Deposit"
	KindWithdrawal TransactionKind = "Withdrawal"
)

// ParseTransactionKind converts a persisted kind back to a TransactionKind.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch k := TransactionKind(s); k {
	case KindDeposit, KindWithdrawal:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Transaction is one immutable ledger entry.
type Transaction struct {
	Kind      TransactionKind
	Amount    decimal.Decimal // always positive
	Timestamp time.Time
}

// NewTransaction builds a Transaction. Validity is the caller's concern.
func NewTransaction(kind TransactionKind, amount decimal.Decimal, at time.Time) Transaction {
	return Transaction{Kind: kind, Amount: amount, Timestamp: at}
}

// CompareAmount orders transactions by amount for display.
func (t Transaction) CompareAmount(other Transaction) int {
	return t.Amount.Cmp(other.Amount)
}

// Signed returns the amount as it affects the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == KindWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}
