package model

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a customer account.
type AccountType string

const (
	AccountTypeSavings  AccountType = "Savings"
	AccountTypeChecking AccountType = "Checking"
)

// ParseAccountType accepts "savings"/"checking" in any case.
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "savings":
		return AccountTypeSavings, nil
	case "checking":
		return AccountTypeChecking, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
}

// Owner holds the account holder's personal details.
type Owner struct {
	FirstName string
	LastName  string
	Email     string
}

// FullName returns "First Last".
func (o Owner) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// Account is a balance paired with the append-only log that explains it.
// Balance and history are only mutated together through Deposit and Withdraw.
type Account struct {
	Number         string
	Username       string
	Owner          Owner
	Type           AccountType
	OpeningBalance decimal.Decimal
	PasswordHash   string

	balance decimal.Decimal
	history []Transaction
}

// NewAccount creates an account holding its opening balance and no history.
func NewAccount(number, username string, owner Owner, accountType AccountType, opening decimal.Decimal) (*Account, error) {
	if opening.IsNegative() || !hasCents(opening) {
		return nil, fmt.Errorf("%w: opening balance %s", ErrInvalidAmount, opening)
	}
	return &Account{
		Number:         number,
		Username:       username,
		Owner:          owner,
		Type:           accountType,
		OpeningBalance: opening,
		balance:        opening,
	}, nil
}

// Deposit adds amount to the balance and records it.
func (a *Account) Deposit(amount decimal.Decimal, at time.Time) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	a.balance = a.balance.Add(amount)
	a.history = append(a.history, NewTransaction(KindDeposit, amount, at))
	return nil
}

// Withdraw removes amount from the balance and records it. A withdrawal
// larger than the balance is rejected and leaves the account unchanged.
func (a *Account) Withdraw(amount decimal.Decimal, at time.Time) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(a.balance) {
		return fmt.Errorf("%w: requested %s, available %s", ErrInsufficientFunds, amount.StringFixed(2), a.balance.StringFixed(2))
	}
	a.balance = a.balance.Sub(amount)
	a.history = append(a.history, NewTransaction(KindWithdrawal, amount, at))
	return nil
}

// Apply replays a recorded transaction through the same checks as Deposit
// and Withdraw.
func (a *Account) Apply(t Transaction) error {
	switch t.Kind {
	case KindDeposit:
		return a.Deposit(t.Amount, t.Timestamp)
	case KindWithdrawal:
		return a.Withdraw(t.Amount, t.Timestamp)
	}
	return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	return a.balance
}

// Len returns the number of recorded transactions.
func (a *Account) Len() int {
	return len(a.history)
}

// Ledger returns a copy of the history in insertion order.
func (a *Account) Ledger() []Transaction {
	return slices.Clone(a.history)
}

// History yields the transactions ordered by ascending amount. Entries with
// equal amounts keep their insertion order. The sort runs each time the
// sequence is ranged over, so it always reflects the current log.
func (a *Account) History() iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		sorted := slices.Clone(a.history)
		slices.SortStableFunc(sorted, Transaction.CompareAmount)
		for _, t := range sorted {
			if !yield(t) {
				return
			}
		}
	}
}

// Reconcile checks balance == opening + deposits - withdrawals.
func (a *Account) Reconcile() error {
	want := a.OpeningBalance
	for _, t := range a.history {
		want = want.Add(t.Signed())
	}
	if !want.Equal(a.balance) {
		return fmt.Errorf("balance %s does not match ledger total %s", a.balance.StringFixed(2), want.StringFixed(2))
	}
	if a.balance.IsNegative() {
		return fmt.Errorf("balance %s is negative", a.balance.StringFixed(2))
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than 0", ErrInvalidAmount, amount)
	}
	if !hasCents(amount) {
		return fmt.Errorf("%w: %s has more than 2 decimal places", ErrInvalidAmount, amount)
	}
	return nil
}

// hasCents reports whether d has at most two decimal places.
func hasCents(d decimal.Decimal) bool {
	hundred := decimal.NewFromInt(100)
	return d.Mul(hundred).Equal(d.Mul(hundred).Floor())
}
