package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// ValidationError describes a single ledger invariant violation.
type ValidationError struct {
	Invariant   int
	Username    string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.Username, e.Description)
}

// AccountChecker tests whether a username exists in the account set.
type AccountChecker interface {
	Exists(username string) bool
}

// ValidateRows enforces structural invariants on transactions.csv rows:
//
//  1. every row references a known account
//  2. each account's seq numbers run 1..N without gaps or duplicates
func ValidateRows(rows []Row, accounts AccountChecker) []ValidationError {
	var errs []ValidationError

	seqs := make(map[string]map[int]bool)
	var order []string
	for _, row := range rows {
		if !accounts.Exists(row.Username) {
			errs = append(errs, ValidationError{
				Invariant:   1,
				Username:    row.Username,
				Description: fmt.Sprintf("seq %d references unknown account", row.Seq),
			})
			continue
		}
		seen, ok := seqs[row.Username]
		if !ok {
			seen = make(map[int]bool)
			seqs[row.Username] = seen
			order = append(order, row.Username)
		}
		if seen[row.Seq] {
			errs = append(errs, ValidationError{
				Invariant:   2,
				Username:    row.Username,
				Description: fmt.Sprintf("duplicate seq %d", row.Seq),
			})
		}
		seen[row.Seq] = true
	}

	for _, user := range order {
		seen := seqs[user]
		for i := 1; i <= len(seen); i++ {
			if !seen[i] {
				errs = append(errs, ValidationError{
					Invariant:   2,
					Username:    user,
					Description: fmt.Sprintf("missing seq %d in 1..%d", i, len(seen)),
				})
			}
		}
	}
	return errs
}

// Replay applies a persisted history to a freshly loaded account and checks
// the result against the balance recorded alongside it:
//
//  3. every entry passes Deposit/Withdraw validation in order
//  4. the replayed balance equals the recorded balance
//  5. the account reconciles: opening + deposits - withdrawals == balance
func Replay(acct *model.Account, history []model.Transaction, recorded decimal.Decimal) []ValidationError {
	var errs []ValidationError
	for i, t := range history {
		if err := acct.Apply(t); err != nil {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Username:    acct.Username,
				Description: fmt.Sprintf("entry %d: %v", i+1, err),
			})
			return errs
		}
	}
	if !acct.Balance().Equal(recorded) {
		errs = append(errs, ValidationError{
			Invariant:   4,
			Username:    acct.Username,
			Description: fmt.Sprintf("recorded balance %s != ledger balance %s", recorded.StringFixed(2), acct.Balance().StringFixed(2)),
		})
	}
	if err := acct.Reconcile(); err != nil {
		errs = append(errs, ValidationError{
			Invariant:   5,
			Username:    acct.Username,
			Description: err.Error(),
		})
	}
	return errs
}

// Join renders validation errors as one error, or nil when there are none.
func Join(verrs []ValidationError) error {
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}
