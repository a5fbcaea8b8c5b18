package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/model"
)

type mockAccounts map[string]bool

func (m mockAccounts) Exists(username string) bool { return m[username] }

func newMockAccounts(names ...string) mockAccounts {
	m := make(mockAccounts)
	for _, n := range names {
		m[n] = true
	}
	return m
}

func depositRow(user string, seq int, amount string) Row {
	return Row{Username: user, Seq: seq, Transaction: model.NewTransaction(model.KindDeposit, dec(amount), ts(seq))}
}

func TestValidateRows_Valid(t *testing.T) {
	rows := []Row{
		depositRow("ann", 1, "10"),
		depositRow("bob", 1, "10"),
		depositRow("ann", 2, "10"),
	}
	assert.Empty(t, ValidateRows(rows, newMockAccounts("ann", "bob")))
}

func TestValidateRows_UnknownAccount(t *testing.T) {
	errs := ValidateRows([]Row{depositRow("ghost", 1, "1")}, newMockAccounts("ann"))
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Invariant)
	assert.Equal(t, "ghost", errs[0].Username)
}

func TestValidateRows_Sequence(t *testing.T) {
	rows := []Row{
		depositRow("ann", 1, "1"),
		depositRow("ann", 1, "1"),
		depositRow("ann", 3, "1"),
	}
	errs := ValidateRows(rows, newMockAccounts("ann"))
	require.Len(t, errs, 2)
	assert.Equal(t, 2, errs[0].Invariant)
	assert.Contains(t, errs[0].Description, "duplicate seq 1")
	assert.Contains(t, errs[1].Description, "missing seq 2")
}

func newAccount(t *testing.T, opening string) *model.Account {
	t.Helper()
	acct, err := model.NewAccount("12345678", "ann", model.Owner{}, model.AccountTypeChecking, dec(opening))
	require.NoError(t, err)
	return acct
}

func TestReplay_Valid(t *testing.T) {
	acct := newAccount(t, "500")
	history := []model.Transaction{
		model.NewTransaction(model.KindDeposit, dec("600"), ts(0)),
		model.NewTransaction(model.KindWithdrawal, dec("100"), ts(1)),
	}
	assert.Empty(t, Replay(acct, history, dec("1000")))
	assert.Equal(t, 2, acct.Len())
	assert.NoError(t, acct.Reconcile())
}

func TestReplay_BalanceMismatch(t *testing.T) {
	acct := newAccount(t, "500")
	history := []model.Transaction{model.NewTransaction(model.KindDeposit, dec("600"), ts(0))}

	errs := Replay(acct, history, dec("1200"))
	require.Len(t, errs, 1)
	assert.Equal(t, 4, errs[0].Invariant)
}

func TestReplay_Overdraw(t *testing.T) {
	acct := newAccount(t, "10")
	history := []model.Transaction{
		model.NewTransaction(model.KindWithdrawal, dec("20"), ts(0)),
		model.NewTransaction(model.KindDeposit, dec("20"), ts(1)),
	}
	errs := Replay(acct, history, dec("10"))
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Invariant)
	assert.Contains(t, errs[0].Description, "insufficient funds")
}

func TestReplay_NonPositiveAmount(t *testing.T) {
	acct := newAccount(t, "10")
	errs := Replay(acct, []model.Transaction{model.NewTransaction(model.KindDeposit, dec("0"), ts(0))}, dec("10"))
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Invariant)
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(nil))
	err := Join([]ValidationError{
		{Invariant: 1, Username: "a", Description: "x"},
		{Invariant: 2, Username: "b", Description: "y"},
	})
	assert.EqualError(t, err, "validation failed: invariant 1 [a]: x; invariant 2 [b]: y")
}
