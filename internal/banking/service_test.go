package banking

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/auditlog"
	"github.com/cleared-dev/teller/internal/credentials"
	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/metrics"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type seqSource struct{ n int }

func (s *seqSource) IntN(n int) int {
	s.n++
	return s.n % n
}

type notableEvents struct {
	usernames []string
	balances  []string
}

func (n *notableEvents) NotableBalance(acct *model.Account, _ decimal.Decimal) {
	n.usernames = append(n.usernames, acct.Username)
	n.balances = append(n.balances, acct.Balance().StringFixed(2))
}

// countingStore wraps a Store and counts saves; it can be told to fail.
type countingStore struct {
	store.Store
	saves int
	fail  error
}

func (c *countingStore) Save(set *accounts.Set) error {
	if c.fail != nil {
		return c.fail
	}
	c.saves++
	return c.Store.Save(set)
}

type fixture struct {
	svc     *Service
	store   *countingStore
	notes   *notableEvents
	metrics *metrics.Collector
	audit   *auditlog.Log
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		store:   &countingStore{Store: store.NewJSONStore(filepath.Join(dir, store.JSONFileName))},
		notes:   &notableEvents{},
		metrics: metrics.New(),
		audit:   auditlog.New(dir),
		dir:     dir,
	}
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, err := New(Options{
		Store:    f.store,
		Policy:   credentials.Policy{MinLength: 7},
		Notifier: f.notes,
		Audit:    f.audit,
		Metrics:  f.metrics,
		IDs:      id.NewGenerator(&seqSource{}),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) create(t *testing.T, username, opening string) *model.Account {
	t.Helper()
	acct, err := f.svc.CreateAccount(NewAccountParams{
		Username:       username,
		Password:       "secret123",
		Owner:          model.Owner{FirstName: "Jane", LastName: "Doe", Email: username + "@example.com"},
		Type:           model.AccountTypeSavings,
		OpeningBalance: dec(opening),
	})
	require.NoError(t, err)
	return acct
}

func (f *fixture) login(t *testing.T, username string) Session {
	t.Helper()
	sess, err := f.svc.Login(username, "secret123")
	require.NoError(t, err)
	return sess
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	acct := f.create(t, "jdoe", "500")

	assert.Equal(t, "10000001", acct.Number)
	assert.Equal(t, "jdoe", acct.Username)
	assert.True(t, acct.Balance().Equal(dec("500")))
	assert.NotEqual(t, "secret123", acct.PasswordHash)
	assert.Equal(t, 1, f.store.saves, "create is written through")

	reloaded, err := f.store.Load()
	require.NoError(t, err)
	assert.True(t, reloaded.Exists("jdoe"))
}

func TestCreateAccount_DefaultsToSavings(t *testing.T) {
	f := newFixture(t)
	acct, err := f.svc.CreateAccount(NewAccountParams{Username: "x", Password: "secret123", OpeningBalance: decimal.Zero})
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeSavings, acct.Type)
}

func TestCreateAccount_Duplicate(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "jdoe", "500")
	savesBefore := f.store.saves

	_, err := f.svc.CreateAccount(NewAccountParams{Username: " jdoe ", Password: "other1234", OpeningBalance: dec("1")})
	require.ErrorIs(t, err, ErrDuplicateUser)
	assert.Equal(t, savesBefore, f.store.saves)

	all := f.svc.Accounts()
	require.Len(t, all, 1)
	assert.Same(t, first, all[0])
	assert.True(t, all[0].Balance().Equal(dec("500")))
}

func TestCreateAccount_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		params NewAccountParams
		want   error
	}{
		{"empty username", NewAccountParams{Username: "  ", Password: "secret123"}, ErrEmptyUsername},
		{"account number username", NewAccountParams{Username: "10000001", Password: "secret123"}, ErrNumericUsername},
		{"weak password", NewAccountParams{Username: "a", Password: "short"}, credentials.ErrWeakPassword},
		{"negative opening", NewAccountParams{Username: "a", Password: "secret123", OpeningBalance: dec("-1")}, model.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateAccount(tt.params)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.svc.Accounts())
			assert.Equal(t, 0, f.store.saves)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	acct := f.create(t, "jdoe", "0")

	sess := f.login(t, "jdoe")
	assert.True(t, sess.Valid())
	assert.Equal(t, "jdoe", sess.Username)

	byNumber, err := f.svc.Login(acct.Number, "secret123")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", byNumber.Username)
	assert.NotEqual(t, sess.ID, byNumber.ID)

	_, err = f.svc.Login("jdoe", "wrong1234")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = f.svc.Login("nobody", "secret123")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestScenario(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "500")
	sess := f.login(t, "jdoe")

	bal, err := f.svc.Deposit(sess, dec("600"))
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("1100")))
	assert.Equal(t, []string{"jdoe"}, f.notes.usernames)
	assert.Equal(t, []string{"1100.00"}, f.notes.balances)

	saves := f.store.saves
	bal, err = f.svc.Withdraw(sess, dec("2000"))
	require.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.True(t, bal.Equal(dec("1100")))
	assert.Equal(t, saves, f.store.saves, "rejected withdrawal is not saved")

	bal, err = f.svc.Withdraw(sess, dec("100"))
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("1000")))

	acct, err := f.svc.Account(sess)
	require.NoError(t, err)
	ledger := acct.Ledger()
	require.Len(t, ledger, 2)
	assert.Equal(t, model.KindDeposit, ledger[0].Kind)
	assert.True(t, ledger[0].Amount.Equal(dec("600")))
	assert.Equal(t, model.KindWithdrawal, ledger[1].Kind)
	assert.True(t, ledger[1].Amount.Equal(dec("100")))

	// the persisted state matches
	reloaded, err := f.store.Load()
	require.NoError(t, err)
	got, _ := reloaded.Get("jdoe")
	assert.True(t, got.Balance().Equal(dec("1000")))
	assert.Equal(t, 2, got.Len())
}

func TestDeposit_BelowThresholdIsQuiet(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "0")
	sess := f.login(t, "jdoe")

	_, err := f.svc.Deposit(sess, dec("1000"))
	require.NoError(t, err)
	assert.Empty(t, f.notes.usernames, "exactly 1000 is not above the threshold")
}

func TestDeposit_InvalidAmount(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "10")
	sess := f.login(t, "jdoe")

	for _, amt := range []string{"0", "-5"} {
		_, err := f.svc.Deposit(sess, dec(amt))
		assert.ErrorIs(t, err, model.ErrInvalidAmount)
	}
	acct, _ := f.svc.Account(sess)
	assert.Equal(t, 0, acct.Len())
}

func TestUnknownUser(t *testing.T) {
	f := newFixture(t)
	ghost := Session{Username: "ghost"}

	_, err := f.svc.Deposit(ghost, dec("1"))
	assert.ErrorIs(t, err, ErrUnknownUser)
	_, err = f.svc.Withdraw(ghost, dec("1"))
	assert.ErrorIs(t, err, ErrUnknownUser)
	_, err = f.svc.Balance(ghost)
	assert.ErrorIs(t, err, ErrUnknownUser)
	_, err = f.svc.History(ghost)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "100")
	sess := f.login(t, "jdoe")

	for _, amt := range []string{"30", "10", "20"} {
		_, err := f.svc.Deposit(sess, dec(amt))
		require.NoError(t, err)
	}
	_, err := f.svc.Withdraw(sess, dec("15"))
	require.NoError(t, err)

	seq, err := f.svc.History(sess)
	require.NoError(t, err)
	var got []string
	for tx := range seq {
		got = append(got, string(tx.Kind)+":"+tx.Amount.String())
	}
	assert.Equal(t, []string{"Deposit:10", "Withdrawal:15", "Deposit:20", "Deposit:30"}, got)

	bal, err := f.svc.Balance(sess)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("145")))
}

func TestSaveFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "10")
	sess := f.login(t, "jdoe")

	f.store.fail = errors.New("disk full")
	_, err := f.svc.Deposit(sess, dec("5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCreateAccount_SaveFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.fail = errors.New("disk full")

	_, err := f.svc.CreateAccount(NewAccountParams{Username: "jdoe", Password: "secret123"})
	require.ErrorContains(t, err, "disk full")
	assert.Empty(t, f.svc.Accounts())

	f.store.fail = nil
	acct, err := f.svc.CreateAccount(NewAccountParams{Username: "jdoe", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "jdoe", acct.Username)
	require.Len(t, f.svc.Accounts(), 1)
}

func TestSave_FlushesAfterEarlierFailure(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "10")
	sess := f.login(t, "jdoe")

	f.store.fail = errors.New("disk full")
	_, err := f.svc.Deposit(sess, dec("5"))
	require.Error(t, err)

	f.store.fail = nil
	require.NoError(t, f.svc.Save())

	reloaded, err := f.store.Load()
	require.NoError(t, err)
	acct, ok := reloaded.Get("jdoe")
	require.True(t, ok)
	assert.True(t, acct.Balance().Equal(dec("15")))
}

func TestReloadAcrossServices(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "10")
	sess := f.login(t, "jdoe")
	_, err := f.svc.Deposit(sess, dec("5"))
	require.NoError(t, err)

	svc2, err := New(Options{Store: f.store.Store})
	require.NoError(t, err)
	sess2, err := svc2.Login("jdoe", "secret123")
	require.NoError(t, err)
	bal, err := svc2.Balance(sess2)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("15")))
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "10")
	sess := f.login(t, "jdoe")
	_, _ = f.svc.Withdraw(sess, dec("50"))

	entries, err := f.audit.Read()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "create", entries[0].Action)
	assert.Empty(t, entries[0].Session)
	assert.Equal(t, "login", entries[1].Action)
	assert.Equal(t, sess.ID.String(), entries[1].Session)
	assert.Equal(t, "withdraw", entries[2].Action)
	assert.Equal(t, "50.00", entries[2].Amount)
	assert.Equal(t, "insufficient_funds", entries[2].Outcome)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.create(t, "jdoe", "500")
	sess := f.login(t, "jdoe")
	_, err := f.svc.Deposit(sess, dec("600"))
	require.NoError(t, err)

	expected := `
# HELP teller_notable_balance_events_total Deposits that left a balance above the notable threshold
# TYPE teller_notable_balance_events_total counter
teller_notable_balance_events_total 1
`
	err = testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "teller_notable_balance_events_total")
	assert.NoError(t, err)

	expected = `
# HELP teller_accounts Number of accounts by type
# TYPE teller_accounts gauge
teller_accounts{account_type="Checking"} 0
teller_accounts{account_type="Savings"} 1
`
	err = testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "teller_accounts")
	assert.NoError(t, err)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{model.ErrInvalidAmount, "invalid_amount"},
		{model.ErrInsufficientFunds, "insufficient_funds"},
		{ErrDuplicateUser, "duplicate_user"},
		{ErrUnknownUser, "unknown_user"},
		{ErrNumericUsername, "invalid_username"},
		{ErrBadCredentials, "bad_credentials"},
		{credentials.ErrWeakPassword, "weak_password"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}
