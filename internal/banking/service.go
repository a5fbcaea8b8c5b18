// Package banking creates accounts and runs deposits and withdrawals
// against the persisted account set. Every mutation is saved before the
// call returns.
package banking

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/auditlog"
	"github.com/cleared-dev/teller/internal/credentials"
	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/metrics"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/store"
)

// DefaultNotableBalance is used when Options.NotableBalance is zero.
var DefaultNotableBalance = decimal.NewFromInt(1000)

// AuditSink records one row per operation.
type AuditSink interface {
	Append(entries ...auditlog.Entry) error
}

// Options configures a Service. Only Store is required.
type Options struct {
	Store          store.Store
	Policy         credentials.Policy
	NotableBalance decimal.Decimal
	Notifier       Notifier
	Audit          AuditSink
	Metrics        *metrics.Collector
	IDs            *id.Generator
	Now            func() time.Time
	Logger         *slog.Logger
}

// Service provides the banking operations.
type Service struct {
	store     store.Store
	accounts  *accounts.Set
	policy    credentials.Policy
	threshold decimal.Decimal
	notifier  Notifier
	audit     AuditSink
	metrics   *metrics.Collector
	ids       *id.Generator
	now       func() time.Time
	logger    *slog.Logger
}

// New loads the account set from opts.Store and returns a Service over it.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("banking: store is required")
	}
	set, err := opts.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	s := &Service{
		store:     opts.Store,
		accounts:  set,
		policy:    opts.Policy,
		threshold: opts.NotableBalance,
		notifier:  opts.Notifier,
		audit:     opts.Audit,
		metrics:   opts.Metrics,
		ids:       opts.IDs,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if s.threshold.IsZero() {
		s.threshold = DefaultNotableBalance
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	if s.ids == nil {
		s.ids = id.NewGenerator(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.logger.Debug("accounts loaded", slog.Int("count", set.Len()))
	s.refreshGauges()
	return s, nil
}

// NewAccountParams holds the details for a new account.
type NewAccountParams struct {
	Username       string
	Password       string
	Owner          model.Owner
	Type           model.AccountType
	OpeningBalance decimal.Decimal
}

// CreateAccount registers a new account and saves the store. An existing
// username fails with ErrDuplicateUser and leaves the store unchanged.
func (s *Service) CreateAccount(params NewAccountParams) (acct *model.Account, err error) {
	username := strings.TrimSpace(params.Username)
	defer func() { s.record("create", username, params.OpeningBalance, "", err) }()

	if username == "" {
		return nil, ErrEmptyUsername
	}
	// Login falls back to account numbers, so a username must not look like one.
	if _, perr := id.ParseAccountNumber(username); perr == nil {
		return nil, fmt.Errorf("%w: %q", ErrNumericUsername, username)
	}
	if s.accounts.Exists(username) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateUser, username)
	}
	if params.Type == "" {
		params.Type = model.AccountTypeSavings
	}
	if err := s.policy.Validate(params.Password); err != nil {
		return nil, err
	}

	acct, err = model.NewAccount(s.ids.AccountNumber(), username, params.Owner, params.Type, params.OpeningBalance)
	if err != nil {
		return nil, err
	}
	acct.PasswordHash, err = credentials.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	s.accounts.Add(acct)
	if err := s.save(); err != nil {
		s.accounts.Remove(username)
		return nil, err
	}

	s.logger.Info("account created",
		slog.String("username", acct.Username),
		slog.String("account_number", acct.Number),
		slog.String("account_type", string(acct.Type)))
	return acct, nil
}

// Login checks a username (or account number) and password and opens a
// Session.
func (s *Service) Login(key, password string) (sess Session, err error) {
	defer func() { s.record("login", key, decimal.Zero, sess.ID.String(), err) }()

	acct, ok := s.accounts.Lookup(key)
	if !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrUnknownUser, key)
	}
	if err := credentials.Verify(acct.PasswordHash, password); err != nil {
		if errors.Is(err, credentials.ErrMismatch) {
			return Session{}, ErrBadCredentials
		}
		return Session{}, err
	}
	return Session{ID: uuid.New(), Username: acct.Username, Started: s.now()}, nil
}

// Deposit credits the session's account and saves. A deposit that leaves
// the balance above the notable threshold is reported to the Notifier.
func (s *Service) Deposit(sess Session, amount decimal.Decimal) (balance decimal.Decimal, err error) {
	defer func() { s.record("deposit", sess.Username, amount, sess.ID.String(), err) }()

	acct, err := s.account(sess)
	if err != nil {
		return decimal.Zero, err
	}
	if err := acct.Deposit(amount, s.now()); err != nil {
		return acct.Balance(), err
	}
	if err := s.save(); err != nil {
		return acct.Balance(), err
	}

	if acct.Balance().GreaterThan(s.threshold) {
		s.metrics.NotableBalance()
		s.notifier.NotableBalance(acct, s.threshold)
	}
	return acct.Balance(), nil
}

// Withdraw debits the session's account and saves. ErrInsufficientFunds
// leaves the account and the store untouched.
func (s *Service) Withdraw(sess Session, amount decimal.Decimal) (balance decimal.Decimal, err error) {
	defer func() { s.record("withdraw", sess.Username, amount, sess.ID.String(), err) }()

	acct, err := s.account(sess)
	if err != nil {
		return decimal.Zero, err
	}
	if err := acct.Withdraw(amount, s.now()); err != nil {
		return acct.Balance(), err
	}
	if err := s.save(); err != nil {
		return acct.Balance(), err
	}
	return acct.Balance(), nil
}

// Balance returns the session account's balance.
func (s *Service) Balance(sess Session) (decimal.Decimal, error) {
	acct, err := s.account(sess)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance(), nil
}

// History returns the session account's transactions ordered by amount.
func (s *Service) History(sess Session) (iter.Seq[model.Transaction], error) {
	acct, err := s.account(sess)
	if err != nil {
		return nil, err
	}
	return acct.History(), nil
}

// Account returns the session's account.
func (s *Service) Account(sess Session) (*model.Account, error) {
	return s.account(sess)
}

// Accounts returns every account ordered by username.
func (s *Service) Accounts() []*model.Account {
	return s.accounts.All()
}

// Save flushes the account set to the store.
func (s *Service) Save() error {
	return s.save()
}

func (s *Service) account(sess Session) (*model.Account, error) {
	acct, ok := s.accounts.Get(sess.Username)
	if !sess.Valid() || !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, sess.Username)
	}
	return acct, nil
}

func (s *Service) save() error {
	if err := s.store.Save(s.accounts); err != nil {
		return fmt.Errorf("saving accounts: %w", err)
	}
	s.refreshGauges()
	return nil
}

func (s *Service) refreshGauges() {
	if s.metrics == nil {
		return
	}
	for _, t := range []model.AccountType{model.AccountTypeSavings, model.AccountTypeChecking} {
		s.metrics.SetAccounts(string(t), len(s.accounts.ByType(t)))
	}
	for _, a := range s.accounts.All() {
		s.metrics.SetBalance(a.Number, string(a.Type), a.Balance())
	}
}

// record writes the audit row and metric for one operation. Audit failures
// are logged and never fail the operation.
func (s *Service) record(action, username string, amount decimal.Decimal, session string, err error) {
	outcome := Outcome(err)
	s.metrics.Operation(action, outcome)

	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, action,
		slog.String("username", username),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("outcome", outcome))

	if s.audit == nil {
		return
	}
	if session == uuid.Nil.String() {
		session = ""
	}
	entry := auditlog.Entry{
		Timestamp: s.now(),
		Session:   session,
		Action:    action,
		Username:  username,
		Outcome:   outcome,
	}
	if !amount.IsZero() {
		entry.Amount = amount.StringFixed(2)
	}
	if aerr := s.audit.Append(entry); aerr != nil {
		s.logger.Warn("failed to write audit log", slog.String("err", aerr.Error()))
	}
}
