package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/errs"
	"github.com/cleared-dev/teller/internal/journal"
	"github.com/cleared-dev/teller/internal/model"
)

// JSONFileName is the file the JSON store writes inside the data dir.
const JSONFileName = "accounts.json"

// jsonAccount is one value of the username-keyed snapshot object.
type jsonAccount struct {
	FirstName          string            `json:"firstname"`
	LastName           string            `json:"lastname"`
	Email              string            `json:"email"`
	AccountNumber      string            `json:"account_number"`
	AccountType        string            `json:"account_type"`
	OpeningBalance     string            `json:"opening_balance"`
	Balance            string            `json:"balance"`
	PasswordHash       string            `json:"password_hash"`
	TransactionHistory []jsonTransaction `json:"transaction_history"`
}

type jsonTransaction struct {
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Timestamp string `json:"timestamp"`
}

// JSONStore keeps every account, history included, in one JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSONStore writing to path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the snapshot. A missing file means an empty set.
func (s *JSONStore) Load() (*accounts.Set, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return accounts.NewSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var snapshot map[string]jsonAccount
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errs.Corrupt(JSONFileName, 0, "", err)
	}

	set := accounts.NewSet()
	for _, username := range slices.Sorted(maps.Keys(snapshot)) {
		acct, err := decodeAccount(username, snapshot[username])
		if err != nil {
			return nil, errs.Corrupt(JSONFileName, 0, username, err)
		}
		set.Add(acct)
	}
	return set, nil
}

// Save overwrites the file with the full set.
func (s *JSONStore) Save(set *accounts.Set) error {
	snapshot := make(map[string]jsonAccount, set.Len())
	for _, acct := range set.All() {
		snapshot[acct.Username] = encodeAccount(acct)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling accounts: %w", err)
	}
	data = append(data, '\n')

	err = writeFileAtomic(s.path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving accounts: %w", err)
	}
	return nil
}

func encodeAccount(acct *model.Account) jsonAccount {
	ledger := acct.Ledger()
	history := make([]jsonTransaction, len(ledger))
	for i, t := range ledger {
		history[i] = jsonTransaction{
			Type:      string(t.Kind),
			Amount:    t.Amount.StringFixed(2),
			Timestamp: journal.FormatTimestamp(t.Timestamp),
		}
	}
	return jsonAccount{
		FirstName:          acct.Owner.FirstName,
		LastName:           acct.Owner.LastName,
		Email:              acct.Owner.Email,
		AccountNumber:      acct.Number,
		AccountType:        string(acct.Type),
		OpeningBalance:     acct.OpeningBalance.StringFixed(2),
		Balance:            acct.Balance().StringFixed(2),
		PasswordHash:       acct.PasswordHash,
		TransactionHistory: history,
	}
}

func decodeAccount(username string, ja jsonAccount) (*model.Account, error) {
	if username == "" {
		return nil, errors.New("empty username")
	}
	accountType, err := model.ParseAccountType(ja.AccountType)
	if err != nil {
		return nil, err
	}
	opening, err := decimal.NewFromString(ja.OpeningBalance)
	if err != nil {
		return nil, fmt.Errorf("parsing opening_balance %q: %w", ja.OpeningBalance, err)
	}
	balance, err := decimal.NewFromString(ja.Balance)
	if err != nil {
		return nil, fmt.Errorf("parsing balance %q: %w", ja.Balance, err)
	}

	owner := model.Owner{FirstName: ja.FirstName, LastName: ja.LastName, Email: ja.Email}
	acct, err := model.NewAccount(ja.AccountNumber, username, owner, accountType, opening)
	if err != nil {
		return nil, err
	}
	acct.PasswordHash = ja.PasswordHash

	txns := make([]model.Transaction, len(ja.TransactionHistory))
	for i, jt := range ja.TransactionHistory {
		kind, err := model.ParseTransactionKind(jt.Type)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		amount, err := decimal.NewFromString(jt.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: parsing amount %q: %w", i+1, jt.Amount, err)
		}
		ts, err := journal.ParseTimestamp(jt.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		txns[i] = model.NewTransaction(kind, amount, ts)
	}

	if err := journal.Join(journal.Replay(acct, txns, balance)); err != nil {
		return nil, err
	}
	return acct, nil
}
