package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/errs"
	"github.com/cleared-dev/teller/internal/model"
)

// Header is the CSV header for accounts.csv.
const Header = "account_number,username,first_name,last_name,email,account_type,opening_balance,balance,password_hash"

// FileName is the name accounts.csv is stored under.
const FileName = "accounts.csv"

const (
	numFields   = 9
	colNumber   = 0
	colUsername = 1
	colFirst    = 2
	colLast     = 3
	colEmail    = 4
	colType     = 5
	colOpening  = 6
	colBalance  = 7
	colPassword = 8
)

// Stored is an account header as read from disk, before its history is
// replayed. Balance is the value recorded in the file.
type Stored struct {
	Account *model.Account
	Balance decimal.Decimal
}

// ReadAccounts reads accounts.csv. The header must match Header exactly.
func ReadAccounts(r io.Reader) ([]Stored, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Corrupt(FileName, 1, "", err)
	}
	if want := strings.Split(Header, ","); !slices.Equal(header, want) {
		return nil, fmt.Errorf("%w: %s header %q, want %q", errs.ErrSchemaMismatch, FileName, strings.Join(header, ","), Header)
	}

	var stored []Stored
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Corrupt(FileName, row, "", err)
		}
		s, err := UnmarshalAccount(rec)
		if err != nil {
			key := ""
			if len(rec) > colUsername {
				key = rec[colUsername]
			}
			return nil, errs.Corrupt(FileName, row, key, err)
		}
		stored = append(stored, s)
	}
	return stored, nil
}

// WriteAccounts writes accounts.csv including the header.
func WriteAccounts(w io.Writer, accounts []*model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct *model.Account) []string {
	row := make([]string, numFields)
	row[colNumber] = acct.Number
	row[colUsername] = acct.Username
	row[colFirst] = acct.Owner.FirstName
	row[colLast] = acct.Owner.LastName
	row[colEmail] = acct.Owner.Email
	row[colType] = string(acct.Type)
	row[colOpening] = acct.OpeningBalance.StringFixed(2)
	row[colBalance] = acct.Balance().StringFixed(2)
	row[colPassword] = acct.PasswordHash
	return row
}

// UnmarshalAccount converts a CSV row to an account without history.
func UnmarshalAccount(record []string) (Stored, error) {
	if len(record) != numFields {
		return Stored{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colUsername] == "" {
		return Stored{}, errors.New("empty username")
	}

	accountType, err := model.ParseAccountType(record[colType])
	if err != nil {
		return Stored{}, err
	}

	opening, err := decimal.NewFromString(record[colOpening])
	if err != nil {
		return Stored{}, fmt.Errorf("parsing opening_balance %q: %w", record[colOpening], err)
	}

	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return Stored{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	owner := model.Owner{
		FirstName: record[colFirst],
		LastName:  record[colLast],
		Email:     record[colEmail],
	}
	acct, err := model.NewAccount(record[colNumber], record[colUsername], owner, accountType, opening)
	if err != nil {
		return Stored{}, err
	}
	acct.PasswordHash = record[colPassword]

	return Stored{Account: acct, Balance: balance}, nil
}
