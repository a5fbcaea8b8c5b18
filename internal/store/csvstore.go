package store

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/errs"
	"github.com/cleared-dev/teller/internal/journal"
	"github.com/cleared-dev/teller/internal/model"
)

// CSVStore keeps accounts.csv and transactions.csv in a directory.
type CSVStore struct {
	dir string
}

// NewCSVStore creates a CSVStore rooted at dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

// Load reads both files. A missing accounts.csv means an empty set; a
// missing transactions.csv means no account has history.
func (s *CSVStore) Load() (*accounts.Set, error) {
	stored, err := readFile(filepath.Join(s.dir, accounts.FileName), accounts.ReadAccounts)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	set := accounts.NewSet()
	for i, st := range stored {
		if !set.Add(st.Account) {
			return nil, errs.Corrupt(accounts.FileName, i+2, st.Account.Username, errors.New("duplicate username"))
		}
	}

	rows, err := readFile(filepath.Join(s.dir, journal.FileName), journal.ReadRows)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	if err := journal.Join(journal.ValidateRows(rows, set)); err != nil {
		return nil, errs.Corrupt(journal.FileName, 0, "", err)
	}

	history := make(map[string][]journal.Row)
	for _, row := range rows {
		history[row.Username] = append(history[row.Username], row)
	}

	for _, st := range stored {
		userRows := history[st.Account.Username]
		slices.SortFunc(userRows, func(a, b journal.Row) int { return cmp.Compare(a.Seq, b.Seq) })
		txns := make([]model.Transaction, len(userRows))
		for i, r := range userRows {
			txns[i] = r.Transaction
		}
		if err := journal.Join(journal.Replay(st.Account, txns, st.Balance)); err != nil {
			return nil, errs.Corrupt(journal.FileName, 0, st.Account.Username, err)
		}
	}
	return set, nil
}

// Save rewrites both files from set. Neither file is replaced unless both
// were written in full.
func (s *CSVStore) Save(set *accounts.Set) error {
	all := set.All()

	var rows []journal.Row
	for _, acct := range all {
		rows = append(rows, journal.RowsFor(acct)...)
	}

	err := writeFilesAtomic(
		stagedWrite{
			path:  filepath.Join(s.dir, journal.FileName),
			write: func(w io.Writer) error { return journal.WriteRows(w, rows) },
		},
		stagedWrite{
			path:  filepath.Join(s.dir, accounts.FileName),
			write: func(w io.Writer) error { return accounts.WriteAccounts(w, all) },
		},
	)
	if err != nil {
		return fmt.Errorf("saving accounts: %w", err)
	}
	return nil
}

// readFile opens path and decodes it with read. A missing file yields the
// zero value.
func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return read(f)
}
