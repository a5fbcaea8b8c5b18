package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/errs"
	"github.com/cleared-dev/teller/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "username,seq,type,amount,timestamp"

// FileName is the name transactions.csv is stored under.
const FileName = "transactions.csv"

// TimestampFormat is used for every persisted transaction timestamp.
const TimestampFormat = time.RFC3339Nano

const (
	numFields    = 5
	colUsername  = 0
	colSeq       = 1
	colKind      = 2
	colAmount    = 3
	colTimestamp = 4
)

// Row is one line of transactions.csv. Seq numbers each account's entries
// from 1 in insertion order.
type Row struct {
	Username    string
	Seq         int
	Transaction model.Transaction
}

// ReadRows reads all rows from a transactions.csv reader.
func ReadRows(r io.Reader) ([]Row, error) {
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

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Corrupt(FileName, line, "", err)
		}
		row, err := UnmarshalRow(rec)
		if err != nil {
			key := ""
			if len(rec) > colUsername {
				key = rec[colUsername]
			}
			return nil, errs.Corrupt(FileName, line, key, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows to a transactions.csv writer (including header).
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RowsFor numbers an account's ledger as transactions.csv rows.
func RowsFor(acct *model.Account) []Row {
	ledger := acct.Ledger()
	rows := make([]Row, len(ledger))
	for i, t := range ledger {
		rows[i] = Row{Username: acct.Username, Seq: i + 1, Transaction: t}
	}
	return rows
}

// MarshalRow converts a Row to a CSV row ([]string).
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colUsername] = row.Username
	rec[colSeq] = strconv.Itoa(row.Seq)
	rec[colKind] = string(row.Transaction.Kind)
	rec[colAmount] = row.Transaction.Amount.StringFixed(2)
	rec[colTimestamp] = FormatTimestamp(row.Transaction.Timestamp)
	return rec
}

// UnmarshalRow converts a CSV row to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	seq, err := strconv.Atoi(record[colSeq])
	if err != nil {
		return Row{}, fmt.Errorf("parsing seq %q: %w", record[colSeq], err)
	}

	kind, err := model.ParseTransactionKind(record[colKind])
	if err != nil {
		return Row{}, err
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	ts, err := ParseTimestamp(record[colTimestamp])
	if err != nil {
		return Row{}, err
	}

	return Row{
		Username:    record[colUsername],
		Seq:         seq,
		Transaction: model.NewTransaction(kind, amount, ts),
	}, nil
}

// FormatTimestamp renders t in UTC so output is stable across time zones.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(TimestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}
