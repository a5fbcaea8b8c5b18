package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ChaseParser parses Chase checking CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV. The header row is skipped without checking its
// labels, which Chase has changed between exports.
func (p *ChaseParser) Parse(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := parseRow(i+2, rec[chaseColDate], chaseDateFormat, rec[chaseColDesc], rec[chaseColAmount])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseRow(row int, rawDate, layout, desc, rawAmount string) (Entry, error) {
	date, err := time.Parse(layout, rawDate)
	if err != nil {
		return Entry{}, fmt.Errorf("row %d: parsing date %q: %w", row, rawDate, err)
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return Entry{}, fmt.Errorf("row %d: parsing amount %q: %w", row, rawAmount, err)
	}

	return Entry{Row: row, Date: date, Description: desc, Amount: amount}, nil
}
