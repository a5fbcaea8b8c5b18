package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
)

// StatementHeader is the header of the plain statement format.
var StatementHeader = []string{"date", "description", "amount"}

const statementDateFormat = "2006-01-02"

// StatementParser reads the plain date,description,amount format with
// ISO dates.
type StatementParser struct{}

// Format returns the parser name.
func (p *StatementParser) Format() string { return "teller" }

// Parse reads a statement. The header must match StatementHeader.
func (p *StatementParser) Parse(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(StatementHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if !slices.Equal(records[0], StatementHeader) {
		return nil, fmt.Errorf("unexpected statement header %v", records[0])
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := parseRow(i+2, rec[0], statementDateFormat, rec[1], rec[2])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
