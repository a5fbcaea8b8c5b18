package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for malformed persisted state.
var (
	ErrCorruptRecord  = errors.New("corrupt record")
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// RecordError identifies the persisted entry that failed to load.
// It matches ErrCorruptRecord under errors.Is as well as its cause.
type RecordError struct {
	Source string // file name
	Row    int    // 1-based line, 0 when the source is not row-based
	Key    string // username, when known
	Err    error
}

func (e *RecordError) Error() string {
	var where []string
	if e.Source != "" {
		where = append(where, e.Source)
	}
	if e.Row > 0 {
		where = append(where, fmt.Sprintf("row %d", e.Row))
	}
	if e.Key != "" {
		where = append(where, fmt.Sprintf("user %q", e.Key))
	}
	return fmt.Sprintf("corrupt record [%s]: %v", strings.Join(where, " "), e.Err)
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrCorruptRecord, e.Err}
}

// Corrupt wraps err as a RecordError.
func Corrupt(source string, row int, key string, err error) error {
	return &RecordError{Source: source, Row: row, Key: key, Err: err}
}
