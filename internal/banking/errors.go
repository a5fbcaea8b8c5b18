package banking

import (
	"errors"

	"github.com/cleared-dev/teller/internal/credentials"
	"github.com/cleared-dev/teller/internal/errs"
	"github.com/cleared-dev/teller/internal/model"
)

var (
	ErrDuplicateUser   = errors.New("user already exists")
	ErrUnknownUser     = errors.New("unknown user")
	ErrBadCredentials  = errors.New("invalid username or password")
	ErrEmptyUsername   = errors.New("username must not be empty")
	// ErrNumericUsername rejects usernames shaped like account numbers.
	ErrNumericUsername = errors.New("username must not be an account number")
)

// Outcome classifies err for audit rows and metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, model.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrDuplicateUser):
		return "duplicate_user"
	case errors.Is(err, ErrEmptyUsername), errors.Is(err, ErrNumericUsername):
		return "invalid_username"
	case errors.Is(err, ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, ErrBadCredentials):
		return "bad_credentials"
	case errors.Is(err, credentials.ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, errs.ErrCorruptRecord), errors.Is(err, errs.ErrSchemaMismatch):
		return "corrupt_store"
	}
	return "error"
}
