package model

import "errors"

var (
	// ErrInvalidAmount is returned for non-positive amounts or amounts with
	// more than two decimal places.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	// The account is left unchanged.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidKind        = errors.New("invalid transaction kind")
)
