package id

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

const (
	// AccountNumberDigits is the fixed width of an account number.
	AccountNumberDigits = 8
	minAccountNumber    = 10_000_000
	maxAccountNumber    = 99_999_999
)

// Source produces random integers in [0, n).
type Source interface {
	IntN(n int) int
}

// Generator hands out account numbers. Collisions are not checked.
type Generator struct {
	src Source
}

// NewGenerator returns a Generator backed by src, or by the global
// math/rand/v2 source when src is nil.
func NewGenerator(src Source) *Generator {
	return &Generator{src: src}
}

// AccountNumber returns a random 8-digit account number like "48213957".
func (g *Generator) AccountNumber() string {
	span := maxAccountNumber - minAccountNumber + 1
	var n int
	if g == nil || g.src == nil {
		n = rand.IntN(span)
	} else {
		n = g.src.IntN(span)
	}
	return FormatAccountNumber(minAccountNumber + n)
}

// FormatAccountNumber renders n as an account number.
func FormatAccountNumber(n int) string {
	return fmt.Sprintf("%0*d", AccountNumberDigits, n)
}

// ParseAccountNumber validates an account number and returns its value.
func ParseAccountNumber(s string) (int, error) {
	if len(s) != AccountNumberDigits {
		return 0, fmt.Errorf("invalid account number %q: want %d digits", s, AccountNumberDigits)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid account number %q: non-digit %q", s, r)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid account number %q: %w", s, err)
	}
	return n, nil
}
