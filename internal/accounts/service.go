package accounts

import (
	"maps"
	"slices"
	"strings"

	"github.com/cleared-dev/teller/internal/model"
)

// Set is the in-memory collection of accounts keyed by username.
type Set struct {
	byUsername map[string]*model.Account
	byNumber   map[string]*model.Account
}

// NewSet creates a Set. Later accounts with an already-seen username are
// dropped.
func NewSet(accounts ...*model.Account) *Set {
	s := &Set{
		byUsername: make(map[string]*model.Account, len(accounts)),
		byNumber:   make(map[string]*model.Account, len(accounts)),
	}
	for _, a := range accounts {
		s.Add(a)
	}
	return s
}

// Add registers an account. It returns false, leaving the set unchanged,
// when the username is already taken.
func (s *Set) Add(a *model.Account) bool {
	if _, ok := s.byUsername[a.Username]; ok {
		return false
	}
	s.byUsername[a.Username] = a
	// On a number collision the first account keeps the number index.
	if _, taken := s.byNumber[a.Number]; a.Number != "" && !taken {
		s.byNumber[a.Number] = a
	}
	return true
}

// Remove unregisters a username. It is used to roll back an Add whose
// save failed.
func (s *Set) Remove(username string) {
	a, ok := s.byUsername[username]
	if !ok {
		return
	}
	delete(s.byUsername, username)
	if s.byNumber[a.Number] == a {
		delete(s.byNumber, a.Number)
	}
}

// Get returns the account for a username.
func (s *Set) Get(username string) (*model.Account, bool) {
	a, ok := s.byUsername[username]
	return a, ok
}

// Lookup resolves a username or, failing that, an account number.
func (s *Set) Lookup(key string) (*model.Account, bool) {
	key = strings.TrimSpace(key)
	if a, ok := s.byUsername[key]; ok {
		return a, true
	}
	a, ok := s.byNumber[key]
	return a, ok
}

// Exists reports whether a username is registered.
func (s *Set) Exists(username string) bool {
	_, ok := s.byUsername[username]
	return ok
}

// Len returns the number of accounts.
func (s *Set) Len() int {
	return len(s.byUsername)
}

// All returns every account ordered by username.
func (s *Set) All() []*model.Account {
	names := slices.Sorted(maps.Keys(s.byUsername))
	out := make([]*model.Account, len(names))
	for i, n := range names {
		out[i] = s.byUsername[n]
	}
	return out
}

// ByType returns all accounts of the given type, ordered by username.
func (s *Set) ByType(accountType model.AccountType) []*model.Account {
	var result []*model.Account
	for _, a := range s.All() {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}
