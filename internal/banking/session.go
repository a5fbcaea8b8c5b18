package banking

import (
	"time"

	"github.com/google/uuid"
)

// Session is the logged-in user, passed explicitly to every operation.
type Session struct {
	ID       uuid.UUID
	Username string
	Started  time.Time
}

// Valid reports whether s came from Login.
func (s Session) Valid() bool {
	return s.ID != uuid.Nil && s.Username != ""
}
