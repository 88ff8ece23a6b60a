package store

import (
	"database/sql"
	"errors"
	"time"

	"stockwatch/internal/models"
)

var (
	// ErrNotFound is returned when an item is missing so HTTP handlers can respond with 404.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicate is returned when an item name is already taken.
	ErrDuplicate = errors.New("item already exists")
)

// Store runs the parameterised queries against the inventory database.
type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

// New returns a Store using the wall clock.
func New(conn *sql.DB) *Store {
	return &Store{DB: conn, Now: time.Now}
}

func (s *Store) now() string {
	if s.Now == nil {
		return time.Now().Format(models.TimeLayout)
	}
	return s.Now().Format(models.TimeLayout)
}
