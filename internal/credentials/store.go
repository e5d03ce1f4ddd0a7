// Package credentials persists GitHub tokens keyed by user login. Values
// are stored as opaque strings; encryption at rest is handled outside this
// server.
package credentials

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no token is stored for a login.
var ErrNotFound = errors.New("credentials: token not found")

const schema = `
CREATE TABLE IF NOT EXISTS github_tokens (
	login      TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create credentials dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init credentials schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores or replaces the token for a login.
func (s *Store) Put(login, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO github_tokens (login, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(login) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at
	`, login, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Get returns the stored token for a login.
func (s *Store) Get(login string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var token string
	err := s.db.QueryRow("SELECT token FROM github_tokens WHERE login = ?", login).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// Delete removes the token for a login. Deleting an absent login is not
// an error.
func (s *Store) Delete(login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM github_tokens WHERE login = ?", login); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
