package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const slotFile = "token"

// Store persists the session token in a single named slot, the process-side
// equivalent of one browser localStorage key. It performs no validation and
// knows nothing about the token's format or expiry: the token is created on
// login, presented until the server rejects it, and removed only by an
// explicit logout.
type Store struct {
	fs  afero.Fs
	dir string
}

// New creates a store rooted at dir. Pass afero.NewOsFs() for real
// persistence or an in-memory fs in tests.
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Get returns the stored token. Absence (missing slot, unreadable medium)
// is a normal state, not an error: callers treat it as "not signed in".
func (s *Store) Get() (string, bool) {
	data, err := afero.ReadFile(s.fs, s.path())
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}
	return token, true
}

// Set writes the token to the slot. The write goes to a temp file first,
// then renames over the slot so a crash cannot leave a half-written token.
func (s *Store) Set(token string) error {
	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := s.path() + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path()); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace token slot: %w", err)
	}
	return nil
}

// Clear deletes the slot. Clearing an already-empty slot is not an error.
func (s *Store) Clear() error {
	if err := s.fs.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear token slot: %w", err)
	}
	return nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, slotFile)
}
