package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Store persists the bearer token between runs. The token is the only
// client state that survives a restart.
type Store interface {
	Read() (string, error)
	Write(token string) error
	Clear() error
}

// FileStore keeps the token in a single file under the user config dir.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read returns the stored token, or "" when none is stored.
func (s *FileStore) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Write stores the token, creating parent directories as needed. The file
// is user-readable only.
func (s *FileStore) Write(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore is an in-process Store used by tests.
type MemoryStore struct {
	token string
}

func (s *MemoryStore) Read() (string, error) { return s.token, nil }

func (s *MemoryStore) Write(token string) error {
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.token = ""
	return nil
}
