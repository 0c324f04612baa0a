package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists credentials as a JSON file.
// The runtime is single-threaded per invocation, no locking is done.
type FileStore struct {
	path string

	token  string
	userID string
}

type fileDTO struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// NewFileStore creates a FileStore and loads existing credentials from path, if any.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var dto fileDTO
	if err := json.Unmarshal(b, &dto); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session file: %w", err)
	}

	s.token, s.userID = dto.AccessToken, dto.UserID

	return s, nil
}

// Token ...
func (s *FileStore) Token() string { return s.token }

// UserID ...
func (s *FileStore) UserID() string { return s.userID }

// Set persists the credential pair.
func (s *FileStore) Set(token, userID string) error {
	b, err := json.Marshal(fileDTO{AccessToken: token, UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	s.token, s.userID = token, userID

	return nil
}

// Clear wipes the stored credentials.
func (s *FileStore) Clear() error {
	s.token, s.userID = "", ""

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	token  string
	userID string
}

// Token ...
func (s *MemStore) Token() string { return s.token }

// UserID ...
func (s *MemStore) UserID() string { return s.userID }

// Set ...
func (s *MemStore) Set(token, userID string) error {
	s.token, s.userID = token, userID
	return nil
}

// Clear ...
func (s *MemStore) Clear() error {
	s.token, s.userID = "", ""
	return nil
}
