package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileCredentialStore stores the gateway password in a local file, for
// workstation submissions that have no Secrets Manager access.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore creates a new FileCredentialStore that reads and
// writes the given path.
func NewFileCredentialStore(path string) (*FileCredentialStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credential file path is required")
	}
	return &FileCredentialStore{path: path}, nil
}

// Password returns the gateway password from the file.
func (s *FileCredentialStore) Password(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("credential file not found: %s", s.path)
		}
		return "", fmt.Errorf("reading credential file: %w", err)
	}

	password := strings.TrimSpace(string(data))
	if password == "" {
		return "", fmt.Errorf("credential file is empty: %s", s.path)
	}

	return password, nil
}

// SavePassword saves the gateway password to the file.
func (s *FileCredentialStore) SavePassword(_ context.Context, password string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}

	if err := os.WriteFile(s.path, []byte(password+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}

	return nil
}
