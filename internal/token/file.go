package token

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/campusport/portalgate/internal/identity"
)

// FileStore persists the session as two files in a directory, the local
// analog of a browser profile's storage area. The default driver.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed session store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) tokenPath() string {
	return filepath.Join(s.dir, KeyAuthToken)
}

func (s *FileStore) userDataPath() string {
	return filepath.Join(s.dir, KeyUserData)
}

// Save writes both files, overwriting any prior session
func (s *FileStore) Save(ctx context.Context, credential string, ident identity.Identity) error {
	data, err := ident.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize identity: %w", err)
	}
	if err := os.WriteFile(s.tokenPath(), []byte(credential), 0o600); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	if err := os.WriteFile(s.userDataPath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	return nil
}

// Load returns the persisted session. Missing or unreadable files and
// corrupt identity data all resolve to ("", nil) rather than an error.
func (s *FileStore) Load(ctx context.Context) (string, *identity.Identity) {
	credential, err := os.ReadFile(s.tokenPath())
	if err != nil {
		return "", nil
	}
	raw, err := os.ReadFile(s.userDataPath())
	if err != nil {
		return "", nil
	}
	return decodeUserData(string(credential), raw)
}

// Clear removes both files. Idempotent: missing files are not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.tokenPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	if err := os.Remove(s.userDataPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove identity: %w", err)
	}
	return nil
}
