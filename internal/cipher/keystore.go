package cipher

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// KeyStore persists the process-wide encryption key. Load returns a nil key
// (and nil error) when no key has been saved yet.
type KeyStore interface {
	Load() ([]byte, error)
	Save(key []byte) error
}

// FileKeyStore stores the key in a single file with owner-only permissions.
type FileKeyStore struct {
	path   string
	logger *zap.Logger
}

// NewFileKeyStore creates a key store backed by the given file path.
func NewFileKeyStore(path string, logger *zap.Logger) *FileKeyStore {
	return &FileKeyStore{path: path, logger: logger}
}

// Load reads the persisted key. An absent file is not an error.
func (s *FileKeyStore) Load() ([]byte, error) {
	key, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: read %s: %w", s.path, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("keystore: %s holds %d bytes, want %d", s.path, len(key), KeySize)
	}
	return key, nil
}

// Save writes the key with 0600 permissions, creating parent directories.
func (s *FileKeyStore) Save(key []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("keystore: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, key, 0600); err != nil {
		return fmt.Errorf("keystore: write %s: %w", s.path, err)
	}
	s.logger.Info("Encryption key persisted", zap.String("path", s.path))
	return nil
}

// LoadOrCreate returns the persisted key, generating and saving a fresh
// random one on first-ever startup. Rotating the key invalidates recovery of
// logs produced under the previous key.
func LoadOrCreate(store KeyStore) ([]byte, error) {
	key, err := store.Load()
	if err != nil {
		return nil, err
	}
	if key != nil {
		return key, nil
	}

	key = make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("keystore: generate key: %w", err)
	}
	if err := store.Save(key); err != nil {
		return nil, err
	}
	return key, nil
}
