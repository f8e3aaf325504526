// Package secret keeps API credentials in a YAML file readable only by the
// current user.
package secret

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileName is the credential file inside the secrets directory.
const FileName = "credentials.yaml"

var (
	// ErrNotFound means no value is stored under the requested name.
	ErrNotFound = errors.New("secret not found")

	// ErrEmptyValue means Set was called with an empty value.
	ErrEmptyValue = errors.New("secret value must not be empty")
)

// Store reads and writes named secrets.
type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// APIKeyName is the secret name holding the API key of provider.
func APIKeyName(provider string) string {
	return provider + "_api_key"
}

type credentials struct {
	Secrets map[string]string `yaml:"secrets"`
}

// FileStore is a Store backed by <dir>/credentials.yaml, written with mode 0600.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore under dir. Nothing is created until the
// first Set.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

// Path returns the credential file path.
func (s *FileStore) Path() string { return s.path }

// Get returns the value stored under name or ErrNotFound.
func (s *FileStore) Get(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := creds.Secrets[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return v, nil
}

// Set stores value under name, replacing any previous value.
func (s *FileStore) Set(name, value string) error {
	if value == "" {
		return ErrEmptyValue
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.load()
	if err != nil {
		return err
	}
	creds.Secrets[name] = value
	return s.save(creds)
}

// Delete removes name. Deleting a missing secret is not an error.
func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := creds.Secrets[name]; !ok {
		return nil
	}
	delete(creds.Secrets, name)
	return s.save(creds)
}

func (s *FileStore) load() (*credentials, error) {
	creds := &credentials{}
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("secret: reading %s: %w", s.path, err)
	default:
		if err := yaml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("secret: parsing %s: %w", s.path, err)
		}
	}
	if creds.Secrets == nil {
		creds.Secrets = make(map[string]string)
	}
	return creds, nil
}

func (s *FileStore) save(creds *credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("secret: encoding credentials: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("secret: creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*.yaml")
	if err != nil {
		return fmt.Errorf("secret: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("secret: chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("secret: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("secret: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("secret: replacing %s: %w", s.path, err)
	}
	return nil
}
