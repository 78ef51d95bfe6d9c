package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/itemdeck/itemdeck/internal/vault"
)

const credFileName = "credentials.json"

// CredentialStore persists session credentials between runs.
type CredentialStore interface {
	// Load returns the stored credentials; ok is false when none exist.
	Load() (creds Credentials, ok bool, err error)
	Save(creds Credentials) error
	Clear() error
}

// FileCredentialStore keeps credentials in ~/.itemdeck/credentials.json.
// The ITEMDECK_TOKEN environment variable overrides the file (read-only, for
// scripted use). When ITEMDECK_CRED_KEY holds a 32-byte key, the file content
// is AES-GCM encrypted at rest.
type FileCredentialStore struct {
	// Dir overrides the default ~/.itemdeck location (used by tests).
	Dir string
}

func (s *FileCredentialStore) path() (string, error) {
	dir := s.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home: %w", err)
		}
		dir = filepath.Join(home, ".itemdeck")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

func (s *FileCredentialStore) Load() (Credentials, bool, error) {
	if env := strings.TrimSpace(os.Getenv("ITEMDECK_TOKEN")); env != "" {
		return Credentials{Token: env}, true, nil
	}

	p, err := s.path()
	if err != nil {
		return Credentials{}, false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, false, nil // not logged in
		}
		return Credentials{}, false, fmt.Errorf("read credentials: %w", err)
	}

	if key := credKey(); key != nil {
		plain, err := vault.Decrypt(strings.TrimSpace(string(b)), key)
		if err != nil {
			return Credentials{}, false, fmt.Errorf("decrypt credentials: %w", err)
		}
		b = []byte(plain)
	}

	var creds Credentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return Credentials{}, false, fmt.Errorf("parse credentials: %w", err)
	}
	return creds, creds.Token != "", nil
}

func (s *FileCredentialStore) Save(creds Credentials) error {
	p, err := s.path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if key := credKey(); key != nil {
		enc, err := vault.Encrypt(string(b), key)
		if err != nil {
			return fmt.Errorf("encrypt credentials: %w", err)
		}
		b = []byte(enc)
	}
	if err := os.WriteFile(p, b, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) Clear() error {
	p, err := s.path()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func credKey() []byte {
	key := os.Getenv("ITEMDECK_CRED_KEY")
	if len(key) != 32 {
		return nil
	}
	return []byte(key)
}

// MemCredentialStore is an in-memory CredentialStore for tests and
// short-lived programs.
type MemCredentialStore struct {
	creds Credentials
	set   bool
}

func (s *MemCredentialStore) Load() (Credentials, bool, error) { return s.creds, s.set, nil }

func (s *MemCredentialStore) Save(creds Credentials) error {
	s.creds = creds
	s.set = true
	return nil
}

func (s *MemCredentialStore) Clear() error {
	s.creds = Credentials{}
	s.set = false
	return nil
}
