// Package credential persists the session in the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/teamkonekt/konekt/internal/model"
)

const serviceName = "konekt"

// Keys of the three persisted session values.
const (
	KeyToken    = "auth-token"
	KeyUserType = "user-type"
	KeyCompany  = "company-name"
)

var sessionKeys = []string{KeyToken, KeyUserType, KeyCompany}

// Store reads and writes the session in a keyring.
type Store struct {
	ring keyring.Keyring
}

// Open opens the system keyring, falling back to an encrypted file under
// dir/credentials when no OS backend is available.
func Open(dir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("konekt-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get retrieves a value by key. A missing key yields "" and no error.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a value by key.
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "TeamKonekt " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a value by key. Removing a missing key is not an error.
func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Load reads the persisted session. Without a stored token the zero
// Session is returned.
func (s *Store) Load() (model.Session, error) {
	token, err := s.Get(KeyToken)
	if err != nil || token == "" {
		return model.Session{}, err
	}
	userType, err := s.Get(KeyUserType)
	if err != nil {
		return model.Session{}, err
	}
	company, err := s.Get(KeyCompany)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{
		Token:            token,
		Role:             model.ParseRole(userType),
		OrganizationName: company,
	}, nil
}

// Save writes all three session values.
func (s *Store) Save(sess model.Session) error {
	values := map[string]string{
		KeyToken:    sess.Token,
		KeyUserType: string(sess.Role),
		KeyCompany:  sess.OrganizationName,
	}
	for _, key := range sessionKeys {
		if err := s.Set(key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes all three session values, attempting every key even when
// one fails.
func (s *Store) Clear() error {
	var errs []error
	for _, key := range sessionKeys {
		if err := s.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
