// Package session holds the client-local key/value state of a dashboard
// user: the API token, the cached user record and UI-only preferences.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"docdash/internal/model"
)

// Keys of the local store.
const (
	KeyAuthToken = "auth_token"
	KeyUser      = "user"
	KeySettings  = "settings"
	KeyProfile   = "profile"
	KeyToast     = "toast"
)

var (
	// ErrNoSession means the token or the user is missing.
	ErrNoSession = errors.New("not logged in")
	// ErrCorruptSession means the stored user could not be decoded. Both
	// keys have been cleared by the time it is returned.
	ErrCorruptSession = errors.New("stored session is corrupt")
)

// Store is a string key/value store scoped to one client.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Session is an authenticated client.
type Session struct {
	Token string
	User  model.User
}

// Bootstrap reads the token and user from s.
func Bootstrap(s Store) (*Session, error) {
	token, ok, err := s.Get(KeyAuthToken)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, ErrNoSession
	}

	raw, ok, err := s.Get(KeyUser)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, ErrNoSession
	}

	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		if clearErr := Clear(s); clearErr != nil {
			return nil, errors.Join(ErrCorruptSession, clearErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return &Session{Token: token, User: u}, nil
}

// Save stores the credentials returned by a login or registration.
func Save(s Store, token string, u model.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.Set(KeyAuthToken, token); err != nil {
		return err
	}
	return s.Set(KeyUser, string(b))
}

// Clear forgets the credentials. Settings and profile are kept.
func Clear(s Store) error {
	return errors.Join(s.Delete(KeyAuthToken), s.Delete(KeyUser))
}

// GetJSON decodes the value under key into v. It reports false when the key
// is absent.
func GetJSON(s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v encoded as JSON under key.
func SetJSON(s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, string(b))
}
