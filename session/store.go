// Package session persists the cookies captured from a manually verified
// browser session so that automated runs can start pre-authenticated.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Token is a single browser cookie. Expires is unix seconds, -1 for a
// session cookie.
type Token struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Save overwrites the token file with the full token set.
func (s *Store) Save(tokens []Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	// Cookies are credentials.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	return nil
}

// Load returns found=false with a nil error when nothing has been saved yet.
// Expired tokens are returned as-is.
func (s *Store) Load() ([]Token, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read tokens: %w", err)
	}

	var tokens []Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, false, fmt.Errorf("decode tokens %s: %w", s.path, err)
	}
	return tokens, true, nil
}
