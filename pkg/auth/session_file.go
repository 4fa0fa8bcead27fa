package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/forptiter/study-assistant/pkg/types"
)

// SaveSessionFile writes the signed in user with owner-only permissions.
func SaveSessionFile(path string, user types.User) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// LoadSessionFile returns nil without error when no session was saved.
func LoadSessionFile(path string) (*types.User, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var user types.User
	if err = json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func RemoveSessionFile(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
