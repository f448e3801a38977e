package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "mywatt-cli"
)

// getKeyringKey returns a unique key for storing tokens per backend URL
func getKeyringKey(apiURL string) string {
	return fmt.Sprintf("token-%s", apiURL)
}

// SaveToken persists the access token securely in the OS keychain/credential manager
func SaveToken(apiURL, token string) error {
	key := getKeyringKey(apiURL)
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the access token from the OS keychain/credential manager
func LoadToken(apiURL string) (string, error) {
	key := getKeyringKey(apiURL)
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("not authenticated. Please run 'mywatt login' first")
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the access token from the OS keychain/credential manager
func DeleteToken(apiURL string) error {
	key := getKeyringKey(apiURL)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
