// Package credential stores the API bearer token in the operating
// system's keyring, with an encrypted file under the config directory as
// the fallback backend for headless machines.
package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "stagekeeper"
	tokenKey    = "api-token"
)

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/stagekeeper/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("stagekeeper-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Token returns the stored API bearer token.
func Token() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey)
	if err != nil {
		return "", fmt.Errorf("reading stored token: %w", err)
	}
	return string(item.Data), nil
}

// StoreToken saves the API bearer token, replacing any previous one.
func StoreToken(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{
		Key:   tokenKey,
		Label: "stagekeeper API token",
		Data:  []byte(token),
	}); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// DeleteToken removes the stored token, signing this machine out.
func DeleteToken() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(tokenKey); err != nil {
		return fmt.Errorf("deleting stored token: %w", err)
	}
	return nil
}
