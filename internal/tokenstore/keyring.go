package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

// KeyringStore persists the token record in OS-native secure credential
// storage. Uses macOS Keychain, Windows Credential Manager, or Linux
// Secret Service. The record is stored as a JSON blob.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements TokenStore
var _ TokenStore = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore using the given service and user
// identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Load returns the stored record. A missing entry or undecodable blob
// yields (nil, nil).
func (k *KeyringStore) Load(ctx context.Context) (*TokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := keyring.Get(k.service, k.user)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.WarnContext(ctx, "failed to read token from keyring", "service", k.service, "error", err)
		}
		return nil, nil
	}

	var record TokenRecord
	if err := json.Unmarshal([]byte(blob), &record); err != nil {
		slog.WarnContext(ctx, "discarding corrupt keyring token entry", "service", k.service)
		return nil, nil
	}
	if record.AccessToken == "" && record.RefreshToken == "" {
		return nil, nil
	}
	return &record, nil
}

// Save persists the record to the system keyring, overwriting any existing
// entry.
func (k *KeyringStore) Save(ctx context.Context, record *TokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, string(data))
}
