package tokenstore

import (
	"context"
	"time"
)

// ValiditySkew is subtracted from a record's expiry when judging validity.
// Guards against clock drift and requests already in flight when the token
// crosses its expiry.
const ValiditySkew = 30 * time.Second

// TokenRecord is the persisted OAuth2 token state for the Bank.
// ExpiresAt is a unix timestamp computed from the server-reported expires_in
// at the moment of issuance.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Valid reports whether the record still carries a usable access token at
// the given time, applying ValiditySkew.
func (r *TokenRecord) Valid(now time.Time) bool {
	if r == nil || r.AccessToken == "" {
		return false
	}
	return now.Before(time.Unix(r.ExpiresAt, 0).Add(-ValiditySkew))
}

// TokenStore reads and writes the token record to persistent storage.
type TokenStore interface {
	// Load returns the stored record, or (nil, nil) when no usable record
	// exists (missing or corrupt data is not an error).
	Load(ctx context.Context) (*TokenRecord, error)

	// Save persists the record, overwriting any previous one.
	Save(ctx context.Context, record *TokenRecord) error
}
