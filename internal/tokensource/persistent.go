package tokensource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/hakimremit/boagate/internal/tokenstore"
)

// Factory creates an oauth2.TokenSource seeded from a stored token record.
// The record is nil when no usable record exists in durable storage.
type Factory func(initial *tokenstore.TokenRecord) oauth2.TokenSource

// PersistentTokenSource wraps an oauth2.TokenSource with durable token
// persistence. The stored record seeds the in-memory cache on first use, so
// a still-valid access token survives process restarts without a redundant
// exchange, and every rotated refresh token is written back before it can
// be lost.
//
// Initialization is deferred to avoid I/O during application startup.
type PersistentTokenSource struct {
	factory Factory
	store   tokenstore.TokenStore

	tokenSource func() (oauth2.TokenSource, error)

	last    atomic.Pointer[tokenstore.TokenRecord]
	writeMu sync.Mutex
}

// Compile-time check to ensure PersistentTokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*PersistentTokenSource)(nil)

// NewPersistentTokenSource creates a PersistentTokenSource.
// No I/O is performed until the first Token call.
func NewPersistentTokenSource(factory Factory, store tokenstore.TokenStore) (*PersistentTokenSource, error) {
	if factory == nil {
		return nil, fmt.Errorf("missing token source factory")
	}
	if store == nil {
		return nil, fmt.Errorf("missing token store")
	}

	p := &PersistentTokenSource{
		factory: factory,
		store:   store,
	}

	p.tokenSource = sync.OnceValues(p.createTokenSource)

	return p, nil
}

// createTokenSource performs one-time initialization of the TokenSource.
func (p *PersistentTokenSource) createTokenSource() (oauth2.TokenSource, error) {
	// oauth2.TokenSource.Token() has no context parameter (legacy interface
	// limitation), so the initial read uses a background context.
	ctx := context.Background()

	initial, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored token: %w", err)
	}

	// Remember the initial record to avoid an unnecessary write-back on the
	// first Token() call when the stored access token is still valid.
	if initial != nil {
		p.last.Store(initial)
	}

	return p.factory(initial), nil
}

// Token returns a valid access token, refreshing if necessary and persisting
// any change to the token record. Persistence failure is logged and does not
// fail the call: the in-memory token still serves requests, and the write is
// retried on the next change-detecting call.
func (p *PersistentTokenSource) Token() (*oauth2.Token, error) {
	ts, err := p.tokenSource()
	if err != nil {
		return nil, err
	}

	freshToken, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("getting token from token source: %w", err)
	}

	record := &tokenstore.TokenRecord{
		AccessToken:  freshToken.AccessToken,
		RefreshToken: freshToken.RefreshToken,
		ExpiresAt:    freshToken.Expiry.Unix(),
	}

	// Hot path: lock-free atomic read for minimal contention
	last := p.last.Load()
	if last == nil || *last != *record {
		p.writeMu.Lock()
		// Note: oauth2.TokenSource interface has no context parameter
		ctx := context.Background()
		if err := p.store.Save(ctx, record); err != nil {
			// Token values are deliberately absent from this message.
			slog.ErrorContext(ctx, "failed to persist token record", "error", err)
		} else {
			// Update cached record only on success - allows retry on next call
			p.last.Store(record)
		}
		p.writeMu.Unlock()
	}

	return freshToken, nil
}
