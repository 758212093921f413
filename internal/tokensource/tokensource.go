package tokensource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hakimremit/boagate/internal/tokenstore"
)

// exchangeTimeout bounds a single refresh-token exchange.
const exchangeTimeout = 30 * time.Second

// TokenSourceOption configures a TokenSource.
type TokenSourceOption func(*tokenSourceConfig)

// tokenSourceConfig holds configuration for NewTokenSource.
type tokenSourceConfig struct {
	baseTransport http.RoundTripper
}

// WithTransport sets a custom base transport for token exchange requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) TokenSourceOption {
	return func(c *tokenSourceConfig) {
		c.baseTransport = transport
	}
}

// NewTokenSource creates an oauth2.TokenSource for the Bank's token endpoint.
//
// initial seeds the in-memory cache: when it carries a still-valid access
// token (judged with tokenstore.ValiditySkew), no exchange is performed
// until that token approaches expiry. A rotated refresh token returned by
// the Bank replaces the seed for every subsequent exchange.
//
// The exchange uses its own short-lived HTTP client, decoupled from the
// pooled API client, since the token endpoint host/path may differ from the
// API base.
func NewTokenSource(creds Credentials, endpoint oauth2.Endpoint, initial *tokenstore.TokenRecord, opts ...TokenSourceOption) oauth2.TokenSource {
	cfg := &tokenSourceConfig{
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     endpoint,
	}

	// HTTP client with JSON transport for the Bank (wraps provided or default transport)
	httpClient := &http.Client{
		Timeout: exchangeTimeout,
		Transport: &jsonExchangeTransport{
			base: cfg.baseTransport,
		},
	}
	// oauth2 package injects custom HTTP clients via context (oauth2.HTTPClient key).
	// Since TokenSource.Token() has no context parameter, we store the context
	// at construction time per oauth2's documented API.
	oauthCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	refreshToken := creds.RefreshTokenSeed
	var seed *oauth2.Token
	if initial != nil {
		if initial.RefreshToken != "" {
			refreshToken = initial.RefreshToken
		}
		if initial.AccessToken != "" {
			seed = &oauth2.Token{
				AccessToken:  initial.AccessToken,
				RefreshToken: refreshToken,
				Expiry:       time.Unix(initial.ExpiresAt, 0),
			}
		}
	}

	exchanger := &refreshExchanger{
		conf:         oauth2Config,
		ctx:          oauthCtx,
		refreshToken: refreshToken,
	}

	// ReuseTokenSourceWithExpiry provides the in-memory cache, the validity
	// skew, and the single-flight guarantee: concurrent callers block on its
	// mutex and at most one reaches the exchanger.
	return oauth2.ReuseTokenSourceWithExpiry(seed, exchanger, tokenstore.ValiditySkew)
}

// refreshExchanger performs one refresh-token exchange per Token call,
// always using the most recently issued refresh token. It carries no access
// token cache of its own; caching lives in the reuse source wrapping it.
type refreshExchanger struct {
	conf *oauth2.Config
	ctx  context.Context

	mu           sync.Mutex
	refreshToken string
}

// Compile-time check that refreshExchanger implements oauth2.TokenSource.
var _ oauth2.TokenSource = (*refreshExchanger)(nil)

// Token exchanges the current refresh token for a fresh access token.
// A rotated refresh token in the response supersedes the current one.
func (r *refreshExchanger) Token() (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available for exchange")
	}

	// A fresh source per call ensures an actual exchange happens here rather
	// than the oauth2 package serving its own stale cache.
	tok, err := r.conf.TokenSource(r.ctx, &oauth2.Token{RefreshToken: r.refreshToken}).Token()
	if err != nil {
		return nil, err
	}

	if tok.RefreshToken != "" {
		r.refreshToken = tok.RefreshToken
	}
	return tok, nil
}

// jsonExchangeTransport converts oauth2's form-encoded token requests to the
// JSON format required by the Bank's token endpoint.
// The oauth2 package guarantees this transport only receives token endpoint requests.
type jsonExchangeTransport struct {
	base http.RoundTripper
}

// Compile-time check that jsonExchangeTransport implements http.RoundTripper.
var _ http.RoundTripper = (*jsonExchangeTransport)(nil)

// RoundTrip intercepts token exchange requests and converts them from
// form-encoded to JSON.
func (t *jsonExchangeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Defer close since we consume the body entirely and create a new body for
	// the cloned request.
	defer func() { _ = req.Body.Close() }()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	formData, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing form data: %w", err)
	}

	// Convert all form data to JSON format
	jsonData := make(map[string]string, len(formData))
	for key, values := range formData {
		jsonData[key] = values[0] // OAuth2 spec defines single-value parameters
	}

	jsonBody, err := json.Marshal(jsonData)
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON request: %w", err)
	}

	newReq := req.Clone(req.Context())
	newReq.Body = io.NopCloser(bytes.NewReader(jsonBody))
	newReq.ContentLength = int64(len(jsonBody))
	newReq.Header.Set("Content-Type", "application/json")

	return t.base.RoundTrip(newReq)
}
