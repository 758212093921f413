package boa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Connection pool and timeout defaults for the API client. The token
// endpoint deliberately does not share this pool (see tokensource).
const (
	defaultTimeout        = 30 * time.Second
	defaultMaxConnections = 100
	defaultIdleConns      = 20
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled HTTP client. Intended for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAuthPrefix sets the Authorization header prefix. The Bank's observed
// behavior is a bare token, so the default is the empty string.
func WithAuthPrefix(prefix string) Option {
	return func(c *Client) {
		c.authPrefix = prefix
	}
}

// WithLogger sets the logger used for request-level debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is the Bank of Abyssinia API client. One instance is constructed at
// process startup and shared; it is safe for concurrent use.
type Client struct {
	baseURL     string
	clientID    string
	apiKey      string
	authPrefix  string
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	logger      *slog.Logger
}

// New creates a Client for the Bank API rooted at baseURL.
// ts supplies access tokens; it is consulted on every request so refreshes
// happen transparently.
func New(baseURL, clientID, apiKey string, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if clientID == "" {
		return nil, fmt.Errorf("client ID cannot be empty")
	}
	if ts == nil {
		return nil, fmt.Errorf("missing token source")
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		clientID:    clientID,
		apiKey:      apiKey,
		tokenSource: ts,
		logger:      slog.Default(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     defaultMaxConnections,
				MaxIdleConns:        defaultIdleConns,
				MaxIdleConnsPerHost: defaultIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// request executes one authenticated call and normalizes the response into
// an Envelope. It never returns an error for a reachable Bank: non-2xx
// statuses and unparseable bodies become failed envelopes, and so do
// network-level failures (connection refused, DNS, timeout). The only error
// path is failing to obtain an access token, which the caller classifies.
//
// Secrets never appear in log output: only method, path and status are
// logged.
func (c *Client) request(ctx context.Context, method, path string, body any) (*Envelope, error) {
	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("acquiring access token: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Authorization", c.authPrefix+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "BOA request failed at transport level",
			"method", method, "path", path)
		return newNetworkFailureEnvelope(), nil
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to read BOA response body",
			"method", method, "path", path, "status", resp.StatusCode)
		return newNetworkFailureEnvelope(), nil
	}

	// Never branch on the HTTP status here: the Bank returns JSON envelopes
	// on 400/401/404 and embeds failures in 200 responses. Classification is
	// the caller's job.
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.WarnContext(ctx, "BOA response is not valid JSON",
			"method", method, "path", path, "status", resp.StatusCode)
		return newMalformedResponseEnvelope(resp.StatusCode), nil
	}
	env.HTTPStatus = resp.StatusCode

	c.logger.DebugContext(ctx, "BOA request completed",
		"method", method, "path", path,
		"status", resp.StatusCode, "header_status", env.Header.Status)

	return &env, nil
}
