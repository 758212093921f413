package boa

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func staticTokenClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "at-test"})
	c, err := New(baseURL, "client-1", "key-1", ts, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestRequestSetsHeaders(t *testing.T) {
	var received http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"header": {"status": "success"}, "body": {}}`))
	}))
	defer server.Close()

	client := staticTokenClient(t, server.URL)
	env, err := client.request(context.Background(), http.MethodGet, "getBalance", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if !env.OK() {
		t.Errorf("envelope not OK: %+v", env)
	}

	if got := received.Get("x-api-key"); got != "key-1" {
		t.Errorf("x-api-key = %q, want %q", got, "key-1")
	}
	if got := received.Get("Authorization"); got != "at-test" {
		t.Errorf("Authorization = %q, want bare token %q", got, "at-test")
	}
	if got := received.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
}

func TestRequestAuthPrefix(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"header": {"status": "success"}}`))
	}))
	defer server.Close()

	client := staticTokenClient(t, server.URL, WithAuthPrefix("Bearer "))
	if _, err := client.request(context.Background(), http.MethodGet, "getBalance", nil); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if received != "Bearer at-test" {
		t.Errorf("Authorization = %q, want %q", received, "Bearer at-test")
	}
}

func TestRequestNormalization(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantOK     bool
		wantStatus int
		wantHeader string
	}{
		{
			name:       "200 with success header",
			status:     http.StatusOK,
			body:       `{"header": {"status": "success"}, "body": {}}`,
			wantOK:     true,
			wantStatus: 200,
			wantHeader: StatusSuccess,
		},
		{
			name:       "200 with failed header is not OK",
			status:     http.StatusOK,
			body:       `{"header": {"status": "failed", "message": "insufficient balance"}}`,
			wantOK:     false,
			wantStatus: 200,
			wantHeader: StatusFailed,
		},
		{
			name:       "401 carries envelope through",
			status:     http.StatusUnauthorized,
			body:       `{"header": {"status": "failed"}, "error": {"errorDetails": [{"message": "Access token is missing or invalid"}]}}`,
			wantOK:     false,
			wantStatus: 401,
			wantHeader: StatusFailed,
		},
		{
			name:       "success header with non-200 status is not trusted",
			status:     http.StatusBadGateway,
			body:       `{"header": {"status": "success"}}`,
			wantOK:     false,
			wantStatus: 502,
			wantHeader: StatusSuccess,
		},
		{
			name:       "non-JSON body becomes malformed-response envelope",
			status:     http.StatusBadGateway,
			body:       `<html>Bad Gateway</html>`,
			wantOK:     false,
			wantStatus: 502,
			wantHeader: StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := staticTokenClient(t, server.URL)
			env, err := client.request(context.Background(), http.MethodGet, "getBalance", nil)
			if err != nil {
				t.Fatalf("request returned error for reachable server: %v", err)
			}
			if env.OK() != tt.wantOK {
				t.Errorf("OK() = %v, want %v", env.OK(), tt.wantOK)
			}
			if env.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", env.HTTPStatus, tt.wantStatus)
			}
			if env.Header.Status != tt.wantHeader {
				t.Errorf("Header.Status = %q, want %q", env.Header.Status, tt.wantHeader)
			}
		})
	}
}

func TestRequestNetworkFailureSynthesizesEnvelope(t *testing.T) {
	// Server closed before the request forces a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := staticTokenClient(t, server.URL)
	env, err := client.request(context.Background(), http.MethodGet, "getBalance", nil)
	if err != nil {
		t.Fatalf("network failures must not surface as errors, got: %v", err)
	}
	if env.OK() {
		t.Error("synthesized envelope must not be OK")
	}
	if env.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want 500", env.HTTPStatus)
	}
	if env.Header.Status != StatusFailed {
		t.Errorf("Header.Status = %q, want %q", env.Header.Status, StatusFailed)
	}

	cerr := ClassifyEnvelope(env)
	if cerr.Code != CodeNetworkError {
		t.Errorf("classified as %s, want %s", cerr.Code, CodeNetworkError)
	}
}

func TestRequestTokenFailureIsError(t *testing.T) {
	failing := oauth2.ReuseTokenSource(nil, failingTokenSource{})
	client, err := New("http://127.0.0.1:0", "client-1", "key-1", failing)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := client.request(context.Background(), http.MethodGet, "getBalance", nil); err == nil {
		t.Fatal("request should fail when no token can be acquired")
	}
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusUnauthorized}}
}

func TestRequestLogsNoSecrets(t *testing.T) {
	const (
		accessToken  = "at-super-secret"
		clientSecret = "cs-super-secret"
		refreshToken = "rt-super-secret"
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"header": {"status": "failed"}}`))
	}))
	defer server.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken})
	client, err := New(server.URL, "client-1", "key-1", ts, WithLogger(logger))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := client.request(context.Background(), http.MethodPost, "transferWithin", map[string]string{"amount": "10.00"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	output := logs.String()
	for _, secret := range []string{accessToken, clientSecret, refreshToken} {
		if strings.Contains(output, secret) {
			t.Errorf("log output contains secret %q:\n%s", secret, output)
		}
	}
}

func TestNewValidation(t *testing.T) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "at"})

	if _, err := New("", "client", "key", ts); err == nil {
		t.Error("New should reject empty base URL")
	}
	if _, err := New("http://bank.example", "", "key", ts); err == nil {
		t.Error("New should reject empty client ID")
	}
	if _, err := New("http://bank.example", "client", "key", nil); err == nil {
		t.Error("New should reject nil token source")
	}
}
