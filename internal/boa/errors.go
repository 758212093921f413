package boa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Code identifies a failure class in the closed BoA error taxonomy.
type Code string

const (
	CodeAuthenticationFailed Code = "AUTHENTICATION_FAILED"
	CodeAuthorizationFailed  Code = "AUTHORIZATION_FAILED"
	CodeInvalidClientID      Code = "INVALID_CLIENT_ID"
	CodeInvalidAccessToken   Code = "INVALID_ACCESS_TOKEN"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
	CodeGatewayTimeout       Code = "GATEWAY_TIMEOUT"
	CodeBusinessError        Code = "BUSINESS_ERROR"
	CodeOperationFailed      Code = "OPERATION_FAILED"
	CodeNetworkError         Code = "NETWORK_ERROR"
	CodeUnknownError         Code = "UNKNOWN_ERROR"
)

// Severity grades a classified failure.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ClassifiedError is the uniform failure shape surfaced by every façade
// method. It is derived fresh per failure and never persisted.
type ClassifiedError struct {
	Code     Code
	Severity Severity
	Message  string

	// Retryable marks failures a caller may reasonably retry, subject to
	// the attempt limits enforced by ShouldRetry.
	Retryable bool

	// RequiresAttention marks failures automated recovery cannot fix
	// (revoked credentials, persistent gateway trouble); operators should
	// be alerted.
	RequiresAttention bool
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("boa: %s: %s", e.Code, e.Message)
}

// newClassified builds a ClassifiedError deriving the booleans from code
// and severity.
func newClassified(code Code, severity Severity, message string) *ClassifiedError {
	return &ClassifiedError{
		Code:              code,
		Severity:          severity,
		Message:           message,
		Retryable:         retryLimits[code] > 0,
		RequiresAttention: severity == SeverityHigh || severity == SeverityCritical,
	}
}

// Phrases from the Bank's documentation matched against failure messages.
// Order matters: the first match wins.
var phraseMappings = []struct {
	phrase   string
	code     Code
	severity Severity
}{
	{"client id is not found", CodeInvalidClientID, SeverityHigh},
	{"access token is missing", CodeInvalidAccessToken, SeverityHigh},
	{"invalid_request", CodeAuthorizationFailed, SeverityHigh},
	{"gateway timeout", CodeGatewayTimeout, SeverityCritical},
}

// Classify converts an error raised below the façade into the taxonomy.
// Exception type takes precedence over anything else: an authentication
// failure stays an authentication failure regardless of message content.
func Classify(err error) *ClassifiedError {
	var cerr *ClassifiedError
	if errors.As(err, &cerr) {
		return cerr
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		switch rerr.Response.StatusCode {
		case http.StatusUnauthorized:
			// A 401 on the token endpoint usually means the refresh token was
			// revoked or the credentials are stale; no automated recovery.
			return newClassified(CodeAuthenticationFailed, SeverityHigh,
				"authentication with BOA failed")
		case http.StatusTooManyRequests:
			return newClassified(CodeRateLimitExceeded, SeverityHigh,
				"BOA rate limit exceeded")
		default:
			return newClassified(CodeOperationFailed, SeverityMedium,
				fmt.Sprintf("token request failed with status %d", rerr.Response.StatusCode))
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newClassified(CodeNetworkError, SeverityMedium, "request to BOA timed out")
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return newClassified(CodeNetworkError, SeverityMedium, networkFailureMessage)
	}

	return newClassified(CodeUnknownError, SeverityMedium, err.Error())
}

// ClassifyEnvelope converts a non-OK envelope into the taxonomy. Precedence:
// HTTP 401 markers, then known phrases in the failure message, then the
// Bank's BUSINESS error type, with OPERATION_FAILED as the default.
func ClassifyEnvelope(env *Envelope) *ClassifiedError {
	message := env.FailureMessage()

	if env.HTTPStatus == http.StatusUnauthorized {
		lower := strings.ToLower(message)
		switch {
		case strings.Contains(lower, "client id"):
			return newClassified(CodeInvalidClientID, SeverityHigh, message)
		case strings.Contains(lower, "access token"):
			return newClassified(CodeInvalidAccessToken, SeverityHigh, message)
		default:
			return newClassified(CodeAuthorizationFailed, SeverityHigh, message)
		}
	}

	if env.HTTPStatus == http.StatusTooManyRequests {
		return newClassified(CodeRateLimitExceeded, SeverityHigh, message)
	}

	lower := strings.ToLower(message)
	for _, m := range phraseMappings {
		if strings.Contains(lower, m.phrase) {
			return newClassified(m.code, m.severity, message)
		}
	}

	// Synthesized network-failure envelopes carry no Bank error payload.
	if env.Header.Message == networkFailureMessage {
		return newClassified(CodeNetworkError, SeverityMedium, message)
	}

	if env.Error != nil && env.Error.Type == "BUSINESS" {
		return newClassified(CodeBusinessError, SeverityMedium, message)
	}

	return newClassified(CodeOperationFailed, SeverityMedium, message)
}
