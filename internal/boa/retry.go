package boa

import "time"

// retryLimits caps attempts per code. Codes absent from the map are never
// retried (authentication and authorization failures, business rejections).
var retryLimits = map[Code]int{
	CodeNetworkError:      3,
	CodeGatewayTimeout:    3,
	CodeRateLimitExceeded: 3,
	CodeOperationFailed:   2,
}

// retryBaseDelays holds the first-attempt delay per code.
var retryBaseDelays = map[Code]time.Duration{
	CodeNetworkError:      5 * time.Second,
	CodeGatewayTimeout:    10 * time.Second,
	CodeRateLimitExceeded: 30 * time.Second,
	CodeOperationFailed:   15 * time.Second,
}

// defaultRetryBaseDelay is used for codes without a specific base delay.
const defaultRetryBaseDelay = 10 * time.Second

// ShouldRetry reports whether an operation that failed with the given code
// may be attempted again. attempt is 1-based: attempt 1 is the call that
// just failed.
func ShouldRetry(code Code, attempt int) bool {
	limit, ok := retryLimits[code]
	if !ok {
		return false
	}
	return attempt < limit
}

// RetryDelay returns how long to wait before retrying after the given
// attempt, using exponential backoff from a per-code base delay.
func RetryDelay(code Code, attempt int) time.Duration {
	base, ok := retryBaseDelays[code]
	if !ok {
		base = defaultRetryBaseDelay
	}
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}
