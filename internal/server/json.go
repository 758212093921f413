package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hakimremit/boagate/internal/boa"
)

// ErrorBody is the JSON error shape returned to clients.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the classified failure information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeJSONError writes a plain JSON error with the given status code.
func writeJSONError(ctx context.Context, w http.ResponseWriter, message string, status int) {
	writeJSON(ctx, w, ErrorBody{Error: ErrorDetail{Code: "INVALID_REQUEST", Message: message}}, status)
}

// writeClassifiedError maps a service failure to an HTTP status and JSON
// body. Non-classified errors become opaque 500s.
func writeClassifiedError(ctx context.Context, w http.ResponseWriter, err error) {
	var cerr *boa.ClassifiedError
	if !errors.As(err, &cerr) {
		slog.ErrorContext(ctx, "unclassified failure reached HTTP layer", "error", err)
		writeJSON(ctx, w, ErrorBody{Error: ErrorDetail{
			Code:    string(boa.CodeUnknownError),
			Message: "internal error",
		}}, http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, ErrorBody{Error: ErrorDetail{
		Code:      string(cerr.Code),
		Message:   cerr.Message,
		Retryable: cerr.Retryable,
	}}, statusForCode(cerr.Code))
}

// statusForCode maps the failure taxonomy to HTTP statuses. Upstream
// credential and connectivity problems surface as gateway errors; the
// Bank's business rejections map to 422 so route-layer clients can show
// the Bank's message to the user.
func statusForCode(code boa.Code) int {
	switch code {
	case boa.CodeBusinessError:
		return http.StatusUnprocessableEntity
	case boa.CodeRateLimitExceeded:
		return http.StatusServiceUnavailable
	case boa.CodeGatewayTimeout:
		return http.StatusGatewayTimeout
	case boa.CodeAuthenticationFailed, boa.CodeAuthorizationFailed,
		boa.CodeInvalidClientID, boa.CodeInvalidAccessToken,
		boa.CodeNetworkError, boa.CodeOperationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
