package boa

import (
	"encoding/json"
	"net/http"
)

// Header status values used by the Bank.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Envelope is the normalized shape every Bank response is coerced into,
// regardless of the transport-level HTTP status.
type Envelope struct {
	// HTTPStatus is the literal transport-level status code, or 500 for a
	// synthesized network-failure envelope.
	HTTPStatus int `json:"http_status"`

	Header Header `json:"header"`

	// Body is the raw payload; an object or an array depending on the
	// operation. Retained verbatim for auditing.
	Body json.RawMessage `json:"body,omitempty"`

	// Error carries the Bank's error payload when present.
	Error *ErrorPayload `json:"error,omitempty"`
}

// Header is the Bank's response header block.
type Header struct {
	Status            string          `json:"status"`
	ID                string          `json:"id,omitempty"`
	UniqueIdentifier  string          `json:"uniqueIdentifier,omitempty"`
	TransactionStatus string          `json:"transactionStatus,omitempty"`
	Code              int             `json:"code,omitempty"`
	Message           string          `json:"message,omitempty"`
	Audit             json.RawMessage `json:"audit,omitempty"`
}

// ErrorPayload is the Bank's error block.
type ErrorPayload struct {
	Type         string        `json:"type,omitempty"`
	ErrorDetails []ErrorDetail `json:"errorDetails,omitempty"`
}

// ErrorDetail is a single entry in the Bank's errorDetails list.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the envelope represents a successful operation.
// Both checks are required: the Bank embeds business failures in 200
// responses, and a success header alongside a non-200 status is not trusted.
func (e *Envelope) OK() bool {
	return e.HTTPStatus == http.StatusOK && e.Header.Status == StatusSuccess
}

// FailureMessage returns the most specific human-readable message the Bank
// provided for a failed envelope, falling back to a generic message.
func (e *Envelope) FailureMessage() string {
	if e.Error != nil && len(e.Error.ErrorDetails) > 0 && e.Error.ErrorDetails[0].Message != "" {
		return e.Error.ErrorDetails[0].Message
	}
	if e.Header.Message != "" {
		return e.Header.Message
	}
	return "operation failed"
}

// networkFailureMessage marks envelopes synthesized for transport failures.
// ClassifyEnvelope keys on it, so it must stay in sync with the synthesizer.
const networkFailureMessage = "network error contacting BOA"

// newNetworkFailureEnvelope synthesizes the uniform failure shape returned
// when the Bank could not be reached at all.
func newNetworkFailureEnvelope() *Envelope {
	return &Envelope{
		HTTPStatus: http.StatusInternalServerError,
		Header: Header{
			Status:  StatusFailed,
			Code:    http.StatusInternalServerError,
			Message: networkFailureMessage,
		},
	}
}

// newMalformedResponseEnvelope synthesizes a failure envelope for responses
// whose body could not be parsed as JSON.
func newMalformedResponseEnvelope(httpStatus int) *Envelope {
	return &Envelope{
		HTTPStatus: httpStatus,
		Header: Header{
			Status:  StatusFailed,
			Code:    httpStatus,
			Message: "malformed response from BOA",
		},
	}
}
