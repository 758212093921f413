// Package boa implements the HTTP client for the Bank of Abyssinia
// remittance API.
//
// The Bank's response envelope is non-standard: business failures are
// routinely embedded in HTTP 200 responses, and some genuine failures
// arrive as 4xx with a JSON body. Every response is therefore normalized
// into an Envelope carrying the literal transport-level status alongside
// the Bank's own header, and success is only declared when both agree
// (http status 200 and header.status "success").
//
// Failures never escape as raw transport errors: network-level problems are
// converted into a synthetic failed Envelope, and every non-success outcome
// is classified into a closed taxonomy (ClassifiedError) with severity and
// retry guidance.
package boa
