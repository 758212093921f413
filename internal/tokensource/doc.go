// Package tokensource provides OAuth2 token acquisition and automatic
// refresh for the Bank of Abyssinia remittance API.
//
// The Bank's OAuth2 implementation deviates from the standard in ways that
// require custom handling:
//   - The token endpoint takes a JSON-encoded body (standard OAuth2 uses
//     form-encoding) with client_id, client_secret, grant_type and
//     refresh_token fields.
//   - The refresh token may be rotated on every exchange; the most recently
//     issued refresh token must be used for all subsequent exchanges, never
//     the originally configured seed.
//
// NewTokenSource builds an oauth2.TokenSource for the Bank's token endpoint.
// PersistentTokenSource wraps it with durable caching through a
// tokenstore.TokenStore, so a valid access token survives process restarts
// and rotated refresh tokens are never lost.
//
// Concurrency: the underlying oauth2 reuse source serializes refreshes, so
// N concurrent Token() calls against an expired cache perform exactly one
// exchange. This matters because the Bank invalidates a refresh token after
// first use.
package tokensource
