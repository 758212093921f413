// Package tokenstore provides durable storage for the Bank of Abyssinia
// OAuth2 token record (access token, refresh token, expiry).
//
// Two backends are supported:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// A missing or corrupt record is reported as the absence of a cached token,
// never as a fatal error: the caller falls back to a fresh OAuth2 exchange.
package tokenstore
