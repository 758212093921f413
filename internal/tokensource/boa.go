package tokensource

import (
	"golang.org/x/oauth2"
)

// tokenPath is appended to the Bank base URL to form the OAuth2 token endpoint.
const tokenPath = "/oauth2/token"

// Credentials holds the static OAuth2 client credentials issued by the Bank.
// RefreshTokenSeed is only used until the first successful exchange; after
// that the rotated refresh token persisted in the token store supersedes it.
type Credentials struct {
	ClientID         string
	ClientSecret     string
	RefreshTokenSeed string
}

// Endpoint returns the OAuth2 endpoint for the Bank API rooted at baseURL.
// The Bank has no authorization-code flow; only the token endpoint is used.
func Endpoint(baseURL string) oauth2.Endpoint {
	return oauth2.Endpoint{
		TokenURL:  baseURL + tokenPath,
		AuthStyle: oauth2.AuthStyleInParams,
	}
}
