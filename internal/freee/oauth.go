package freee

import (
	"golang.org/x/oauth2"
)

// Endpoint is the freee accounts OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.secure.freee.co.jp/public_api/authorize",
	TokenURL: "https://accounts.secure.freee.co.jp/public_api/token",
}

// NewOAuthConfig builds the OAuth2 config for the freee app credentials.
// redirectURL must be registered on the freee app; the handshake command uses
// a localhost callback.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
	}
}
