package token

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Token is a delegated-access bearer credential.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Usable reports whether the token can still be presented at now.
func (t *Token) Usable(now time.Time) bool {
	return t != nil && t.Value != "" && now.Before(t.ExpiresAt)
}

// SetAuthHeader attaches the token to r as a bearer credential
func (t *Token) SetAuthHeader(r *http.Request) {
	t.OAuth2().SetAuthHeader(r)
}

func (t *Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   "Bearer",
		Expiry:      t.ExpiresAt,
	}
}

// FromOAuth2 converts a provider token. Tokens without an expiry are given ttl from issuedAt.
func FromOAuth2(tok *oauth2.Token, issuedAt time.Time, ttl time.Duration) Token {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = issuedAt.Add(ttl)
	}
	return Token{
		Value:     tok.AccessToken,
		IssuedAt:  issuedAt,
		ExpiresAt: expiry,
	}
}
