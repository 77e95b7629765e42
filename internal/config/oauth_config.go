package config

import "strings"

type InteractivePolicy string

const (
	// InteractiveOnGesture only allows consent prompts from an explicit user action
	InteractiveOnGesture InteractivePolicy = "gesture"
	// InteractiveAutomatic escalates to a consent prompt whenever silent renewal fails
	InteractiveAutomatic InteractivePolicy = "automatic"
)

type OAuthConfig interface {
	GetOAuthClientID() string
	GetOAuthClientSecret() string
	GetOAuthIssuerURL() string
	GetOAuthRedirectURL() string
	GetOAuthScopes() []string
	GetInteractivePolicy() InteractivePolicy
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetOAuthClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "")
}

func (OAuth) GetOAuthClientSecret() string {
	return GetEnv("OAUTH_CLIENT_SECRET", "")
}

func (OAuth) GetOAuthIssuerURL() string {
	return GetEnv("OAUTH_ISSUER_URL", "https://accounts.google.com")
}

func (OAuth) GetOAuthRedirectURL() string {
	return GetEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/callback")
}

func (OAuth) GetOAuthScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/calendar.readonly",
		"https://www.googleapis.com/auth/photoslibrary.readonly",
	}
}

func (OAuth) GetInteractivePolicy() InteractivePolicy {
	if strings.EqualFold(GetEnv("OAUTH_INTERACTIVE_POLICY", ""), string(InteractiveAutomatic)) {
		return InteractiveAutomatic
	}
	return InteractiveOnGesture
}
