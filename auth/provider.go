package auth

import (
	"context"

	"github.com/shtamir/family-tv-dashboard/token"
)

// PromptMode selects whether the authorization provider may show a consent prompt
type PromptMode int

const (
	// PromptSilent requests a token without any user-visible prompt
	PromptSilent PromptMode = iota
	// PromptConsent allows the provider to ask the user for consent
	PromptConsent
)

func (m PromptMode) String() string {
	if m == PromptConsent {
		return "consent"
	}
	return "silent"
}

// Provider is the delegated-authorization service that issues and revokes access tokens.
// A declined or closed consent prompt is reported as errors.ErrDenied.
type Provider interface {
	RequestToken(ctx context.Context, mode PromptMode) (token.Token, error)
	Revoke(ctx context.Context, accessToken string) error
}

type gestureKey struct{}

// WithUserGesture marks ctx as originating from an explicit user action (a login button),
// the only origin allowed to open a consent prompt under the default policy.
func WithUserGesture(ctx context.Context) context.Context {
	return context.WithValue(ctx, gestureKey{}, true)
}

// IsUserGesture reports whether ctx was marked by WithUserGesture
func IsUserGesture(ctx context.Context) bool {
	v, _ := ctx.Value(gestureKey{}).(bool)
	return v
}

var _ Provider = UnconfiguredProvider{}

// UnconfiguredProvider stands in when no OAuth client is set up. Every token request fails,
// so authenticated widgets always resolve from their offline tier.
type UnconfiguredProvider struct{}

func (UnconfiguredProvider) RequestToken(context.Context, PromptMode) (token.Token, error) {
	return token.Token{}, ErrProviderMisconfig
}

func (UnconfiguredProvider) Revoke(context.Context, string) error {
	return nil
}
