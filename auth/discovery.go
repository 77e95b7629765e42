package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Endpoints are the provider URLs read from its discovery document
type Endpoints struct {
	OAuth2     oauth2.Endpoint
	Revocation string
	Verifier   *oidc.IDTokenVerifier
}

// Discover reads the OpenID discovery document of issuer
func Discover(ctx context.Context, issuer, clientID string) (Endpoints, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return Endpoints{}, fmt.Errorf("[Discover] failed to create OIDC provider: %w", err)
	}

	var claims struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := provider.Claims(&claims); err != nil {
		return Endpoints{}, fmt.Errorf("[Discover] failed to read discovery claims: %w", err)
	}

	return Endpoints{
		OAuth2:     provider.Endpoint(),
		Revocation: claims.RevocationEndpoint,
		Verifier:   provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}
