package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shtamir/family-tv-dashboard/auth"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	var issuer string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                issuer,
			"authorization_endpoint":                issuer + "/o/oauth2/v2/auth",
			"token_endpoint":                        issuer + "/token",
			"revocation_endpoint":                   issuer + "/revoke",
			"jwks_uri":                              issuer + "/certs",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	issuer = srv.URL

	endpoints, err := auth.Discover(context.Background(), issuer, "kiosk")
	require.NoError(t, err)
	require.Equal(t, issuer+"/o/oauth2/v2/auth", endpoints.OAuth2.AuthURL)
	require.Equal(t, issuer+"/token", endpoints.OAuth2.TokenURL)
	require.Equal(t, issuer+"/revoke", endpoints.Revocation)
	require.NotNil(t, endpoints.Verifier)
}

func TestDiscover_IssuerMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"issuer":"https://elsewhere.example.com"}`))
	}))
	defer srv.Close()

	_, err := auth.Discover(context.Background(), srv.URL, "kiosk")
	require.Error(t, err)
}
