package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/auth/authflowrepo"
	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
	"github.com/shtamir/family-tv-dashboard/kvstore"
	"github.com/shtamir/family-tv-dashboard/token"
	"golang.org/x/oauth2"
)

const defaultTokenTTL = time.Hour

var _ Provider = (*OAuth2Provider)(nil)

// OAuth2Provider obtains tokens from an OAuth2 authorization server. Silent requests use the
// stored refresh grant; consent requests run an authorization-code flow with PKCE that is
// completed through the ConsentBroker.
type OAuth2Provider struct {
	config     *oauth2.Config
	revokeURL  string
	verifier   *oidc.IDTokenVerifier
	grants     kvstore.Store
	flows      authflowrepo.Repo
	broker     *ConsentBroker
	httpClient *http.Client
	nowFunc    func() time.Time
}

type OAuth2ProviderOption func(*OAuth2Provider)

func WithRevocationURL(revokeURL string) OAuth2ProviderOption {
	return func(p *OAuth2Provider) {
		p.revokeURL = revokeURL
	}
}

func WithIDTokenVerifier(verifier *oidc.IDTokenVerifier) OAuth2ProviderOption {
	return func(p *OAuth2Provider) {
		p.verifier = verifier
	}
}

func WithHTTPClient(client *http.Client) OAuth2ProviderOption {
	return func(p *OAuth2Provider) {
		p.httpClient = client
	}
}

func WithProviderNowFunc(now func() time.Time) OAuth2ProviderOption {
	return func(p *OAuth2Provider) {
		p.nowFunc = now
	}
}

func NewOAuth2Provider(cfg *oauth2.Config, grants kvstore.Store, flows authflowrepo.Repo, broker *ConsentBroker, options ...OAuth2ProviderOption) (*OAuth2Provider, error) {
	if cfg == nil || cfg.ClientID == "" {
		return nil, errors.Wrap(ErrProviderMisconfig, "[NewOAuth2Provider] client id is required")
	}
	if grants == nil {
		return nil, errors.New("[NewOAuth2Provider] grant store is required")
	}
	if flows == nil {
		return nil, errors.New("[NewOAuth2Provider] auth flow repo is required")
	}
	if broker == nil {
		return nil, errors.New("[NewOAuth2Provider] consent broker is required")
	}

	p := &OAuth2Provider{
		config:     cfg,
		grants:     grants,
		flows:      flows,
		broker:     broker,
		httpClient: http.DefaultClient,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

func (p *OAuth2Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *OAuth2Provider) RequestToken(ctx context.Context, mode PromptMode) (token.Token, error) {
	if mode == PromptConsent {
		return p.requestConsent(ctx)
	}
	return p.requestSilent(ctx)
}

func (p *OAuth2Provider) requestSilent(ctx context.Context) (token.Token, error) {
	grant, err := p.grants.Get(ctx, kvstore.KeyRefreshGrant)
	if err != nil || grant == "" {
		return token.Token{}, errors.Wrap(ErrInteractionRequired, "[OAuth2Provider] no refresh grant")
	}

	issuedAt := p.nowFunc()
	tok, err := p.config.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: grant}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			p.forgetGrant(ctx)
			return token.Token{}, fmt.Errorf("[OAuth2Provider] refresh grant rejected: %w", ErrDenied)
		}
		return token.Token{}, errors.Wrap(err, "[OAuth2Provider] refresh")
	}

	p.keepGrant(ctx, tok)
	return token.FromOAuth2(tok, issuedAt, defaultTokenTTL), nil
}

func (p *OAuth2Provider) requestConsent(ctx context.Context) (token.Token, error) {
	state := uuid.New().String()
	verifier := oauth2.GenerateVerifier()
	if err := p.flows.Upsert(state, &authflowrepo.AuthFlowState{CodeVerifier: verifier, CreatedAt: p.nowFunc()}); err != nil {
		return token.Token{}, errors.Wrap(err, "[OAuth2Provider] store auth flow")
	}
	defer p.flows.Delete(state)

	authURL := p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier),
	)

	result, err := p.broker.Await(ctx, state, authURL)
	if err != nil {
		return token.Token{}, errors.Wrap(err, "[OAuth2Provider] consent not completed")
	}
	if result.Error != "" {
		return token.Token{}, fmt.Errorf("[OAuth2Provider] %s %s: %w", result.Error, result.ErrorDescription, ErrDenied)
	}
	if result.Code == "" {
		return token.Token{}, fmt.Errorf("[OAuth2Provider] callback without code: %w", ErrDenied)
	}

	flow, err := p.flows.Take(state)
	if err != nil {
		return token.Token{}, errors.Wrap(err, "[OAuth2Provider] auth flow lost")
	}

	issuedAt := p.nowFunc()
	tok, err := p.config.Exchange(p.clientContext(ctx), result.Code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return token.Token{}, errors.Wrap(err, "[OAuth2Provider] token exchange failed")
	}

	p.verifyIdentity(ctx, tok)
	p.keepGrant(ctx, tok)
	return token.FromOAuth2(tok, issuedAt, defaultTokenTTL), nil
}

// verifyIdentity logs who consented when the provider returned an ID token
func (p *OAuth2Provider) verifyIdentity(ctx context.Context, tok *oauth2.Token) {
	if p.verifier == nil {
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok {
		return
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Warn().Err(err).Msg("ID token verification failed")
		return
	}
	var claims struct {
		Email string `json:"email"`
	}
	_ = idToken.Claims(&claims)
	log.Info().Str("sub", idToken.Subject).Str("email", claims.Email).Msg("consent granted")
}

func (p *OAuth2Provider) keepGrant(ctx context.Context, tok *oauth2.Token) {
	if tok.RefreshToken == "" {
		return
	}
	if err := p.grants.Set(ctx, kvstore.KeyRefreshGrant, tok.RefreshToken); err != nil {
		log.Warn().Err(err).Msg("failed to persist refresh grant")
	}
}

func (p *OAuth2Provider) forgetGrant(ctx context.Context) {
	if err := p.grants.Remove(ctx, kvstore.KeyRefreshGrant); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		log.Warn().Err(err).Msg("failed to remove refresh grant")
	}
}

// Revoke revokes accessToken at the provider and forgets the refresh grant
func (p *OAuth2Provider) Revoke(ctx context.Context, accessToken string) error {
	p.forgetGrant(ctx)
	if p.revokeURL == "" {
		return ErrNoRevokeEndpoint
	}

	form := url.Values{}
	form.Set("token", accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[OAuth2Provider] revoke request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[OAuth2Provider] revoke")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("[OAuth2Provider] revoke: unexpected status %d", resp.StatusCode)
	}
	return nil
}
