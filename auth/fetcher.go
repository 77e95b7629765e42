package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/internal/metrics"
	"github.com/shtamir/family-tv-dashboard/token"
)

// Authenticator supplies bearer tokens to the Fetcher
type Authenticator interface {
	EnsureToken(ctx context.Context) (token.Token, error)
	Invalidate(ctx context.Context)
}

var _ Authenticator = (*Session)(nil)

// Fetcher issues HTTP requests carrying the current access token. An unauthorized response
// triggers exactly one re-authentication and one retry.
type Fetcher struct {
	auth   Authenticator
	client *http.Client
}

func NewFetcher(auth Authenticator, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{auth: auth, client: client}
}

// Do sends req with a bearer token. Requests with a body must be replayable (GetBody set),
// which http.NewRequest does for in-memory readers. An unauthorized response to a request whose
// body cannot be replayed fails with ErrUnauthorized without a retry.
func (f *Fetcher) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := f.attempt(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	discard(resp)

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, fmt.Errorf("[Fetcher Do] %s %s: body cannot be replayed for the retry: %w", req.Method, req.URL.Redacted(), ErrUnauthorized)
	}

	log.Info().Str("url", req.URL.Redacted()).Msg("request unauthorized; re-authenticating once")
	metrics.ObserveFetchRetry()
	f.auth.Invalidate(ctx)

	resp, err = f.attempt(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		return nil, fmt.Errorf("[Fetcher Do] %s %s rejected twice: %w", req.Method, req.URL.Redacted(), ErrUnauthorized)
	}
	return resp, nil
}

func (f *Fetcher) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	tok, err := f.auth.EnsureToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Fetcher Do] %w", err)
	}

	out := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("[Fetcher Do] replay body: %w", err)
		}
		out.Body = body
	}
	tok.SetAuthHeader(out)

	resp, err := f.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("[Fetcher Do] %s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	return resp, nil
}

// GetJSON decodes the JSON body of a successful GET into out
func (f *Fetcher) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("[Fetcher GetJSON] %w", err)
	}
	return f.doJSON(ctx, req, out)
}

// PostJSON sends body as JSON and decodes the successful response into out
func (f *Fetcher) PostJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("[Fetcher PostJSON] encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("[Fetcher PostJSON] %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return f.doJSON(ctx, req, out)
}

func (f *Fetcher) doJSON(ctx context.Context, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := f.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("[Fetcher] %s %s: unexpected status %d", req.Method, req.URL.Redacted(), resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[Fetcher] decode %s: %w", req.URL.Redacted(), err)
	}
	return nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
