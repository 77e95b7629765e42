package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// ConsentResult is what the provider sent back to the redirect endpoint
type ConsentResult struct {
	Code             string
	Error            string
	ErrorDescription string
}

// ConsentBroker connects a suspended interactive token request to the HTTP callback that
// eventually completes it. The kiosk UI discovers the authorization URL to open through
// PendingURL or WaitForPending.
type ConsentBroker struct {
	mu           sync.Mutex
	waiting      map[string]chan ConsentResult
	pendingURL   string
	pendingState string
	published    chan struct{}
}

func NewConsentBroker() *ConsentBroker {
	return &ConsentBroker{
		waiting:   make(map[string]chan ConsentResult),
		published: make(chan struct{}),
	}
}

// Await publishes authURL and blocks until Complete is called for state or ctx ends.
// There is no timeout: the request resolves only on the user's answer.
func (b *ConsentBroker) Await(ctx context.Context, state, authURL string) (ConsentResult, error) {
	ch := make(chan ConsentResult, 1)

	b.mu.Lock()
	b.waiting[state] = ch
	b.pendingURL = authURL
	b.pendingState = state
	close(b.published)
	b.published = make(chan struct{})
	b.mu.Unlock()

	log.Info().Str("url", authURL).Msg("consent required: open the authorization URL to continue")

	defer func() {
		b.mu.Lock()
		delete(b.waiting, state)
		if b.pendingState == state {
			b.pendingURL = ""
			b.pendingState = ""
		}
		b.mu.Unlock()
	}()

	select {
	case result := <-ch:
		return result, nil
	case <-ctx.Done():
		return ConsentResult{}, ctx.Err()
	}
}

// Complete delivers the provider's answer for state
func (b *ConsentBroker) Complete(state string, result ConsentResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.waiting[state]
	if !ok {
		return ErrUnknownConsent
	}
	delete(b.waiting, state)
	ch <- result
	return nil
}

// PendingURL returns the authorization URL of the consent request currently waiting, if any
func (b *ConsentBroker) PendingURL() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingURL, b.pendingURL != ""
}

// WaitForPending blocks until a consent request is waiting and returns its URL
func (b *ConsentBroker) WaitForPending(ctx context.Context) (string, error) {
	for {
		b.mu.Lock()
		if b.pendingURL != "" {
			url := b.pendingURL
			b.mu.Unlock()
			return url, nil
		}
		published := b.published
		b.mu.Unlock()

		select {
		case <-published:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
