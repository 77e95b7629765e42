package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/internal/config"
	"github.com/shtamir/family-tv-dashboard/internal/metrics"
	"github.com/shtamir/family-tv-dashboard/token"
	"golang.org/x/sync/singleflight"
)

// State is the position of a Session in the token lifecycle
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticatingSilent
	StateAuthenticatingInteractive
	StateAuthenticated
	StateExpired
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateAuthenticatingSilent:
		return "authenticating_silent"
	case StateAuthenticatingInteractive:
		return "authenticating_interactive"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateRevoked:
		return "revoked"
	default:
		return "unauthenticated"
	}
}

// Status is a snapshot of the session for display
type Status struct {
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Session owns the one live access token of the process and is the only writer of the token store.
type Session struct {
	provider Provider
	store    *token.Store
	policy   config.InteractivePolicy
	nowFunc  func() time.Time
	flights  singleflight.Group

	mu         sync.Mutex
	current    *token.Token
	state      State
	generation uint64
	lifetime   context.Context
	cancel     context.CancelFunc
	resetHooks []func()
}

type SessionOption func(*Session)

func WithNowFunc(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.nowFunc = now
	}
}

func WithInteractivePolicy(policy config.InteractivePolicy) SessionOption {
	return func(s *Session) {
		s.policy = policy
	}
}

func NewSession(provider Provider, store *token.Store, options ...SessionOption) *Session {
	s := &Session{
		provider: provider,
		store:    store,
		policy:   config.InteractiveOnGesture,
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.lifetime, s.cancel = context.WithCancel(context.Background())
	return s
}

// OnReset registers a hook run after Logout so dependents can drop their state
func (s *Session) OnReset(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetHooks = append(s.resetHooks, hook)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: s.state.String()}
	if s.current != nil {
		st.ExpiresAt = s.current.ExpiresAt
	}
	return st
}

// EnsureToken returns a usable token, renewing it silently when needed and escalating to a
// consent prompt when the interactive policy allows it for ctx. Concurrent callers share one
// acquisition.
func (s *Session) EnsureToken(ctx context.Context) (token.Token, error) {
	s.mu.Lock()
	if s.current.Usable(s.nowFunc()) {
		t := *s.current
		s.mu.Unlock()
		return t, nil
	}
	if s.current != nil {
		log.Info().Time("expires_at", s.current.ExpiresAt).Msg("access token expired")
		s.current = nil
		s.state = StateExpired
	}
	gen := s.generation
	lifetime := s.lifetime
	s.mu.Unlock()

	interactive := s.policy == config.InteractiveAutomatic || IsUserGesture(ctx)
	key := PromptSilent.String()
	if interactive {
		key = PromptConsent.String()
	}

	ch := s.flights.DoChan(key, func() (interface{}, error) {
		return s.acquire(lifetime, interactive, gen)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return token.Token{}, res.Err
		}
		return res.Val.(token.Token), nil
	case <-ctx.Done():
		return token.Token{}, ctx.Err()
	}
}

func (s *Session) acquire(ctx context.Context, interactive bool, gen uint64) (token.Token, error) {
	if stored := s.store.Load(ctx); stored != nil {
		return s.adopt(ctx, *stored, gen, false)
	}

	s.setState(gen, StateAuthenticatingSilent)
	t, err := s.provider.RequestToken(ctx, PromptSilent)
	if err == nil {
		metrics.ObserveAuth(PromptSilent.String(), "success")
		return s.adopt(ctx, t, gen, true)
	}
	metrics.ObserveAuth(PromptSilent.String(), "failure")

	if !interactive {
		s.setState(gen, StateUnauthenticated)
		log.Info().Err(err).Msg("silent token renewal failed; waiting for an explicit login")
		return token.Token{}, fmt.Errorf("[EnsureToken] silent renewal failed (%v): %w: %w", err, ErrDenied, ErrInteractionRequired)
	}

	log.Info().Err(err).Msg("silent token renewal failed; requesting interactive consent")
	s.setState(gen, StateAuthenticatingInteractive)
	t, err = s.provider.RequestToken(ctx, PromptConsent)
	if err != nil {
		metrics.ObserveAuth(PromptConsent.String(), "failure")
		s.setState(gen, StateUnauthenticated)
		if errors.Is(err, ErrDenied) {
			return token.Token{}, errors.Wrap(err, "[EnsureToken] interactive consent")
		}
		return token.Token{}, fmt.Errorf("[EnsureToken] interactive consent failed (%v): %w", err, ErrDenied)
	}
	metrics.ObserveAuth(PromptConsent.String(), "success")
	return s.adopt(ctx, t, gen, true)
}

// adopt installs t unless a logout happened since the acquisition started
func (s *Session) adopt(ctx context.Context, t token.Token, gen uint64, persist bool) (token.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return token.Token{}, errors.Wrap(ErrDiscarded, "[EnsureToken]")
	}
	if persist {
		s.store.Save(ctx, t)
	}
	s.current = &t
	s.state = StateAuthenticated
	return t, nil
}

// setState records state unless a logout has superseded the acquisition started at gen
func (s *Session) setState(gen uint64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.state = state
	}
}

// Invalidate drops the current token after a downstream authorization failure. It does not retry.
func (s *Session) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.state = StateUnauthenticated
	s.mu.Unlock()

	s.store.Clear(ctx)
	log.Info().Msg("access token invalidated")
}

// Logout revokes the token with the provider (best effort), discards any in-flight
// acquisition, clears the token and runs the reset hooks.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	var value string
	if s.current != nil {
		value = s.current.Value
	}
	s.generation++
	s.cancel()
	s.lifetime, s.cancel = context.WithCancel(context.Background())
	s.state = StateRevoked
	hooks := append([]func(){}, s.resetHooks...)
	s.mu.Unlock()

	s.flights.Forget(PromptSilent.String())
	s.flights.Forget(PromptConsent.String())

	if value == "" {
		if stored := s.store.Load(ctx); stored != nil {
			value = stored.Value
		}
	}
	if value != "" {
		if err := s.provider.Revoke(ctx, value); err != nil {
			log.Warn().Err(err).Msg("token revocation failed")
		}
	}

	s.Invalidate(ctx)
	for _, hook := range hooks {
		hook()
	}
}

// Close cancels any in-flight acquisition
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
}
