package token

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
	"github.com/shtamir/family-tv-dashboard/kvstore"
)

// Store persists a single Token in a key/value store.
// Storage failures are reported as "no token" so callers re-authenticate.
type Store struct {
	kv      kvstore.Store
	nowFunc func() time.Time
}

type StoreOption func(*Store)

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func NewStore(kv kvstore.Store, options ...StoreOption) *Store {
	s := &Store{kv: kv, nowFunc: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Save overwrites any stored token with t
func (s *Store) Save(ctx context.Context, t Token) {
	entries := []struct{ key, value string }{
		{kvstore.KeyToken, t.Value},
		{kvstore.KeyTokenIssued, t.IssuedAt.UTC().Format(time.RFC3339Nano)},
		{kvstore.KeyTokenExpiry, t.ExpiresAt.UTC().Format(time.RFC3339Nano)},
	}
	for _, e := range entries {
		if err := s.kv.Set(ctx, e.key, e.value); err != nil {
			log.Warn().Err(err).Str("key", e.key).Msg("token store: save failed")
			return
		}
	}
}

// Load returns the stored token, or nil when absent, unreadable or expired.
// An expired entry is removed.
func (s *Store) Load(ctx context.Context) *Token {
	value, err := s.kv.Get(ctx, kvstore.KeyToken)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			log.Warn().Err(err).Msg("token store: load failed, treating as absent")
		}
		return nil
	}

	rawExpiry, err := s.kv.Get(ctx, kvstore.KeyTokenExpiry)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		log.Warn().Msg("token store: token without expiry, clearing")
		s.Clear(ctx)
		return nil
	}
	if err != nil {
		return nil
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, rawExpiry)
	if err != nil {
		log.Warn().Err(err).Msg("token store: unreadable expiry, clearing")
		s.Clear(ctx)
		return nil
	}

	if !s.nowFunc().Before(expiresAt) {
		s.Clear(ctx)
		return nil
	}

	t := &Token{Value: value, ExpiresAt: expiresAt}
	if rawIssued, err := s.kv.Get(ctx, kvstore.KeyTokenIssued); err == nil {
		t.IssuedAt, _ = time.Parse(time.RFC3339Nano, rawIssued)
	}
	return t
}

// Clear removes the stored token. It is safe to call when nothing is stored.
func (s *Store) Clear(ctx context.Context) {
	for _, key := range []string{kvstore.KeyToken, kvstore.KeyTokenIssued, kvstore.KeyTokenExpiry} {
		if err := s.kv.Remove(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("token store: clear failed")
		}
	}
}
