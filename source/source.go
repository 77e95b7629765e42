package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
	"github.com/shtamir/family-tv-dashboard/internal/metrics"
)

// Origin tells which tier produced a Result
type Origin string

const (
	OriginLive    Origin = "live"
	OriginOffline Origin = "offline"
)

// Result is the value of a successful resolution. Both tiers produce the same shape.
type Result[T any] struct {
	Value  T
	Origin Origin
}

// Fetch loads one tier of a widget's data
type Fetch[T any] func(ctx context.Context) (T, error)

// UnavailableError is returned when both tiers failed
type UnavailableError struct {
	Name    string
	Live    error
	Offline error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: live: %v; offline: %v", e.Name, e.Live, e.Offline)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{apperrors.ErrUnavailable, e.Live, e.Offline}
}

// Resolve tries live exactly once and falls back to offline only after live failed.
func Resolve[T any](ctx context.Context, name string, live, offline Fetch[T]) (Result[T], error) {
	value, liveErr := live(ctx)
	if liveErr == nil {
		metrics.ObserveSource(name, string(OriginLive))
		return Result[T]{Value: value, Origin: OriginLive}, nil
	}
	log.Warn().Str("widget", name).Err(liveErr).Msg("live fetch failed; using offline data")

	value, offlineErr := offline(ctx)
	if offlineErr == nil {
		metrics.ObserveSource(name, string(OriginOffline))
		log.Info().Str("widget", name).Msg("offline data loaded")
		return Result[T]{Value: value, Origin: OriginOffline}, nil
	}

	metrics.ObserveSource(name, "unavailable")
	err := &UnavailableError{Name: name, Live: liveErr, Offline: offlineErr}
	log.Error().Str("widget", name).Err(err).Msg("no data available")
	var zero Result[T]
	return zero, err
}

// Source binds a widget's two tiers together
type Source[T any] struct {
	Name    string
	Live    Fetch[T]
	Offline Fetch[T]
}

func (s Source[T]) Resolve(ctx context.Context) (Result[T], error) {
	return Resolve(ctx, s.Name, s.Live, s.Offline)
}
