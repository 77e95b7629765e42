package source_test

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
	"github.com/shtamir/family-tv-dashboard/source"
	"github.com/stretchr/testify/require"
)

type countingFetch struct {
	calls int
	value []string
	err   error
	trace *[]string
	name  string
}

func (f *countingFetch) fetch(context.Context) ([]string, error) {
	f.calls++
	if f.trace != nil {
		*f.trace = append(*f.trace, f.name)
	}
	return f.value, f.err
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	errLive := errors.New("network down")
	errOffline := errors.New("bundle missing")

	t.Run("live success never touches offline", func(t *testing.T) {
		live := &countingFetch{value: []string{"live"}}
		offline := &countingFetch{value: []string{"offline"}}

		res, err := source.Resolve(ctx, "messages", live.fetch, offline.fetch)
		require.NoError(t, err)
		require.Equal(t, source.OriginLive, res.Origin)
		require.Equal(t, []string{"live"}, res.Value)
		require.Equal(t, 1, live.calls)
		require.Zero(t, offline.calls)
	})

	t.Run("live failure falls back after live", func(t *testing.T) {
		var trace []string
		live := &countingFetch{err: errLive, trace: &trace, name: "live"}
		offline := &countingFetch{value: []string{"offline"}, trace: &trace, name: "offline"}

		res, err := source.Resolve(ctx, "messages", live.fetch, offline.fetch)
		require.NoError(t, err)
		require.Equal(t, source.OriginOffline, res.Origin)
		require.Equal(t, []string{"offline"}, res.Value)
		require.Equal(t, []string{"live", "offline"}, trace)
	})

	t.Run("both failing reports both causes", func(t *testing.T) {
		live := &countingFetch{err: errLive}
		offline := &countingFetch{err: errOffline}

		_, err := source.Resolve(ctx, "todos", live.fetch, offline.fetch)
		require.ErrorIs(t, err, apperrors.ErrUnavailable)
		require.ErrorIs(t, err, errLive)
		require.ErrorIs(t, err, errOffline)

		var unavailable *source.UnavailableError
		require.ErrorAs(t, err, &unavailable)
		require.Equal(t, "todos", unavailable.Name)
		require.Equal(t, errLive, unavailable.Live)
		require.Equal(t, errOffline, unavailable.Offline)
		require.Equal(t, 1, live.calls)
		require.Equal(t, 1, offline.calls)
	})
}

func TestSource_Resolve(t *testing.T) {
	live := &countingFetch{err: errors.New("timeout")}
	offline := &countingFetch{value: []string{"a", "b"}}
	src := source.Source[[]string]{Name: "weather", Live: live.fetch, Offline: offline.fetch}

	res, err := src.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, source.OriginOffline, res.Origin)
	require.Len(t, res.Value, 2)
}
