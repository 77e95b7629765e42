package photos_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shtamir/family-tv-dashboard/photos"
	"github.com/stretchr/testify/require"
)

type renderRecorder struct {
	mu      sync.Mutex
	indexes []int
}

func (r *renderRecorder) render(_ string, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes = append(r.indexes, index)
}

func (r *renderRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.indexes)
}

func (r *renderRecorder) last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexes[len(r.indexes)-1]
}

func setupScheduler(t *testing.T) (*photos.Scheduler, *clockwork.FakeClock, *renderRecorder) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))
	rec := &renderRecorder{}
	s := photos.NewScheduler(rec.render, photos.WithClock(clock))
	t.Cleanup(s.Stop)
	return s, clock, rec
}

func set(n, index int) photos.PhotoSet {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://photos.example.com/" + string(rune('a'+i))
	}
	return photos.PhotoSet{URLs: urls, Index: index}
}

// tick advances the fake clock by d and waits for the resulting render
func tick(t *testing.T, clock *clockwork.FakeClock, rec *renderRecorder, d time.Duration) {
	t.Helper()
	before := rec.count()
	clock.Advance(d)
	require.Eventually(t, func() bool { return rec.count() == before+1 }, time.Second, time.Millisecond)
}

func TestScheduler_TicksAdvanceModuloLength(t *testing.T) {
	const interval = 10 * time.Second

	for _, tc := range []struct {
		n, initial, ticks int
	}{
		{n: 2, initial: 0, ticks: 3},
		{n: 3, initial: 1, ticks: 5},
		{n: 5, initial: 4, ticks: 7},
	} {
		s, clock, rec := setupScheduler(t)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)

		s.Start(set(tc.n, tc.initial), interval)
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		require.Equal(t, tc.initial, rec.last(), "start renders the current photo")

		for m := 1; m <= tc.ticks; m++ {
			tick(t, clock, rec, interval)
			require.Equal(t, (tc.initial+m)%tc.n, rec.last())
		}
		_, index, ok := s.Current()
		require.True(t, ok)
		require.Equal(t, (tc.initial+tc.ticks)%tc.n, index)
		cancel()
		s.Stop()
	}
}

func TestScheduler_SmallSetsNeverTick(t *testing.T) {
	for _, n := range []int{0, 1} {
		s, clock, rec := setupScheduler(t)

		s.Start(set(n, 0), 5*time.Second)
		rendered := rec.count()
		require.Equal(t, n, rendered)

		clock.Advance(time.Minute)
		require.Never(t, func() bool { return rec.count() != rendered }, 50*time.Millisecond, 5*time.Millisecond)
	}
}

func TestScheduler_EmptySetAdvanceIsNoop(t *testing.T) {
	s, _, rec := setupScheduler(t)
	s.Start(photos.PhotoSet{}, time.Second)

	s.Advance(1)
	s.Advance(-1)
	require.Zero(t, rec.count())
	_, _, ok := s.Current()
	require.False(t, ok)
}

func TestScheduler_AdvanceRestartsTimer(t *testing.T) {
	const interval = 10 * time.Second
	s, clock, rec := setupScheduler(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.Start(set(4, 0), interval)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(interval - time.Second)
	s.Advance(1)
	require.Equal(t, 1, rec.last())

	// the original timer would have fired here
	clock.Advance(time.Second)
	require.Never(t, func() bool { return rec.count() != 2 }, 50*time.Millisecond, 5*time.Millisecond)
	_, index, _ := s.Current()
	require.Equal(t, 1, index, "no double advance")

	tick(t, clock, rec, interval-time.Second)
	require.Equal(t, 2, rec.last())
}

func TestScheduler_AdvanceBackwardsWraps(t *testing.T) {
	s, _, rec := setupScheduler(t)
	s.Start(set(3, 0), time.Minute)

	s.Advance(-1)
	require.Equal(t, 2, rec.last())
	s.Advance(1)
	require.Equal(t, 0, rec.last())
}

func TestScheduler_RestartReplacesTimer(t *testing.T) {
	const interval = 10 * time.Second
	s, clock, rec := setupScheduler(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.Start(set(3, 0), interval)
	s.Start(set(2, 0), interval)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	tick(t, clock, rec, interval)
	require.Never(t, func() bool { return rec.count() != 3 }, 50*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, 1, rec.last())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	const interval = 10 * time.Second
	s, clock, rec := setupScheduler(t)

	s.Start(set(3, 0), interval)
	s.Stop()
	s.Stop()

	clock.Advance(3 * interval)
	require.Never(t, func() bool { return rec.count() != 1 }, 50*time.Millisecond, 5*time.Millisecond)

	// manual navigation still works while stopped
	s.Advance(1)
	require.Equal(t, 1, rec.last())
}

func TestScheduler_DefaultInterval(t *testing.T) {
	s, clock, rec := setupScheduler(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.Start(set(2, 0), 0)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(photos.DefaultInterval - time.Millisecond)
	require.Never(t, func() bool { return rec.count() != 1 }, 30*time.Millisecond, 5*time.Millisecond)
	tick(t, clock, rec, time.Millisecond)
}

func TestPhotoSet_Step(t *testing.T) {
	p := set(3, 0)
	require.Equal(t, 2, p.Step(-1).Index)
	require.Equal(t, 1, p.Step(4).Index)
	require.Equal(t, 0, photos.PhotoSet{}.Step(1).Index)

	url, ok := p.Current()
	require.True(t, ok)
	require.Equal(t, "https://photos.example.com/a", url)
}
