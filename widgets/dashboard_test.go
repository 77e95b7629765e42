package widgets_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shtamir/family-tv-dashboard/auth"
	"github.com/shtamir/family-tv-dashboard/calendar"
	"github.com/shtamir/family-tv-dashboard/internal/utils"
	kvrepofake "github.com/shtamir/family-tv-dashboard/kvstore/repofake"
	"github.com/shtamir/family-tv-dashboard/offline"
	"github.com/shtamir/family-tv-dashboard/photos"
	"github.com/shtamir/family-tv-dashboard/settings"
	"github.com/shtamir/family-tv-dashboard/source"
	"github.com/shtamir/family-tv-dashboard/token"
	"github.com/shtamir/family-tv-dashboard/weather"
	"github.com/shtamir/family-tv-dashboard/widgets"
	"github.com/stretchr/testify/require"
)

var errNetwork = errors.New("network down")

type fakeConfig struct {
	mu    sync.Mutex
	cfg   settings.Config
	err   error
	calls int
}

func (f *fakeConfig) Load(context.Context) (settings.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.cfg, f.err
}

func (f *fakeConfig) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSheets struct{ err error }

func (f fakeSheets) Rows(_ context.Context, _, sheetName string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return [][]string{{sheetName + " 1"}, {sheetName + " 2"}}, nil
}

type fakeWeather struct{ err error }

func (f fakeWeather) Forecast(context.Context, weather.Location) (weather.Daily, error) {
	if f.err != nil {
		return weather.Daily{}, f.err
	}
	return weather.Daily{Time: []string{"2025-05-01"}, WeatherCode: []int{1}, TempMax: []float64{25}, TempMin: []float64{15}}, nil
}

type fakeAlbum struct {
	calls atomic.Int32
	err   error
	urls  []string
}

func (f *fakeAlbum) AlbumPhotos(context.Context, string) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if f.urls != nil {
		return f.urls, nil
	}
	return []string{"https://lh3/a", "https://lh3/b", "https://lh3/c"}, nil
}

type fakeCalendar struct {
	mu      sync.Mutex
	err     error
	gesture []bool
	events  []calendar.Event
}

func (f *fakeCalendar) UpcomingEvents(ctx context.Context) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gesture = append(f.gesture, auth.IsUserGesture(ctx))
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

// blockingCalendar never answers until its context ends
type blockingCalendar struct {
	calls atomic.Int32
}

func (c *blockingCalendar) UpcomingEvents(ctx context.Context) ([]calendar.Event, error) {
	c.calls.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

type dashboardFixture struct {
	clock     *clockwork.FakeClock
	config    *fakeConfig
	album     *fakeAlbum
	calendar  *fakeCalendar
	board     *widgets.Board
	scheduler *photos.Scheduler
	dashboard *widgets.Dashboard
}

func day(d int) time.Time {
	return time.Date(2025, 5, d, 9, 0, 0, 0, time.UTC)
}

func setupDashboard(t *testing.T, live widgets.LiveSources) *dashboardFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))
	f := &dashboardFixture{
		clock:    clock,
		config:   &fakeConfig{cfg: settings.Config{SheetID: "s1", GooglePhotosAlbumID: "a1"}},
		album:    &fakeAlbum{},
		calendar: &fakeCalendar{},
		board:    widgets.NewBoard(clock),
	}
	if live.Sheets == nil {
		live.Sheets = fakeSheets{}
	}
	if live.Weather == nil {
		live.Weather = fakeWeather{}
	}
	if live.Photos == nil {
		live.Photos = f.album
	}
	if live.Calendar == nil {
		live.Calendar = f.calendar
	}
	f.scheduler = photos.NewScheduler(f.board.RenderPhoto, photos.WithClock(clock))
	t.Cleanup(f.scheduler.Stop)
	f.dashboard = widgets.NewDashboard(f.config, live, offline.NewBundle(nil), f.scheduler, f.board, widgets.WithClock(clock))
	return f
}

func (f *dashboardFixture) widget(t *testing.T, name string) widgets.Widget {
	t.Helper()
	w, ok := f.board.Get(name)
	require.True(t, ok)
	return w
}

func TestDashboard_LoadLive(t *testing.T) {
	f := setupDashboard(t, widgets.LiveSources{})
	f.calendar.events = []calendar.Event{{Title: "later", Start: day(3)}, {Title: "sooner", Start: day(2)}}

	require.NoError(t, f.dashboard.Load(context.Background()))

	for _, name := range widgets.All {
		w := f.widget(t, name)
		require.Equal(t, widgets.StatusReady, w.Status, name)
		require.Equal(t, source.OriginLive, w.Origin, name)
	}
	require.Equal(t, []string{"Messages 1", "Messages 2"}, f.widget(t, widgets.Messages).Data)
	require.Equal(t, []string{"ToDo 1", "ToDo 2"}, f.widget(t, widgets.Todos).Data)

	events := f.widget(t, widgets.Calendar).Data.([]calendar.Event)
	require.Equal(t, "sooner", events[0].Title)
	require.Equal(t, []bool{false}, f.calendar.gesture, "background loads never carry a user gesture")

	url, index, ok := f.scheduler.Current()
	require.True(t, ok)
	require.Equal(t, "https://lh3/a", url)
	require.Zero(t, index)
	require.Equal(t, widgets.PhotoFrame{URL: "https://lh3/a", Count: 3}, f.widget(t, widgets.Photos).Data)
}

func TestDashboard_LoadOffline(t *testing.T) {
	album := &fakeAlbum{err: errNetwork}
	f := setupDashboard(t, widgets.LiveSources{
		Sheets:  fakeSheets{err: errNetwork},
		Weather: fakeWeather{err: errNetwork},
		Photos:  album,
	})
	f.calendar.err = auth.ErrDenied

	require.NoError(t, f.dashboard.Load(context.Background()))

	for _, name := range widgets.All {
		w := f.widget(t, name)
		require.Equal(t, widgets.StatusReady, w.Status, name)
		require.Equal(t, source.OriginOffline, w.Origin, name)
	}
	events := f.widget(t, widgets.Calendar).Data.([]calendar.Event)
	require.LessOrEqual(t, len(events), calendar.MaxProjected)
	for i := 1; i < len(events); i++ {
		require.False(t, events[i].Start.Before(events[i-1].Start))
	}
	_, _, ok := f.scheduler.Current()
	require.True(t, ok, "offline photos start the rotation")
}

func TestDashboard_RefreshKeepsPhotoPosition(t *testing.T) {
	ctx := context.Background()
	f := setupDashboard(t, widgets.LiveSources{})
	require.NoError(t, f.dashboard.Load(ctx))

	f.scheduler.Advance(1)
	f.scheduler.Advance(1)
	require.NoError(t, f.dashboard.Load(ctx))

	url, index, ok := f.scheduler.Current()
	require.True(t, ok)
	require.Equal(t, "https://lh3/c", url)
	require.Equal(t, 2, index)
	require.Equal(t, widgets.PhotoFrame{URL: "https://lh3/c", Index: 2, Count: 3}, f.widget(t, widgets.Photos).Data)

	f.album.urls = []string{"https://lh3/x", "https://lh3/y"}
	require.NoError(t, f.dashboard.Load(ctx))

	url, index, ok = f.scheduler.Current()
	require.True(t, ok)
	require.Equal(t, "https://lh3/x", url)
	require.Zero(t, index)
}

func TestDashboard_EmptyAlbum(t *testing.T) {
	f := setupDashboard(t, widgets.LiveSources{})
	f.album.urls = []string{}

	require.NoError(t, f.dashboard.Load(context.Background()))

	w := f.widget(t, widgets.Photos)
	require.Equal(t, widgets.StatusUnavailable, w.Status)
	require.Equal(t, "No photos available.", w.Message)
	_, _, ok := f.scheduler.Current()
	require.False(t, ok)
}

func TestDashboard_UnavailableWidgetIsIsolated(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := widgets.NewBoard(clock)
	scheduler := photos.NewScheduler(board.RenderPhoto, photos.WithClock(clock))
	defer scheduler.Stop()

	emptyBundle := offline.NewBundle(emptyFS{})
	d := widgets.NewDashboard(&fakeConfig{cfg: settings.Config{SheetID: "s1"}}, widgets.LiveSources{
		Sheets:   fakeSheets{err: errNetwork},
		Weather:  fakeWeather{},
		Photos:   &fakeAlbum{},
		Calendar: &fakeCalendar{},
	}, emptyBundle, scheduler, board)

	require.NoError(t, d.Load(context.Background()))

	messages, _ := board.Get(widgets.Messages)
	require.Equal(t, widgets.StatusUnavailable, messages.Status)
	require.Contains(t, messages.Error, "network down")

	weatherWidget, _ := board.Get(widgets.Weather)
	require.Equal(t, widgets.StatusReady, weatherWidget.Status)
}

func TestDashboard_FeatureFlags(t *testing.T) {
	f := setupDashboard(t, widgets.LiveSources{})
	f.config.cfg.Features = settings.Features{Weather: utils.Ptr(false), Photos: utils.Ptr(false)}

	require.NoError(t, f.dashboard.Load(context.Background()))

	require.Equal(t, widgets.StatusDisabled, f.widget(t, widgets.Photos).Status)
	require.Equal(t, widgets.StatusDisabled, f.widget(t, widgets.Weather).Status)
	require.Zero(t, f.album.calls.Load())
	_, _, ok := f.scheduler.Current()
	require.False(t, ok)
}

func TestDashboard_ConfigFailure(t *testing.T) {
	f := setupDashboard(t, widgets.LiveSources{})
	f.config.err = errors.New("no configuration")

	require.Error(t, f.dashboard.Load(context.Background()))
	for _, name := range widgets.All {
		require.Equal(t, widgets.StatusUnavailable, f.widget(t, name).Status)
	}
}

// fakeProvider counts every token request; the photo path must never reach it without an album
type fakeProvider struct {
	calls atomic.Int32
}

func (p *fakeProvider) RequestToken(context.Context, auth.PromptMode) (token.Token, error) {
	p.calls.Add(1)
	return token.Token{Value: "t", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) Revoke(context.Context, string) error {
	return nil
}

func TestDashboard_NoAlbumGoesStraightOffline(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	provider := &fakeProvider{}
	session := auth.NewSession(provider, token.NewStore(kvrepofake.NewFakeKVStore()))
	defer session.Close()
	fetcher := auth.NewFetcher(session, srv.Client())

	f := setupDashboard(t, widgets.LiveSources{Photos: photos.NewClient(fetcher, srv.URL)})
	f.config.cfg.GooglePhotosAlbumID = ""

	require.NoError(t, f.dashboard.Load(context.Background()))

	w := f.widget(t, widgets.Photos)
	require.Equal(t, widgets.StatusReady, w.Status)
	require.Equal(t, source.OriginOffline, w.Origin)
	require.Zero(t, provider.calls.Load(), "no authentication attempt")
	require.Zero(t, hits.Load(), "no network call")
	require.Equal(t, auth.StateUnauthenticated, session.State())
}

func TestDashboard_LoginCalendar(t *testing.T) {
	ctx := context.Background()

	t.Run("denied login keeps offline events and shows a message", func(t *testing.T) {
		f := setupDashboard(t, widgets.LiveSources{})
		f.calendar.err = auth.ErrDenied
		require.NoError(t, f.dashboard.Load(ctx))

		err := f.dashboard.LoginCalendar(ctx)
		require.ErrorIs(t, err, auth.ErrDenied)

		w := f.widget(t, widgets.Calendar)
		require.Equal(t, widgets.StatusReady, w.Status)
		require.Equal(t, source.OriginOffline, w.Origin)
		require.Equal(t, "Login failed. Showing offline events.", w.Message)
		require.Equal(t, []bool{false, true}, f.calendar.gesture)
	})

	t.Run("successful login renders live events", func(t *testing.T) {
		f := setupDashboard(t, widgets.LiveSources{})
		f.calendar.events = []calendar.Event{{Title: "swim", Start: day(2)}}

		require.NoError(t, f.dashboard.LoginCalendar(ctx))
		w := f.widget(t, widgets.Calendar)
		require.Equal(t, source.OriginLive, w.Origin)
		require.Empty(t, w.Message)
		require.Equal(t, []bool{true}, f.calendar.gesture)
	})
}

func TestDashboard_RunReloads(t *testing.T) {
	f := setupDashboard(t, widgets.LiveSources{})
	f.config.cfg.RefreshIntervalMinutes = 5
	f.config.cfg.PhotoRotationIntervalSeconds = 3600
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.dashboard.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.config.callCount() == 1 }, time.Second, time.Millisecond)
	// refresh ticker and photo rotation ticker
	require.NoError(t, f.clock.BlockUntilContext(ctx, 2))

	f.dashboard.Reset()
	require.Eventually(t, func() bool { return f.config.callCount() == 2 }, time.Second, time.Millisecond)

	f.clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return f.config.callCount() == 3 }, time.Second, time.Millisecond)

	cancel()
	<-done
	_, _, ok := f.scheduler.Current()
	require.True(t, ok)
}

func TestDashboard_ResetMarksLoading(t *testing.T) {
	f := setupDashboard(t, widgets.LiveSources{})
	require.NoError(t, f.dashboard.Load(context.Background()))

	f.dashboard.Reset()
	for _, w := range f.dashboard.View().Widgets {
		require.Equal(t, widgets.StatusLoading, w.Status)
	}
}

func TestDashboard_StuckWidgetDoesNotHoldUpReload(t *testing.T) {
	stuck := &blockingCalendar{}
	f := setupDashboard(t, widgets.LiveSources{Calendar: stuck})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.dashboard.Run(ctx)
		close(done)
	}()

	ready := func(name string) bool {
		w, _ := f.board.Get(name)
		return w.Status == widgets.StatusReady
	}
	require.Eventually(t, func() bool { return ready(widgets.Messages) }, time.Second, time.Millisecond)

	f.dashboard.Reset()
	require.Eventually(t, func() bool {
		return f.config.callCount() == 2 && ready(widgets.Messages) && ready(widgets.Weather)
	}, time.Second, time.Millisecond)

	require.Equal(t, widgets.StatusLoading, f.widget(t, widgets.Calendar).Status)
	require.Equal(t, int32(1), stuck.calls.Load(), "no second fetch while the first is pending")

	cancel()
	<-done
}
