package widgets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/auth"
	"github.com/shtamir/family-tv-dashboard/calendar"
	"github.com/shtamir/family-tv-dashboard/photos"
	"github.com/shtamir/family-tv-dashboard/settings"
	"github.com/shtamir/family-tv-dashboard/sheets"
	"github.com/shtamir/family-tv-dashboard/source"
	"github.com/shtamir/family-tv-dashboard/weather"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRefreshInterval = 30 * time.Minute

	loginPendingMessage = "Connecting to Google Calendar..."
	loginFailedMessage  = "Login failed. Showing offline events."
	noPhotosMessage     = "No photos available."
)

type ConfigLoader interface {
	Load(ctx context.Context) (settings.Config, error)
}

type SheetReader interface {
	Rows(ctx context.Context, sheetID, sheetName string) ([][]string, error)
}

type Forecaster interface {
	Forecast(ctx context.Context, loc weather.Location) (weather.Daily, error)
}

type AlbumReader interface {
	AlbumPhotos(ctx context.Context, albumID string) ([]string, error)
}

type EventLister interface {
	UpcomingEvents(ctx context.Context) ([]calendar.Event, error)
}

// LiveSources are the network-backed data sources
type LiveSources struct {
	Sheets   SheetReader
	Weather  Forecaster
	Photos   AlbumReader
	Calendar EventLister
}

// OfflineSources are the bundled payloads, offline.Bundle implements it
type OfflineSources interface {
	Messages(ctx context.Context) ([]string, error)
	Todos(ctx context.Context) ([]string, error)
	Photos(ctx context.Context) ([]string, error)
	Weather(ctx context.Context) (weather.Daily, error)
	Calendar(ctx context.Context) ([]calendar.Event, error)
}

// View is the dashboard as served to the kiosk page
type View struct {
	Language string   `json:"language,omitempty"`
	Theme    string   `json:"theme,omitempty"`
	Widgets  []Widget `json:"widgets"`
}

// Dashboard loads every widget through its live and offline sources and renders the
// outcome on the Board.
type Dashboard struct {
	config    ConfigLoader
	live      LiveSources
	offline   OfflineSources
	scheduler *photos.Scheduler
	board     *Board
	clock     clockwork.Clock

	mu     sync.RWMutex
	cfg    settings.Config
	reload chan struct{}

	loadMu   sync.Mutex
	inflight map[string]bool
}

type Option func(*Dashboard)

func WithClock(clock clockwork.Clock) Option {
	return func(d *Dashboard) {
		d.clock = clock
	}
}

func NewDashboard(config ConfigLoader, live LiveSources, offline OfflineSources, scheduler *photos.Scheduler, board *Board, options ...Option) *Dashboard {
	d := &Dashboard{
		config:    config,
		live:      live,
		offline:   offline,
		scheduler: scheduler,
		board:     board,
		clock:     clockwork.NewRealClock(),
		reload:    make(chan struct{}, 1),
		inflight:  make(map[string]bool, len(All)),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *Dashboard) Board() *Board {
	return d.board
}

func (d *Dashboard) Scheduler() *photos.Scheduler {
	return d.scheduler
}

func (d *Dashboard) View() View {
	d.mu.RLock()
	cfg := d.cfg
	d.mu.RUnlock()
	return View{Language: cfg.Language, Theme: cfg.Theme, Widgets: d.board.Snapshot()}
}

// Load reads the configuration and resolves all widgets concurrently. A widget that ends up
// unavailable does not affect the others. A widget whose previous load has not finished is
// left alone.
func (d *Dashboard) Load(ctx context.Context) error {
	g, err := d.start(ctx)
	if err != nil {
		return err
	}
	return g.Wait()
}

// start reads the configuration and launches the widget loads without waiting for them
func (d *Dashboard) start(ctx context.Context) (*errgroup.Group, error) {
	cfg, err := d.config.Load(ctx)
	if err != nil {
		for _, name := range All {
			d.board.MarkUnavailable(name, err)
		}
		return nil, fmt.Errorf("[Dashboard Load] %w", err)
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	loads := map[string]func(){
		Messages: func() { d.loadMessages(ctx, cfg) },
		Todos:    func() { d.loadTodos(ctx, cfg) },
		Photos:   func() { d.loadPhotos(ctx, cfg) },
		Weather:  func() { d.loadWeather(ctx, cfg) },
		Calendar: func() { d.loadCalendar(ctx) },
	}
	g := &errgroup.Group{}
	for _, name := range All {
		if !d.claim(name) {
			log.Debug().Str("widget", name).Msg("previous load still running; skipping")
			continue
		}
		g.Go(func() error {
			defer d.release(name)
			loads[name]()
			return nil
		})
	}
	return g, nil
}

// claim marks name as loading; it returns false when a load of name is already running
func (d *Dashboard) claim(name string) bool {
	d.loadMu.Lock()
	defer d.loadMu.Unlock()
	if d.inflight[name] {
		return false
	}
	d.inflight[name] = true
	return true
}

func (d *Dashboard) release(name string) {
	d.loadMu.Lock()
	defer d.loadMu.Unlock()
	delete(d.inflight, name)
}

func resolve[T any](ctx context.Context, board *Board, name string, live, offline source.Fetch[T]) (source.Result[T], bool) {
	board.MarkLoading(name)
	res, err := source.Resolve(ctx, name, live, offline)
	if err != nil {
		board.MarkUnavailable(name, err)
		return res, false
	}
	return res, true
}

func (d *Dashboard) sheetColumn(sheet string, cfg settings.Config) source.Fetch[[]string] {
	return func(ctx context.Context) ([]string, error) {
		rows, err := d.live.Sheets.Rows(ctx, cfg.SheetID, sheet)
		if err != nil {
			return nil, err
		}
		return sheets.FirstColumn(rows), nil
	}
}

func (d *Dashboard) loadMessages(ctx context.Context, cfg settings.Config) {
	if res, ok := resolve(ctx, d.board, Messages, d.sheetColumn(sheets.SheetMessages, cfg), d.offline.Messages); ok {
		d.board.Render(Messages, res.Origin, res.Value)
	}
}

func (d *Dashboard) loadTodos(ctx context.Context, cfg settings.Config) {
	if res, ok := resolve(ctx, d.board, Todos, d.sheetColumn(sheets.SheetTodo, cfg), d.offline.Todos); ok {
		d.board.Render(Todos, res.Origin, res.Value)
	}
}

func (d *Dashboard) loadPhotos(ctx context.Context, cfg settings.Config) {
	if !cfg.Features.PhotosEnabled() {
		d.scheduler.Stop()
		d.board.MarkDisabled(Photos)
		return
	}

	live := func(ctx context.Context) ([]string, error) {
		return d.live.Photos.AlbumPhotos(ctx, cfg.GooglePhotosAlbumID)
	}
	res, ok := resolve(ctx, d.board, Photos, live, d.offline.Photos)
	if !ok {
		d.scheduler.Stop()
		return
	}
	if len(res.Value) == 0 {
		d.scheduler.Stop()
		d.board.MarkUnavailable(Photos, nil)
		d.board.SetMessage(Photos, noPhotosMessage)
		return
	}

	set := photos.NewPhotoSet(res.Value)
	if prev := d.scheduler.Set(); prev.Len() > 0 && prev.Index < set.Len() {
		set.Index = prev.Index
	}
	d.board.Render(Photos, res.Origin, PhotoFrame{Count: set.Len()})
	d.scheduler.Start(set, time.Duration(cfg.PhotoRotationIntervalSeconds)*time.Second)
}

func (d *Dashboard) loadWeather(ctx context.Context, cfg settings.Config) {
	if !cfg.Features.WeatherEnabled() {
		d.board.MarkDisabled(Weather)
		return
	}

	live := func(ctx context.Context) (weather.Daily, error) {
		return d.live.Weather.Forecast(ctx, weather.Location{Latitude: cfg.Latitude, Longitude: cfg.Longitude})
	}
	if res, ok := resolve(ctx, d.board, Weather, live, d.offline.Weather); ok {
		d.board.Render(Weather, res.Origin, res.Value)
	}
}

func (d *Dashboard) projected(fetch source.Fetch[[]calendar.Event]) source.Fetch[[]calendar.Event] {
	return func(ctx context.Context) ([]calendar.Event, error) {
		events, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return calendar.Project(events), nil
	}
}

func (d *Dashboard) loadCalendar(ctx context.Context) {
	res, ok := resolve(ctx, d.board, Calendar, d.projected(d.live.Calendar.UpcomingEvents), d.projected(d.offline.Calendar))
	if ok {
		d.board.Render(Calendar, res.Origin, res.Value)
	}
}

// LoginCalendar is the calendar login button: it fetches events on behalf of an explicit
// user action, which allows a consent prompt. A failed login keeps the events on screen and
// shows a message.
func (d *Dashboard) LoginCalendar(ctx context.Context) error {
	d.board.SetMessage(Calendar, loginPendingMessage)

	events, err := d.live.Calendar.UpcomingEvents(auth.WithUserGesture(ctx))
	if err != nil {
		log.Error().Err(err).Msg("calendar login failed")
		if w, _ := d.board.Get(Calendar); w.Status != StatusReady && d.claim(Calendar) {
			d.loadCalendar(ctx)
			d.release(Calendar)
		}
		d.board.SetMessage(Calendar, loginFailedMessage)
		return fmt.Errorf("[LoginCalendar] %w", err)
	}

	d.board.Render(Calendar, source.OriginLive, calendar.Project(events))
	return nil
}

// Reset drops all widget state after a logout or a settings change and schedules a reload
func (d *Dashboard) Reset() {
	d.scheduler.Stop()
	d.board.MarkLoading(All...)
	select {
	case d.reload <- struct{}{}:
	default:
	}
}

func (d *Dashboard) refreshInterval() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.cfg.RefreshIntervalMinutes <= 0 {
		return DefaultRefreshInterval
	}
	return time.Duration(d.cfg.RefreshIntervalMinutes) * time.Minute
}

// Run loads the dashboard, then reloads it every refresh interval and after each Reset
// until ctx ends. Widget fetches run in the background so a slow widget never holds up the
// others or the next reload.
func (d *Dashboard) Run(ctx context.Context) {
	defer d.scheduler.Stop()
	var wg sync.WaitGroup
	defer wg.Wait()

	load := func() {
		g, err := d.start(ctx)
		if err != nil {
			log.Error().Err(err).Msg("dashboard load failed")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Wait()
		}()
	}
	load()

	interval := d.refreshInterval()
	ticker := d.clock.NewTicker(interval)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			load()
		case <-d.reload:
			load()
		}
		if next := d.refreshInterval(); next != interval {
			interval = next
			ticker.Reset(interval)
		}
	}
}
