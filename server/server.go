package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/auth"
	"github.com/shtamir/family-tv-dashboard/internal/config"
	"github.com/shtamir/family-tv-dashboard/internal/metrics"
	"github.com/shtamir/family-tv-dashboard/photos"
	"github.com/shtamir/family-tv-dashboard/settings"
	"github.com/shtamir/family-tv-dashboard/widgets"
	"golang.org/x/time/rate"
)

// Dashboard is the widget state served to the kiosk page
type Dashboard interface {
	View() widgets.View
	Board() *widgets.Board
	Scheduler() *photos.Scheduler
	LoginCalendar(ctx context.Context) error
	Reset()
}

// Session is the Google account behind the calendar widget
type Session interface {
	Status() auth.Status
	Logout(ctx context.Context)
}

type SettingsStore interface {
	Settings(ctx context.Context) (settings.Settings, error)
	SaveSettings(ctx context.Context, s settings.Settings) error
}

type Deps struct {
	Dashboard Dashboard
	Session   Session
	Consent   *auth.ConsentBroker
	Settings  SettingsStore
	Clock     clockwork.Clock
}

type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	mux          *http.ServeMux
	handler      http.Handler
	routes       []string
	config       config.Config
	clock        clockwork.Clock
	dashboard    Dashboard
	session      Session
	consent      *auth.ConsentBroker
	settings     SettingsStore
	admin        *adminAuth
	loginLimiter *IPRateLimiter
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	admin, err := newAdminAuth(cfg, clock.Now)
	if err != nil {
		return nil, err
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		clock:     clock,
		dashboard: deps.Dashboard,
		session:   deps.Session,
		consent:   deps.Consent,
		settings:  deps.Settings,
		admin:     admin,
		// Login endpoints: 5 requests per second, burst of 10
		loginLimiter: NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, clock),
	}
	s.handler = middleware.RequestID(middleware.RealIP(middleware.Recoverer(s.mux)))

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close releases background resources held by the server
func (s *Server) Close() {
	s.loginLimiter.Close()
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// RegisterRouteFunc registers handler and records request metrics under pattern
func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, metrics.Middleware(pattern)(handler))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%s] %s", colouredMethod(method), path)
}
