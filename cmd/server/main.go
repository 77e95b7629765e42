package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/auth"
	"github.com/shtamir/family-tv-dashboard/auth/authflowrepo"
	"github.com/shtamir/family-tv-dashboard/calendar"
	"github.com/shtamir/family-tv-dashboard/internal/config"
	"github.com/shtamir/family-tv-dashboard/internal/logging"
	"github.com/shtamir/family-tv-dashboard/kvstore/sqlite"
	"github.com/shtamir/family-tv-dashboard/offline"
	"github.com/shtamir/family-tv-dashboard/photos"
	"github.com/shtamir/family-tv-dashboard/server"
	"github.com/shtamir/family-tv-dashboard/settings"
	"github.com/shtamir/family-tv-dashboard/sheets"
	"github.com/shtamir/family-tv-dashboard/token"
	"github.com/shtamir/family-tv-dashboard/weather"
	"github.com/shtamir/family-tv-dashboard/widgets"
	"golang.org/x/oauth2"
)

// Used when the discovery document cannot be fetched at startup
var fallbackEndpoint = auth.Endpoints{
	OAuth2: oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	},
	Revocation: "https://oauth2.googleapis.com/revoke",
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %s\n", err)
	}

	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	_, logCloser, err := logging.New(logging.Config{Level: c.GetLogLevel(), File: c.GetLogFile(), Dev: c.GetEnv() == "DEV"})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := sqlite.Open(ctx, c.GetDBFile())
	if err != nil {
		return fmt.Errorf("[run] open store: %w", err)
	}
	defer store.Close()

	httpClient := &http.Client{Timeout: c.GetHTTPTimeout()}
	consent := auth.NewConsentBroker()
	provider := newProvider(ctx, c, store, consent, httpClient)

	session := auth.NewSession(provider, token.NewStore(store), auth.WithInteractivePolicy(c.GetInteractivePolicy()))
	defer session.Close()
	fetcher := auth.NewFetcher(session, httpClient)

	board := widgets.NewBoard(nil)
	scheduler := photos.NewScheduler(board.RenderPhoto)
	defer scheduler.Stop()

	loader := settings.NewLoader(store, c.GetConfigFile(), c.GetDefaultConfigFile())
	dashboard := widgets.NewDashboard(
		loader,
		widgets.LiveSources{
			Sheets:   sheets.NewClient(httpClient, c.GetSheetsBaseURL()),
			Weather:  weather.NewClient(httpClient, c.GetWeatherBaseURL(), c.GetLocationBaseURL(), store),
			Photos:   photos.NewClient(fetcher, c.GetPhotosBaseURL()),
			Calendar: calendar.NewClient(fetcher, c.GetCalendarBaseURL()),
		},
		offline.NewBundle(nil),
		scheduler,
		board,
	)
	session.OnReset(dashboard.Reset)

	srv, err := server.New(c, server.Deps{
		Dashboard: dashboard,
		Session:   session,
		Consent:   consent,
		Settings:  loader,
	})
	if err != nil {
		return fmt.Errorf("[run] create server: %w", err)
	}
	defer srv.Close()

	go dashboard.Run(ctx)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	cancel()
	return shutdown(httpServer)
}

func newProvider(ctx context.Context, c config.Config, store *sqlite.Store, consent *auth.ConsentBroker, httpClient *http.Client) auth.Provider {
	if c.GetOAuthClientID() == "" {
		log.Warn().Msg("OAUTH_CLIENT_ID not set, calendar and photos will use offline data")
		return auth.UnconfiguredProvider{}
	}

	endpoints, err := auth.Discover(ctx, c.GetOAuthIssuerURL(), c.GetOAuthClientID())
	if err != nil {
		log.Warn().Err(err).Msg("provider discovery failed, using built-in endpoints")
		endpoints = fallbackEndpoint
	}

	options := []auth.OAuth2ProviderOption{
		auth.WithHTTPClient(httpClient),
		auth.WithRevocationURL(endpoints.Revocation),
	}
	if endpoints.Verifier != nil {
		options = append(options, auth.WithIDTokenVerifier(endpoints.Verifier))
	}

	provider, err := auth.NewOAuth2Provider(&oauth2.Config{
		ClientID:     c.GetOAuthClientID(),
		ClientSecret: c.GetOAuthClientSecret(),
		Endpoint:     endpoints.OAuth2,
		RedirectURL:  c.GetOAuthRedirectURL(),
		Scopes:       append([]string{"openid"}, c.GetOAuthScopes()...),
	}, store, authflowrepo.NewInMemoryRepo(), consent, options...)
	if err != nil {
		log.Error().Err(err).Msg("authorization provider misconfigured, using offline data")
		return auth.UnconfiguredProvider{}
	}
	return provider
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
