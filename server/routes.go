package server

import (
	"net/http"

	"github.com/shtamir/family-tv-dashboard/internal/metrics"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.config.GetMetricsEnabled() {
		s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())
	}

	s.RegisterRouteFunc("GET "+RouteWidgets, ChainMiddleware(s.WidgetsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteWidget, ChainMiddleware(s.WidgetHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RoutePhotoCurrent, ChainMiddleware(s.CurrentPhotoHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RoutePhotoNext, ChainMiddleware(s.StepPhotoHandler(1), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RoutePhotoPrevious, ChainMiddleware(s.StepPhotoHandler(-1), s.APIMiddleware()...))

	// Google account
	s.RegisterRouteFunc("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare(s.loginLimiter.Middleware)...))
	s.RegisterRouteFunc("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare(s.loginLimiter.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthStatus, ChainMiddleware(s.AuthStatusHandler(), s.APIMiddleware()...))

	// Admin
	s.RegisterRouteFunc("POST "+RouteAdminLogin, ChainMiddleware(s.AdminLoginHandler(), s.APIMiddleware(s.loginLimiter.Middleware)...))
	s.RegisterRouteFunc("POST "+RouteAdminLogout, ChainMiddleware(s.AdminLogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAdminSettings, ChainMiddleware(s.GetSettingsHandler(), s.APIMiddleware(s.RequireAdmin)...))
	s.RegisterRouteFunc("PUT "+RouteAdminSettings, ChainMiddleware(s.SaveSettingsHandler(), s.APIMiddleware(s.RequireAdmin)...))
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
