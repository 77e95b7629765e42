package server

// Route path constants
const (
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Kiosk API
	RouteWidgets       = "/api/widgets"
	RouteWidget        = "/api/widgets/{name}"
	RoutePhotoCurrent  = "/api/photos/current"
	RoutePhotoNext     = "/api/photos/next"
	RoutePhotoPrevious = "/api/photos/previous"

	// Google account
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"
	RouteAuthStatus = "/auth/status"
	RouteCallback   = "/callback"

	// Admin
	RouteAdminLogin    = "/admin/login"
	RouteAdminLogout   = "/admin/logout"
	RouteAdminSettings = "/admin/settings"
)
