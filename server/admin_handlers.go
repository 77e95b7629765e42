package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/settings"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (s *Server) AdminLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Malformed login request", http.StatusBadRequest)
			return
		}
		if !s.admin.checkPassword(req.Password) {
			log.Warn().Str("ip", clientIP(r)).Msg("admin login rejected")
			writeJSONError(w, "invalid_password", "Incorrect password. Try again.", http.StatusUnauthorized)
			return
		}

		signed, err := s.admin.issue()
		if err != nil {
			log.Error().Err(err).Msg("failed to issue admin session")
			writeJSONError(w, "server_error", "Could not start admin session", http.StatusInternalServerError)
			return
		}
		s.setAdminCookie(w, r, signed, int(s.admin.maxAge.Seconds()))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) AdminLogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.setAdminCookie(w, r, "", -1)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) GetSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, err := s.settings.Settings(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to read settings")
			writeJSONError(w, "server_error", "Could not read settings", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, current)
	}
}

// SaveSettingsHandler stores the new settings and reloads the dashboard with them
func (s *Server) SaveSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update settings.Settings
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeJSONError(w, "invalid_request", "Malformed settings", http.StatusBadRequest)
			return
		}
		if update.RefreshIntervalMinutes < 0 {
			writeJSONError(w, "invalid_request", "Refresh interval cannot be negative", http.StatusBadRequest)
			return
		}
		if err := s.settings.SaveSettings(r.Context(), update); err != nil {
			log.Error().Err(err).Msg("failed to save settings")
			writeJSONError(w, "server_error", "Could not save settings", http.StatusInternalServerError)
			return
		}
		s.dashboard.Reset()
		writeJSON(w, http.StatusOK, update)
	}
}
