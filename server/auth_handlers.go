package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/auth"
)

// loginRedirectTimeout bounds how long /auth/login waits for either a consent URL or a
// finished login before giving up on the browser request. The login itself keeps going.
const loginRedirectTimeout = 15 * time.Second

type authStatusResponse struct {
	auth.Status
	ConsentURL string `json:"consent_url,omitempty"`
}

// LoginHandler starts the calendar login on behalf of the user and sends the browser to the
// provider's consent page when one is needed.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The consent round trip outlives this request
		loginCtx := context.WithoutCancel(r.Context())
		done := make(chan error, 1)
		go func() {
			done <- s.dashboard.LoginCalendar(loginCtx)
		}()

		ctx, cancel := context.WithTimeout(r.Context(), loginRedirectTimeout)
		defer cancel()

		pending := make(chan string, 1)
		go func() {
			if authURL, err := s.consent.WaitForPending(ctx); err == nil {
				pending <- authURL
			}
		}()

		select {
		case authURL := <-pending:
			http.Redirect(w, r, authURL, http.StatusFound)
		case err := <-done:
			if err != nil {
				log.Warn().Err(err).Msg("calendar login failed")
				redirectWithError(w, r, "/", "Login failed. Showing offline events.")
				return
			}
			redirectSuccess(w, r, "/")
		case <-ctx.Done():
			writeJSONError(w, "timeout", "Timed out waiting for the Google login to start", http.StatusGatewayTimeout)
		}
	}
}

// OAuthCallbackHandler receives the provider redirect and resumes the waiting login
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		if state == "" {
			writeJSONError(w, "invalid_request", "Missing state parameter", http.StatusBadRequest)
			return
		}

		result := auth.ConsentResult{
			Code:             r.FormValue("code"),
			Error:            r.FormValue("error"),
			ErrorDescription: r.FormValue("error_description"),
		}
		if err := s.consent.Complete(state, result); err != nil {
			if errors.Is(err, auth.ErrUnknownConsent) {
				writeJSONError(w, "invalid_request", "Invalid state parameter", http.StatusBadRequest)
				return
			}
			log.Error().Err(err).Msg("failed to complete consent")
			writeJSONError(w, "server_error", "Could not complete the login", http.StatusInternalServerError)
			return
		}

		if result.Error != "" {
			redirectWithError(w, r, "/", "Login failed. Showing offline events.")
			return
		}
		redirectSuccess(w, r, "/")
	}
}

// LogoutHandler revokes the Google token and resets every widget
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.session.Logout(r.Context())
		writeJSON(w, http.StatusOK, s.session.Status())
	}
}

func (s *Server) AuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := authStatusResponse{Status: s.session.Status()}
		resp.ConsentURL, _ = s.consent.PendingURL()
		writeJSON(w, http.StatusOK, resp)
	}
}

func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(errorMsg), http.StatusSeeOther)
}
