package server

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminCookieName = "dashboard_admin"
	adminSubject    = "admin"
)

var ErrInvalidAdminSession = errors.New("invalid admin session")

// adminAuth guards the settings page with a single shared password and a signed session cookie
type adminAuth struct {
	hash    []byte
	secret  []byte
	maxAge  time.Duration
	nowFunc func() time.Time
}

func newAdminAuth(cfg config.AdminConfig, now func() time.Time) (*adminAuth, error) {
	a := &adminAuth{
		maxAge:  cfg.GetAdminSessionAge(),
		nowFunc: now,
	}

	if h := cfg.GetAdminPasswordHash(); h != "" {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("[newAdminAuth] ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
		a.hash = []byte(h)
	} else {
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.GetAdminPassword()), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("[newAdminAuth] hash admin password: %w", err)
		}
		a.hash = h
	}

	if secret := cfg.GetAdminJWTSecret(); secret != "" {
		a.secret = []byte(secret)
	} else {
		log.Warn().Msg("ADMIN_JWT_SECRET not set, admin sessions will not survive a restart")
		a.secret = make([]byte, 32)
		if _, err := rand.Read(a.secret); err != nil {
			return nil, fmt.Errorf("[newAdminAuth] generate session secret: %w", err)
		}
	}
	return a, nil
}

func (a *adminAuth) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
}

func (a *adminAuth) issue() (string, error) {
	now := a.nowFunc()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.maxAge)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign admin session")
	}
	return signed, nil
}

func (a *adminAuth) verify(raw string) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(adminSubject),
		jwt.WithTimeFunc(a.nowFunc),
	)
	if err != nil {
		return errors.Wrap(ErrInvalidAdminSession, err.Error())
	}
	return nil
}

func (s *Server) setAdminCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

// RequireAdmin rejects requests without a valid admin session cookie
func (s *Server) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err != nil {
			writeJSONError(w, "unauthorized", "Admin login required", http.StatusUnauthorized)
			return
		}
		if err := s.admin.verify(cookie.Value); err != nil {
			log.Debug().Err(err).Msg("rejected admin session")
			writeJSONError(w, "unauthorized", "Admin session expired", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
