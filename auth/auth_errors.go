package auth

import (
	"errors"

	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
)

var (
	ErrDenied              = apperrors.ErrDenied
	ErrUnauthorized        = apperrors.ErrUnauthorized
	ErrInteractionRequired = apperrors.ErrInteractionRequired

	ErrDiscarded         = errors.New("authentication discarded by logout")
	ErrUnknownConsent    = errors.New("unknown or expired consent request")
	ErrNoRevokeEndpoint  = errors.New("no revocation endpoint configured")
	ErrProviderMisconfig = errors.New("authorization provider not configured")
)
