package authflowrepo

import (
	"errors"
	"time"

	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
)

var (
	ErrEmptyState = errors.New("state cannot be empty")
	ErrNotFound   = apperrors.ErrNotFound
)

// AuthFlowState is the client side of one interactive consent request, keyed by its OAuth state
type AuthFlowState struct {
	CodeVerifier string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	// Take returns the flow and removes it, so an authorization code is redeemed at most once
	Take(state string) (*AuthFlowState, error)
	Delete(state string) error
}
