package kvstore

import "context"

// Keys persisted by the dashboard.
const (
	KeyToken            = "familyDashboardToken"
	KeyTokenExpiry      = "familyDashboardTokenExpiry"
	KeyTokenIssued      = "familyDashboardTokenIssued"
	KeyRefreshGrant     = "familyDashboardRefreshGrant"
	KeyConfig           = "familyDashboardConfig"
	KeySettings         = "familyDashboardSettings"
	KeyDetectedLocation = "familyDashboardDetectedLocation"
)

// Store is durable key to string storage surviving restarts.
// Get returns errors.ErrNotFound for absent keys. Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
