package config

import "time"

type AdminConfig interface {
	GetAdminPassword() string
	GetAdminPasswordHash() string
	GetAdminJWTSecret() string
	GetAdminSessionAge() time.Duration
}

type Admin struct{}

var _ AdminConfig = Admin{}

// GetAdminPassword is only consulted when no bcrypt hash is configured
func (Admin) GetAdminPassword() string {
	return GetEnv("ADMIN_PASSWORD", "1234")
}

func (Admin) GetAdminPasswordHash() string {
	return GetEnv("ADMIN_PASSWORD_HASH", "")
}

func (Admin) GetAdminJWTSecret() string {
	return GetEnv("ADMIN_JWT_SECRET", "")
}

func (Admin) GetAdminSessionAge() time.Duration {
	return 30 * time.Minute
}
