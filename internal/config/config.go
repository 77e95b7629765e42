package config

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	AdminConfig
	DashboardConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetDBFile() string
	GetLogLevel() string
	GetLogFile() string
	GetMetricsEnabled() bool
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Admin
	Dashboard
}

func New() Config {
	return mainConfig{}
}
