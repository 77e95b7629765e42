package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	folderEnvVar  = "FOLDER"
	dbFileVar     = "DB_FILE"
	logLevelVar   = "LOG_LEVEL"
	logFileVar    = "LOG_FILE"
	metricsVar    = "METRICS_ENABLED"
	environmentVr = "ENV"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Family Dashboard")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetDBFile returns the sqlite file backing the persistent key/value store.
// Relative names are resolved against the data folder.
func (e EnvVars) GetDBFile() string {
	file := GetEnv(dbFileVar, "dashboard.db")
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(e.GetDataFolder(), file)
}

func (EnvVars) GetLogLevel() string {
	return strings.ToLower(GetEnv(logLevelVar, "info"))
}

// GetLogFile returns the rotating log file pattern, empty for console only
func (EnvVars) GetLogFile() string {
	return GetEnv(logFileVar, "")
}

func (EnvVars) GetMetricsEnabled() bool {
	return GetEnvBool(metricsVar, false)
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(environmentVr)
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(envVar)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
