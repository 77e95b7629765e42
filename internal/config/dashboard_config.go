package config

import "time"

type DashboardConfig interface {
	GetConfigFile() string
	GetDefaultConfigFile() string
	GetSheetsBaseURL() string
	GetWeatherBaseURL() string
	GetLocationBaseURL() string
	GetPhotosBaseURL() string
	GetCalendarBaseURL() string
	GetHTTPTimeout() time.Duration
}

type Dashboard struct{}

var _ DashboardConfig = Dashboard{}

func (Dashboard) GetConfigFile() string {
	return GetEnv("CONFIG_FILE", "./config/config.json")
}

func (Dashboard) GetDefaultConfigFile() string {
	return GetEnv("DEFAULT_CONFIG_FILE", "./default-config.json")
}

func (Dashboard) GetSheetsBaseURL() string {
	return GetEnv("SHEETS_BASE_URL", "https://docs.google.com")
}

func (Dashboard) GetWeatherBaseURL() string {
	return GetEnv("WEATHER_BASE_URL", "https://api.open-meteo.com")
}

func (Dashboard) GetLocationBaseURL() string {
	return GetEnv("LOCATION_BASE_URL", "https://ipapi.co")
}

func (Dashboard) GetPhotosBaseURL() string {
	return GetEnv("PHOTOS_BASE_URL", "https://photoslibrary.googleapis.com")
}

func (Dashboard) GetCalendarBaseURL() string {
	return GetEnv("CALENDAR_BASE_URL", "https://www.googleapis.com")
}

func (Dashboard) GetHTTPTimeout() time.Duration {
	return 15 * time.Second
}
