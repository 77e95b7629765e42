package settings

import (
	"github.com/shtamir/family-tv-dashboard/internal/utils"
)

// Features toggles optional widgets. Unset flags count as enabled.
type Features struct {
	Weather *bool `json:"weather,omitempty"`
	Photos  *bool `json:"photos,omitempty"`
}

func (f Features) WeatherEnabled() bool {
	return utils.ValueOr(f.Weather, true)
}

func (f Features) PhotosEnabled() bool {
	return utils.ValueOr(f.Photos, true)
}

// merge overlays the flags set in override
func (f Features) merge(override Features) Features {
	if override.Weather != nil {
		f.Weather = utils.Ptr(*override.Weather)
	}
	if override.Photos != nil {
		f.Photos = utils.Ptr(*override.Photos)
	}
	return f
}

// Config is the dashboard configuration document
type Config struct {
	SheetID                      string   `json:"sheetId,omitempty"`
	GooglePhotosAlbumID          string   `json:"googlePhotosAlbumId,omitempty"`
	Latitude                     float64  `json:"latitude,omitempty"`
	Longitude                    float64  `json:"longitude,omitempty"`
	Language                     string   `json:"language,omitempty"`
	Theme                        string   `json:"theme,omitempty"`
	PhotoRotationIntervalSeconds int      `json:"photoRotationIntervalSeconds,omitempty"`
	RefreshIntervalMinutes       int      `json:"refreshIntervalMinutes,omitempty"`
	Features                     Features `json:"features"`
}

// Settings are the overrides saved from the admin panel
type Settings struct {
	Language               string   `json:"language,omitempty"`
	Theme                  string   `json:"theme,omitempty"`
	RefreshIntervalMinutes int      `json:"refreshIntervalMinutes,omitempty"`
	Features               Features `json:"features"`
}

// Apply overlays the fields set in s onto c
func (s Settings) Apply(c Config) Config {
	if s.Language != "" {
		c.Language = s.Language
	}
	if s.Theme != "" {
		c.Theme = s.Theme
	}
	if s.RefreshIntervalMinutes > 0 {
		c.RefreshIntervalMinutes = s.RefreshIntervalMinutes
	}
	c.Features = c.Features.merge(s.Features)
	return c
}
