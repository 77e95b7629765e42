package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
	"github.com/shtamir/family-tv-dashboard/kvstore"
)

// Loader resolves the dashboard configuration: the cached copy first, then the primary file,
// then the default file. A configuration read from a file is cached for the next start.
type Loader struct {
	store       kvstore.Store
	primaryPath string
	defaultPath string
}

func NewLoader(store kvstore.Store, primaryPath, defaultPath string) *Loader {
	return &Loader{store: store, primaryPath: primaryPath, defaultPath: defaultPath}
}

// Load returns the configuration with the saved admin settings applied
func (l *Loader) Load(ctx context.Context) (Config, error) {
	cfg, err := l.base(ctx)
	if err != nil {
		return Config{}, err
	}
	saved, err := l.Settings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring saved settings")
		return cfg, nil
	}
	return saved.Apply(cfg), nil
}

func (l *Loader) base(ctx context.Context) (Config, error) {
	if cfg, ok := l.cached(ctx); ok {
		log.Debug().Msg("loaded config from cache")
		return cfg, nil
	}

	cfg, err := readFile(l.primaryPath)
	if err != nil {
		log.Warn().Err(err).Str("path", l.primaryPath).Msg("primary config failed; trying default config")
		var defaultErr error
		cfg, defaultErr = readFile(l.defaultPath)
		if defaultErr != nil {
			log.Error().Err(defaultErr).Str("path", l.defaultPath).Msg("default config failed")
			return Config{}, fmt.Errorf("[Load] no configuration available: %w", apperrors.Join(err, defaultErr))
		}
	}

	if raw, err := json.Marshal(cfg); err == nil {
		if err := l.store.Set(ctx, kvstore.KeyConfig, string(raw)); err != nil {
			log.Warn().Err(err).Msg("failed to cache config")
		}
	}
	return cfg, nil
}

func (l *Loader) cached(ctx context.Context) (Config, bool) {
	raw, err := l.store.Get(ctx, kvstore.KeyConfig)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			log.Warn().Err(err).Msg("config cache unavailable")
		}
		return Config{}, false
	}
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		log.Warn().Err(err).Msg("invalid cached config; reloading")
		return Config{}, false
	}
	return cfg, true
}

// Settings returns the saved admin settings, empty when none were saved
func (l *Loader) Settings(ctx context.Context) (Settings, error) {
	raw, err := l.store.Get(ctx, kvstore.KeySettings)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("[Settings] %w", err)
	}
	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Settings{}, fmt.Errorf("[Settings] decode: %w", err)
	}
	return s, nil
}

// SaveSettings replaces the saved admin settings
func (l *Loader) SaveSettings(ctx context.Context, s Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("[SaveSettings] encode: %w", err)
	}
	if err := l.store.Set(ctx, kvstore.KeySettings, string(raw)); err != nil {
		return fmt.Errorf("[SaveSettings] %w", err)
	}
	return nil
}

func readFile(path string) (Config, error) {
	if path == "" {
		return Config{}, apperrors.Missing("config file path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
