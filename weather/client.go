package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
	"github.com/shtamir/family-tv-dashboard/kvstore"
)

// Daily is the daily forecast, one entry per day in each slice
type Daily struct {
	Time        []string  `json:"time"`
	WeatherCode []int     `json:"weathercode"`
	TempMax     []float64 `json:"temperature_2m_max"`
	TempMin     []float64 `json:"temperature_2m_min"`
}

type Location struct {
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Known reports whether both coordinates are set. Zero counts as unset.
func (l Location) Known() bool {
	return l.Latitude != 0 && l.Longitude != 0
}

type Client struct {
	httpClient  *http.Client
	forecastURL string
	locationURL string
	cache       kvstore.Store
}

// NewClient builds a forecast client. cache keeps the detected location and may be nil.
func NewClient(httpClient *http.Client, forecastURL, locationURL string, cache kvstore.Store) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:  httpClient,
		forecastURL: strings.TrimRight(forecastURL, "/"),
		locationURL: strings.TrimRight(locationURL, "/"),
		cache:       cache,
	}
}

// Forecast returns the daily forecast at loc, detecting the location first when it is unknown
func (c *Client) Forecast(ctx context.Context, loc Location) (Daily, error) {
	if !loc.Known() {
		detected, err := c.Locate(ctx)
		if err != nil {
			return Daily{}, err
		}
		loc = detected
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("daily", "weathercode,temperature_2m_max,temperature_2m_min")
	q.Set("timezone", "auto")

	var resp struct {
		Daily Daily `json:"daily"`
	}
	if err := c.getJSON(ctx, c.forecastURL+"/v1/forecast?"+q.Encode(), &resp); err != nil {
		return Daily{}, fmt.Errorf("[Forecast] %w", err)
	}
	if len(resp.Daily.Time) == 0 {
		return Daily{}, fmt.Errorf("[Forecast] response has no daily forecast")
	}
	return resp.Daily, nil
}

// Locate returns the cached detected location or asks the IP geolocation service
func (c *Client) Locate(ctx context.Context) (Location, error) {
	if loc, ok := c.cachedLocation(ctx); ok {
		return loc, nil
	}

	var loc Location
	if err := c.getJSON(ctx, c.locationURL+"/json/", &loc); err != nil {
		return Location{}, fmt.Errorf("[Locate] %w", err)
	}
	if !loc.Known() {
		return Location{}, fmt.Errorf("[Locate] no coordinates in response")
	}
	log.Info().Str("city", loc.City).Float64("latitude", loc.Latitude).Float64("longitude", loc.Longitude).Msg("detected location")

	if c.cache != nil {
		if raw, err := json.Marshal(loc); err == nil {
			if err := c.cache.Set(ctx, kvstore.KeyDetectedLocation, string(raw)); err != nil {
				log.Warn().Err(err).Msg("failed to cache detected location")
			}
		}
	}
	return loc, nil
}

func (c *Client) cachedLocation(ctx context.Context) (Location, bool) {
	if c.cache == nil {
		return Location{}, false
	}
	raw, err := c.cache.Get(ctx, kvstore.KeyDetectedLocation)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to read cached location")
		}
		return Location{}, false
	}
	var loc Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil || !loc.Known() {
		return Location{}, false
	}
	return loc, true
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
