package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/metrics"
)

const (
	DefaultGeoURL  = "https://api.openweathermap.org"
	DefaultAPIURL  = "https://api.openweathermap.org"
	DefaultTimeout = 10 * time.Second

	providerName = "openweathermap"
)

var (
	ErrGeocodeEmpty  = errors.New("no geocoding result")
	ErrGeocodeFormat = errors.New("unexpected geocode response format")
	ErrStatus        = errors.New("unexpected status from weather api")
)

// Coordinates is a geocoded location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OneCall is the raw One Call document. It stays untyped so that
// Summarize can tell a missing key from a zero value.
type OneCall map[string]any

type ClientConfig struct {
	APIKey     string
	GeoURL     string
	APIURL     string
	Timeout    time.Duration
	GeocodeTTL time.Duration
	Logger     *slog.Logger
}

// Client talks to the OpenWeather geocoding and One Call endpoints.
type Client struct {
	log    *slog.Logger
	apiKey string
	geoURL string
	apiURL string
	http   *http.Client
	coords *ttlcache.Cache[string, Coordinates]
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.GeoURL == "" {
		cfg.GeoURL = DefaultGeoURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var coords *ttlcache.Cache[string, Coordinates]
	if cfg.GeocodeTTL > 0 {
		coords = ttlcache.New(
			ttlcache.WithTTL[string, Coordinates](cfg.GeocodeTTL),
			ttlcache.WithDisableTouchOnHit[string, Coordinates](),
		)
	}

	return &Client{
		log:    cfg.Logger,
		apiKey: cfg.APIKey,
		geoURL: strings.TrimRight(cfg.GeoURL, "/"),
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		http:   &http.Client{Timeout: cfg.Timeout},
		coords: coords,
	}
}

// Geocode resolves "<city>,<countryHint>" to coordinates using the first
// result. The endpoint answers with a list of objects, but a bare [lat, lon]
// pair is accepted too.
func (c *Client) Geocode(ctx context.Context, city, countryHint string) (Coordinates, error) {
	q := city + "," + countryHint
	if c.coords != nil {
		if item := c.coords.Get(q); item != nil {
			metrics.CacheHitsTotal.WithLabelValues("geocode").Inc()
			return item.Value(), nil
		}
		metrics.CacheMissesTotal.WithLabelValues("geocode").Inc()
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var raw json.RawMessage
	if err := c.getJSON(ctx, c.geoURL+"/geo/1.0/direct?"+params.Encode(), &raw); err != nil {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", city, err)
	}

	coords, err := decodeGeocode(raw)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	if c.coords != nil {
		c.coords.Set(q, coords, ttlcache.DefaultTTL)
	}
	return coords, nil
}

func decodeGeocode(raw json.RawMessage) (Coordinates, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return Coordinates{}, ErrGeocodeFormat
	}
	if len(list) == 0 {
		return Coordinates{}, ErrGeocodeEmpty
	}

	var first struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(list[0], &first); err == nil {
		if first.Lat == nil || first.Lon == nil {
			return Coordinates{}, ErrGeocodeFormat
		}
		return Coordinates{Lat: *first.Lat, Lon: *first.Lon}, nil
	}

	var pair []float64
	if err := json.Unmarshal(raw, &pair); err == nil && len(pair) == 2 {
		return Coordinates{Lat: pair[0], Lon: pair[1]}, nil
	}
	return Coordinates{}, ErrGeocodeFormat
}

// Current fetches the current conditions for coords in metric units.
func (c *Client) Current(ctx context.Context, coords Coordinates) (OneCall, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("exclude", "minutely,hourly,daily,alerts")
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	var doc OneCall
	if err := c.getJSON(ctx, c.apiURL+"/data/3.0/onecall?"+params.Encode(), &doc); err != nil {
		return nil, fmt.Errorf("current weather: %w", err)
	}
	return doc, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues(providerName, "error").Inc()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExternalAPICallsTotal.WithLabelValues(providerName, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Debug("weather api error", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues(providerName, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	metrics.ExternalAPICallsTotal.WithLabelValues(providerName, "success").Inc()
	return nil
}
