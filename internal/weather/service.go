package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/metrics"
)

var ErrNoAPIKey = errors.New("OPENWEATHER_API_KEY not configured")

// Fetcher turns a free-text question into a weather summary.
type Fetcher interface {
	FetchForQuery(ctx context.Context, query string) (string, error)
}

type ServiceConfig struct {
	DefaultCity string
	CountryHint string
	Logger      *slog.Logger

	// Cache is optional.
	Cache Cache
}

type Service struct {
	log         *slog.Logger
	client      *Client
	cache       Cache
	defaultCity string
	countryHint string
}

func NewService(client *Client, cfg ServiceConfig) *Service {
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = "Hyderabad"
	}
	if cfg.CountryHint == "" {
		cfg.CountryHint = "IN"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		log:         cfg.Logger,
		client:      client,
		cache:       cfg.Cache,
		defaultCity: cfg.DefaultCity,
		countryHint: cfg.CountryHint,
	}
}

// City returns the city FetchForQuery would look up for query.
func (s *Service) City(query string) string {
	return ExtractCityName(query, s.defaultCity)
}

// FetchForQuery extracts a city from query, geocodes it and summarizes the
// current conditions there.
func (s *Service) FetchForQuery(ctx context.Context, query string) (string, error) {
	return s.FetchForCity(ctx, s.City(query))
}

func (s *Service) FetchForCity(ctx context.Context, city string) (string, error) {
	if s.cache != nil {
		if summary, ok := s.cache.Get(ctx, city); ok {
			metrics.CacheHitsTotal.WithLabelValues("weather").Inc()
			s.log.Debug("weather cache hit", "city", city)
			return summary, nil
		}
		metrics.CacheMissesTotal.WithLabelValues("weather").Inc()
	}

	if s.client.apiKey == "" {
		return "", ErrNoAPIKey
	}

	coords, err := s.client.Geocode(ctx, city, s.countryHint)
	if err != nil {
		return "", err
	}
	s.log.Debug("geocoded city", "city", city, "lat", coords.Lat, "lon", coords.Lon)

	doc, err := s.client.Current(ctx, coords)
	if err != nil {
		return "", err
	}

	summary, err := summarize(doc, city)
	if err != nil {
		s.log.Warn("failed to parse weather data", "city", city, "error", err)
		return parseApology + err.Error(), nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, city, summary); err != nil {
			s.log.Warn("failed to cache weather data", "city", city, "error", err)
		}
	}
	return summary, nil
}
