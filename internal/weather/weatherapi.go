package weather

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/httpfetch"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/pkg/telemetry"
	"go.uber.org/zap"
)

// WeatherAPIService reads weatherapi.com. The current block has no
// precipitation probability, so today's daily chance of rain is used.
type WeatherAPIService struct {
	baseURL string
	apiKey  string
	params  map[string]string
	http    DocumentFetcher
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics *metrics.Metrics
}

func NewWeatherAPIServiceWithConfig(cfg config.WeatherServiceConfig, deps Deps) *WeatherAPIService {
	return &WeatherAPIService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		params:  cfg.Params,
		http:    deps.HTTP,
		logger:  deps.Logger.With(zap.String("service", "weather-api")),
		tele:    deps.Tele,
		metrics: deps.Metrics,
	}
}

func (s *WeatherAPIService) Name() string {
	return "weather-api"
}

func (s *WeatherAPIService) GetWeather(ctx context.Context, lat, lon float64) (rec models.WeatherRecord, err error) {
	ctx, end := s.tele.StartSpan(ctx, "weather-api.GetWeather",
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.String("service", "weather-api"),
	)
	defer func() { end(err) }()

	u, err := s.buildURL(lat, lon)
	if err != nil {
		return models.WeatherRecord{}, fetchFailed(err)
	}

	started := time.Now()
	doc, err := s.http.Fetch(ctx, u)
	s.metrics.ObserveUpstream(s.Name(), started)
	if err != nil {
		s.logger.Warn("WeatherAPI request failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		return models.WeatherRecord{}, fetchFailed(err)
	}

	rec, err = s.mapRecord(doc)
	if err != nil {
		s.logger.Warn("WeatherAPI response rejected", zap.Error(err))
		return models.WeatherRecord{}, fetchFailed(err)
	}

	return rec, nil
}

func (s *WeatherAPIService) buildURL(lat, lon float64) (string, error) {
	u, err := url.Parse(fmt.Sprintf("%s/forecast.json", s.baseURL))
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("key", s.apiKey)
	q.Set("q", fmt.Sprintf("%.6f,%.6f", lat, lon))
	q.Set("days", "1")

	for key, value := range s.params {
		q.Set(key, value)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *WeatherAPIService) mapRecord(doc httpfetch.Document) (models.WeatherRecord, error) {
	temp, err := doc.Float("current", "temp_c")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	desc, err := doc.String("current", "condition", "text")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	humidity, err := doc.Int("current", "humidity")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	windKph, err := doc.Float("current", "wind_kph")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	pressure, err := doc.Float("current", "pressure_mb")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	precip, err := doc.Int("forecast", "forecastday", "0", "day", "daily_chance_of_rain")
	if err != nil {
		return models.WeatherRecord{}, err
	}

	return models.NewWeatherRecord(temp, strings.TrimSpace(desc), humidity, windKph, precip, pressure)
}
