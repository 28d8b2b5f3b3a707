package weather

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/httpfetch"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var openMeteoCurrent = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"precipitation_probability",
	"weather_code",
	"surface_pressure",
	"wind_speed_10m",
}

// wmoDescriptions maps WMO weather interpretation codes to text.
var wmoDescriptions = map[int]string{
	0:  "Clear",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Drizzle",
	55: "Dense drizzle",
	56: "Freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Light rain",
	63: "Rain",
	65: "Heavy rain",
	66: "Freezing rain",
	67: "Heavy freezing rain",
	71: "Light snow",
	73: "Snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Light rain showers",
	81: "Rain showers",
	82: "Violent rain showers",
	85: "Snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with hail",
	99: "Thunderstorm with heavy hail",
}

type OpenMeteoService struct {
	baseURL string
	params  map[string]string
	http    DocumentFetcher
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics *metrics.Metrics
}

func NewOpenMeteoServiceWithConfig(cfg config.WeatherServiceConfig, deps Deps) *OpenMeteoService {
	return &OpenMeteoService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		params:  cfg.Params,
		http:    deps.HTTP,
		logger:  deps.Logger.With(zap.String("service", "open-meteo")),
		tele:    deps.Tele,
		metrics: deps.Metrics,
	}
}

func (s *OpenMeteoService) Name() string {
	return "open-meteo"
}

func (s *OpenMeteoService) GetWeather(ctx context.Context, lat, lon float64) (rec models.WeatherRecord, err error) {
	ctx, end := s.tele.StartSpan(ctx, "open-meteo.GetWeather",
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
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
		s.logger.Warn("Open-Meteo request failed", zap.Error(err))
		return models.WeatherRecord{}, fetchFailed(err)
	}

	rec, err = s.mapRecord(doc)
	if err != nil {
		s.logger.Warn("Open-Meteo response rejected", zap.Error(err))
		return models.WeatherRecord{}, fetchFailed(err)
	}

	s.logger.Debug("Open-Meteo weather fetched",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("description", rec.Description))

	return rec, nil
}

func (s *OpenMeteoService) buildURL(lat, lon float64) (string, error) {
	u, err := url.Parse(fmt.Sprintf("%s/forecast", s.baseURL))
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%.6f", lat))
	q.Set("longitude", fmt.Sprintf("%.6f", lon))
	q.Set("current", strings.Join(openMeteoCurrent, ","))

	for key, value := range s.params {
		q.Set(key, value)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *OpenMeteoService) mapRecord(doc httpfetch.Document) (models.WeatherRecord, error) {
	temp, err := doc.Float("current", "temperature_2m")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	humidity, err := doc.Int("current", "relative_humidity_2m")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	precip, err := doc.Int("current", "precipitation_probability")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	code, err := doc.Int("current", "weather_code")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	pressure, err := doc.Float("current", "surface_pressure")
	if err != nil {
		return models.WeatherRecord{}, err
	}
	wind, err := doc.Float("current", "wind_speed_10m")
	if err != nil {
		return models.WeatherRecord{}, err
	}

	desc, ok := wmoDescriptions[code]
	if !ok {
		return models.WeatherRecord{}, fmt.Errorf("unknown weather code %d", code)
	}

	return models.NewWeatherRecord(temp, desc, humidity, wind, precip, pressure)
}
