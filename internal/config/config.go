package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	return configValue.Load().(*Config)
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version       string              `mapstructure:"version"`
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"server"`
	Weather       WeatherConfig       `mapstructure:"weather"`
	Geocoding     GeocodingConfig     `mapstructure:"geocoding"`
	Location      LocationConfig      `mapstructure:"location"`
	Orchestrator  OrchestratorConfig  `mapstructure:"orchestrator"`
	Job           JobConfig           `mapstructure:"job"`
	Preferences   PreferencesConfig   `mapstructure:"preferences"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	// RequestTimeout bounds how long a handler waits for an outcome, in seconds.
	RequestTimeout int `mapstructure:"request_timeout"`
}

// WeatherConfig selects one of the configured weather services by name.
type WeatherConfig struct {
	Provider string                          `mapstructure:"provider"`
	Services map[string]WeatherServiceConfig `mapstructure:"services"`
}

type WeatherServiceConfig struct {
	Type    string            `mapstructure:"type"`
	Enabled bool              `mapstructure:"enabled"`
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	Params  map[string]string `mapstructure:"params"`
}

type GeocodingConfig struct {
	// Reverse is one of: nominatim, google, gazetteer.
	Reverse   string `mapstructure:"reverse"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	RateLimit int    `mapstructure:"rate_limit"`
	UserAgent string `mapstructure:"user_agent"`
	// GazetteerPath overrides the embedded city table when set.
	GazetteerPath string `mapstructure:"gazetteer_path"`
	// RadiusKm limits the gazetteer reverse lookup.
	RadiusKm float64 `mapstructure:"radius_km"`
}

type LocationConfig struct {
	// Provider is one of: static, ip-api.
	Provider          string  `mapstructure:"provider"`
	ServiceEnabled    bool    `mapstructure:"service_enabled"`
	PermissionGranted bool    `mapstructure:"permission_granted"`
	BaseURL           string  `mapstructure:"base_url"`
	HasFix            bool    `mapstructure:"has_fix"`
	Latitude          float64 `mapstructure:"latitude"`
	Longitude         float64 `mapstructure:"longitude"`
}

type OrchestratorConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

type JobConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Interval    int    `mapstructure:"interval"`
	Timeout     int    `mapstructure:"timeout"`
	FixTimeout  int    `mapstructure:"fix_timeout"`
	DefaultCity string `mapstructure:"default_city"`
}

type PreferencesConfig struct {
	Path string `mapstructure:"path"`
}

type NotificationsConfig struct {
	// Renderer is one of: log, webhook.
	Renderer   string `mapstructure:"renderer"`
	WebhookURL string `mapstructure:"webhook_url"`
	QueueSize  int    `mapstructure:"queue_size"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			ReadTimeout:    30,
			WriteTimeout:   30,
			IdleTimeout:    60,
			RequestTimeout: 20,
		},
		Weather: WeatherConfig{
			Provider: "open-meteo",
			Services: map[string]WeatherServiceConfig{
				"open-meteo": {
					Type:    "open-meteo",
					Enabled: true,
					BaseURL: "https://api.open-meteo.com/v1",
					Params: map[string]string{
						"timezone": "auto",
					},
				},
				"weather-api": {
					Type:    "weather-api",
					Enabled: false,
					BaseURL: "https://api.weatherapi.com/v1",
					APIKey:  "",
				},
			},
		},
		Geocoding: GeocodingConfig{
			Reverse:   "nominatim",
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "weather-ph/1.0 (https://github.com/vzahanych/weather-ph)",
			RadiusKm:  25,
		},
		Location: LocationConfig{
			Provider:          "ip-api",
			ServiceEnabled:    true,
			PermissionGranted: false,
			BaseURL:           "http://ip-api.com",
		},
		Orchestrator: OrchestratorConfig{
			QueueSize: 64,
		},
		Job: JobConfig{
			Enabled:     true,
			Interval:    60,
			Timeout:     60,
			FixTimeout:  15,
			DefaultCity: "Manila",
		},
		Preferences: PreferencesConfig{
			Path: "weather-ph.db",
		},
		Notifications: NotificationsConfig{
			Renderer:  "log",
			QueueSize: 16,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}

// Validate reports the first setting that cannot be wired.
func (c *Config) Validate() error {
	svc, ok := c.Weather.Services[c.Weather.Provider]
	if !ok {
		return fmt.Errorf("weather provider %q is not configured", c.Weather.Provider)
	}
	if !svc.Enabled {
		return fmt.Errorf("weather provider %q is disabled", c.Weather.Provider)
	}

	switch c.Geocoding.Reverse {
	case "nominatim", "google", "gazetteer":
	default:
		return fmt.Errorf("unsupported reverse geocoder: %s", c.Geocoding.Reverse)
	}

	switch c.Location.Provider {
	case "static", "ip-api":
	default:
		return fmt.Errorf("unsupported location provider: %s", c.Location.Provider)
	}

	switch c.Notifications.Renderer {
	case "log":
	case "webhook":
		if c.Notifications.WebhookURL == "" {
			return errors.New("notifications.webhook_url is required for the webhook renderer")
		}
	default:
		return fmt.Errorf("unsupported notification renderer: %s", c.Notifications.Renderer)
	}

	if c.Job.Enabled && c.Job.Interval <= 0 {
		return errors.New("job.interval must be positive")
	}
	if strings.TrimSpace(c.Job.DefaultCity) == "" {
		return errors.New("job.default_city must not be empty")
	}
	if c.Orchestrator.QueueSize <= 0 {
		return errors.New("orchestrator.queue_size must be positive")
	}

	return nil
}

// ActiveWeatherService returns the service selected by Weather.Provider.
func (c *Config) ActiveWeatherService() WeatherServiceConfig {
	return c.Weather.Services[c.Weather.Provider]
}
