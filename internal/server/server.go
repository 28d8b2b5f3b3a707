package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/prefs"
	"github.com/vzahanych/weather-ph/internal/server/handlers"
	"github.com/vzahanych/weather-ph/internal/server/middlewares"
	"github.com/vzahanych/weather-ph/pkg/telemetry"
	"go.uber.org/zap"
)

type Deps struct {
	Config     config.ServerConfig
	Loader     handlers.WeatherLoader
	Cities     handlers.CityLister
	Prefs      prefs.Store
	Job        handlers.JobRunner
	JobTimeout time.Duration
	Checks     map[string]handlers.ReadinessCheck
	Gatherer   prometheus.Gatherer
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Tele       *telemetry.Telemetry
}

type Server struct {
	engine *gin.Engine
	server *http.Server
	logger *zap.Logger
}

func NewServer(deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(deps.Logger, true))
	engine.Use(middlewares.RecoveryMiddleware(deps.Logger, true))
	engine.Use(middlewares.TelemetryMiddleware(deps.Logger, deps.Tele))
	engine.Use(middlewares.MetricsMiddleware(deps.Metrics))

	s := &Server{
		engine: engine,
		logger: deps.Logger,
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.Host, deps.Config.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(deps.Config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(deps.Config.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(deps.Config.IdleTimeout) * time.Second,
	}

	s.setupRoutes(deps)

	return s
}

func (s *Server) setupRoutes(deps Deps) {
	requestTimeout := time.Duration(deps.Config.RequestTimeout) * time.Second

	// Business endpoints
	weather := handlers.NewWeatherHandler(deps.Loader, deps.Prefs, requestTimeout, s.logger)
	s.engine.GET("/weather", weather.GetWeather)
	s.engine.GET("/weather/current", weather.GetCurrentWeather)
	s.engine.GET("/cities", handlers.NewCitiesHandler(deps.Cities).List)
	s.engine.POST("/jobs/notify", handlers.NewJobsHandler(deps.Job, deps.JobTimeout, s.logger).RunNotify)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, deps.Checks)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	if deps.Gatherer != nil {
		s.engine.GET("/metrics", handlers.NewMetricsHandler(deps.Gatherer))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
