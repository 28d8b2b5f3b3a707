package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/internal/orchestrator"
	"github.com/vzahanych/weather-ph/internal/prefs"
	"github.com/vzahanych/weather-ph/internal/requestid"
	"github.com/vzahanych/weather-ph/internal/validation"
	"go.uber.org/zap"
)

// WeatherLoader is satisfied by *orchestrator.Orchestrator.
type WeatherLoader interface {
	LoadByName(ctx context.Context, name string, cb orchestrator.Callback) error
	LoadByCoordinates(ctx context.Context, lat, lon float64, cb orchestrator.Callback) error
	LoadCurrentLocation(ctx context.Context, cb orchestrator.Callback) error
}

type WeatherHandler struct {
	loader  WeatherLoader
	prefs   prefs.Store
	timeout time.Duration
	logger  *zap.Logger
}

func NewWeatherHandler(loader WeatherLoader, store prefs.Store, timeout time.Duration, logger *zap.Logger) *WeatherHandler {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &WeatherHandler{
		loader:  loader,
		prefs:   store,
		timeout: timeout,
		logger:  logger,
	}
}

// GetWeather serves GET /weather?city= and GET /weather?lat=&lon=.
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	ctx := c.Request.Context()
	reqLogger := requestid.Logger(ctx, h.logger)

	var req WeatherQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}
	if verrs := validation.ValidateStruct(req); verrs != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: verrs,
		})
		return
	}

	switch {
	case req.City != "":
		reqLogger.Info("Processing weather request", zap.String("city", req.City))
		outcome, ok := h.await(c, func(cb orchestrator.Callback) error {
			return h.loader.LoadByName(ctx, req.City, cb)
		})
		if !ok {
			return
		}
		if loaded, isLoaded := outcome.(models.Loaded); isLoaded {
			h.rememberCity(ctx, loaded.LocationName)
		}
		h.respond(c, outcome)

	case req.Lat != nil && req.Lon != nil:
		coords := Coordinates{Lat: *req.Lat, Lon: *req.Lon}
		if verrs := validation.ValidateStruct(coords); verrs != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid coordinates",
				Code:    "INVALID_PARAMS",
				Details: verrs,
			})
			return
		}

		reqLogger.Info("Processing weather request",
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon))
		outcome, ok := h.await(c, func(cb orchestrator.Callback) error {
			return h.loader.LoadByCoordinates(ctx, coords.Lat, coords.Lon, cb)
		})
		if ok {
			h.respond(c, outcome)
		}

	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Either city or both lat and lon are required",
			Code:  "INVALID_PARAMS",
		})
	}
}

// GetCurrentWeather serves GET /weather/current.
func (h *WeatherHandler) GetCurrentWeather(c *gin.Context) {
	ctx := c.Request.Context()
	requestid.Logger(ctx, h.logger).Info("Processing current location weather request")

	outcome, ok := h.await(c, func(cb orchestrator.Callback) error {
		return h.loader.LoadCurrentLocation(ctx, cb)
	})
	if ok {
		h.respond(c, outcome)
	}
}

// await starts a request and blocks until its outcome arrives, the handler
// timeout passes or the client goes away. It writes the response itself
// when it returns false.
func (h *WeatherHandler) await(c *gin.Context, start func(cb orchestrator.Callback) error) (models.Outcome, bool) {
	results := make(chan models.Outcome, 1)

	if err := start(func(o models.Outcome) { results <- o }); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, orchestrator.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, ErrorResponse{Error: "Service is shutting down", Code: "UNAVAILABLE"})
		return nil, false
	}

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	select {
	case o := <-results:
		return o, true
	case <-timer.C:
		requestid.Logger(c.Request.Context(), h.logger).Warn("Timed out waiting for weather outcome",
			zap.Duration("timeout", h.timeout))
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "Timed out waiting for weather", Code: "TIMEOUT"})
		return nil, false
	case <-c.Request.Context().Done():
		c.Status(499)
		return nil, false
	}
}

func (h *WeatherHandler) respond(c *gin.Context, outcome models.Outcome) {
	switch o := outcome.(type) {
	case models.Loaded:
		c.JSON(http.StatusOK, WeatherResponse{Location: o.LocationName, Weather: o.Weather})
	case models.Failed:
		status, code := failureStatus(o.Message)
		c.JSON(status, ErrorResponse{Error: o.Message, Code: code})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Unexpected outcome", Code: "INTERNAL"})
	}
}

func failureStatus(message string) (int, string) {
	switch message {
	case orchestrator.MsgLocationNotFound:
		return http.StatusNotFound, "LOCATION_NOT_FOUND"
	case orchestrator.MsgPermissionDenied:
		return http.StatusForbidden, "PERMISSION_DENIED"
	case orchestrator.MsgCurrentLocationFailed, orchestrator.MsgCurrentLocationNotFound:
		return http.StatusBadGateway, "LOCATION_UNAVAILABLE"
	default:
		return http.StatusBadGateway, "FETCH_FAILED"
	}
}

func (h *WeatherHandler) rememberCity(ctx context.Context, city string) {
	if h.prefs == nil {
		return
	}
	if err := h.prefs.PutString(context.WithoutCancel(ctx), prefs.KeyLastCity, city); err != nil {
		requestid.Logger(ctx, h.logger).Warn("Failed to persist last city", zap.Error(err))
	}
}
