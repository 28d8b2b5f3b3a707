package handlers

import (
	"github.com/vzahanych/weather-ph/internal/models"
)

// WeatherQuery selects a city by name or a coordinate pair.
type WeatherQuery struct {
	City string   `form:"city" json:"city" validate:"omitempty,max=100"`
	Lat  *float64 `form:"lat" json:"lat"`
	Lon  *float64 `form:"lon" json:"lon"`
}

// Coordinates is validated after binding since both values are optional in
// WeatherQuery.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

type WeatherResponse struct {
	Location string               `json:"location"`
	Weather  models.WeatherRecord `json:"weather"`
}

type CitiesResponse struct {
	Cities []string `json:"cities"`
	Count  int      `json:"count"`
}

type JobResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string `json:"error" validate:"required,min=1,max=500"`
	Code    string `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details any    `json:"details,omitempty"`
}

// HealthResponse represents health check response with validation
type HealthResponse struct {
	Status    string `json:"status" validate:"required,oneof=ok alive ready unavailable"`
	Uptime    string `json:"uptime" validate:"required"`
	Timestamp string `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}
