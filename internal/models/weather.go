package models

import (
	"fmt"

	"github.com/vzahanych/weather-ph/internal/validation"
)

// WeatherRecord is a normalized snapshot of current conditions.
type WeatherRecord struct {
	Temperature              float64 `json:"temperature"`
	Description              string  `json:"description" validate:"required"`
	Humidity                 int     `json:"humidity" validate:"gte=0,lte=100"`
	WindSpeed                float64 `json:"wind_speed" validate:"gte=0"`
	PrecipitationProbability int     `json:"precipitation_probability" validate:"gte=0,lte=100"`
	Pressure                 float64 `json:"pressure" validate:"gt=0"`
}

// NewWeatherRecord builds a record and rejects it as a whole when any field
// is out of range.
func NewWeatherRecord(
	temperature float64,
	description string,
	humidity int,
	windSpeed float64,
	precipitationProbability int,
	pressure float64,
) (WeatherRecord, error) {
	rec := WeatherRecord{
		Temperature:              temperature,
		Description:              description,
		Humidity:                 humidity,
		WindSpeed:                windSpeed,
		PrecipitationProbability: precipitationProbability,
		Pressure:                 pressure,
	}
	if err := validation.Struct(rec); err != nil {
		return WeatherRecord{}, fmt.Errorf("invalid weather record: %w", err)
	}
	return rec, nil
}

// NotificationPayload is what the background job hands to the notifier.
type NotificationPayload struct {
	LocationName             string  `json:"location_name"`
	Temperature              float64 `json:"temperature"`
	Description              string  `json:"description"`
	Humidity                 int     `json:"humidity"`
	WindSpeed                float64 `json:"wind_speed"`
	PrecipitationProbability int     `json:"precipitation_probability"`
	Pressure                 float64 `json:"pressure"`
}

func NewNotificationPayload(locationName string, w WeatherRecord) NotificationPayload {
	return NotificationPayload{
		LocationName:             locationName,
		Temperature:              w.Temperature,
		Description:              w.Description,
		Humidity:                 w.Humidity,
		WindSpeed:                w.WindSpeed,
		PrecipitationProbability: w.PrecipitationProbability,
		Pressure:                 w.Pressure,
	}
}
