package models

import (
	"errors"
	"fmt"

	"github.com/vzahanych/weather-ph/internal/validation"
)

// ErrInvalidCoordinates is returned when latitude or longitude is out of range.
var ErrInvalidCoordinates = errors.New("coordinates out of range")

// Location is a named geographic point. The zero value is not a valid
// location; build one with NewLocation.
type Location struct {
	name      string
	latitude  float64
	longitude float64
}

// NewLocation validates the coordinate pair (-90..90, -180..180).
func NewLocation(name string, latitude, longitude float64) (Location, error) {
	if !validation.ValidLatitude(latitude) || !validation.ValidLongitude(longitude) {
		return Location{}, fmt.Errorf("%w: lat=%f lon=%f", ErrInvalidCoordinates, latitude, longitude)
	}
	return Location{name: name, latitude: latitude, longitude: longitude}, nil
}

func (l Location) Name() string       { return l.name }
func (l Location) Latitude() float64  { return l.latitude }
func (l Location) Longitude() float64 { return l.longitude }

func (l Location) String() string {
	return fmt.Sprintf("%s (%.4f, %.4f)", l.name, l.latitude, l.longitude)
}
