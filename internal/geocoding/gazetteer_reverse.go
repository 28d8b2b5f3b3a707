package geocoding

import (
	"context"
)

// GazetteerReverse names a coordinate after the nearest gazetteer city within
// radiusKm. It needs no network access.
type GazetteerReverse struct {
	gazetteer *Gazetteer
	radiusKm  float64
}

func NewGazetteerReverse(g *Gazetteer, radiusKm float64) *GazetteerReverse {
	return &GazetteerReverse{gazetteer: g, radiusKm: radiusKm}
}

func (gr *GazetteerReverse) ReverseGeocode(_ context.Context, lat, lon float64) (string, error) {
	loc, dist := gr.gazetteer.Nearest(lat, lon)
	if dist > gr.radiusKm {
		return "", ErrNoResult
	}
	return loc.Name(), nil
}
