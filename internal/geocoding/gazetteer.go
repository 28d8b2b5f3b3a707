package geocoding

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/vzahanych/weather-ph/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var embeddedCities []byte

const earthRadiusKm = 6371.0

type gazetteerFile struct {
	Cities []struct {
		Name      string   `yaml:"name"`
		Latitude  float64  `yaml:"latitude"`
		Longitude float64  `yaml:"longitude"`
		Aliases   []string `yaml:"aliases"`
	} `yaml:"cities"`
}

// Gazetteer is an immutable table of known city names. Lookups are
// case-insensitive and ignore surrounding and repeated whitespace.
type Gazetteer struct {
	byKey     map[string]models.Location
	locations []models.Location
}

var defaultGazetteer = sync.OnceValues(func() (*Gazetteer, error) {
	return ParseGazetteer(embeddedCities)
})

// DefaultGazetteer returns the table compiled into the binary.
func DefaultGazetteer() (*Gazetteer, error) {
	return defaultGazetteer()
}

// LoadGazetteerFile reads a YAML table with the same layout as the embedded one.
func LoadGazetteerFile(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gazetteer: %w", err)
	}
	return ParseGazetteer(data)
}

func ParseGazetteer(data []byte) (*Gazetteer, error) {
	var file gazetteerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse gazetteer: %w", err)
	}
	if len(file.Cities) == 0 {
		return nil, fmt.Errorf("gazetteer has no cities")
	}

	g := &Gazetteer{byKey: make(map[string]models.Location)}
	for _, c := range file.Cities {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("gazetteer entry without a name")
		}
		loc, err := models.NewLocation(c.Name, c.Latitude, c.Longitude)
		if err != nil {
			return nil, fmt.Errorf("gazetteer entry %q: %w", c.Name, err)
		}

		for _, key := range append([]string{c.Name}, c.Aliases...) {
			k := normalize(key)
			if _, dup := g.byKey[k]; dup {
				return nil, fmt.Errorf("gazetteer key %q is defined twice", key)
			}
			g.byKey[k] = loc
		}
		g.locations = append(g.locations, loc)
	}

	sort.Slice(g.locations, func(i, j int) bool {
		return g.locations[i].Name() < g.locations[j].Name()
	})

	return g, nil
}

func (g *Gazetteer) Lookup(name string) (models.Location, bool) {
	loc, ok := g.byKey[normalize(name)]
	return loc, ok
}

// Names lists canonical names in alphabetical order.
func (g *Gazetteer) Names() []string {
	names := make([]string, 0, len(g.locations))
	for _, loc := range g.locations {
		names = append(names, loc.Name())
	}
	return names
}

// Nearest returns the closest entry and its great-circle distance in km.
func (g *Gazetteer) Nearest(lat, lon float64) (models.Location, float64) {
	var (
		best     models.Location
		bestDist = math.Inf(1)
	)
	for _, loc := range g.locations {
		d := haversineKm(lat, lon, loc.Latitude(), loc.Longitude())
		if d < bestDist {
			best, bestDist = loc, d
		}
	}
	return best, bestDist
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
