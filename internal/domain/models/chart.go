package models

import (
	"fmt"
	"math"
	"sort"
)

// ZodiacPoint is a longitude together with its formatted zodiac position.
type ZodiacPoint struct {
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

type PlanetPoint struct {
	Value      float64 `json:"value"`
	Speed      float64 `json:"speed"`
	Retrograde bool    `json:"retrograde"`
	Formatted  string  `json:"formatted"`
}

type HouseCusp struct {
	House     int     `json:"house"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

type HouseSet struct {
	Asc   *ZodiacPoint `json:"asc,omitempty"`
	MC    *ZodiacPoint `json:"mc,omitempty"`
	Cusps []HouseCusp  `json:"cusps"`
}

type ChartMeta struct {
	HouseSystem     HouseSystem `json:"house_system"`
	TopocentricMoon bool        `json:"topocentric_moon"`
	EphePath        string      `json:"ephe_path,omitempty"`
}

// NatalChart is the computed chart returned by /api/compute and accepted back
// as birth data for horoscope requests.
type NatalChart struct {
	JulianDayUT float64                `json:"jd_ut"`
	Planets     map[string]PlanetPoint `json:"planets"`
	Houses      HouseSet               `json:"houses"`
	Aspects     []AspectMatch          `json:"aspects"`
	Meta        ChartMeta              `json:"meta"`
}

// Positions lists the chart's bodies in table order. Unknown names follow the
// known bodies lexically.
func (c *NatalChart) Positions() []BodyPosition {
	names := make([]string, 0, len(c.Planets))
	for name := range c.Planets {
		names = append(names, name)
	}
	SortBodyNames(names)

	out := make([]BodyPosition, 0, len(names))
	for _, name := range names {
		p := c.Planets[name]
		out = append(out, BodyPosition{Name: Body(name), Longitude: p.Value, Speed: p.Speed})
	}
	return out
}

// Cusps validates and returns the cusp set ordered by house number. Houses
// must be exactly 1 through 12 with finite longitudes in [0,360).
func (c *NatalChart) Cusps() (HouseCusps, error) {
	var cusps HouseCusps
	if len(c.Houses.Cusps) != 12 {
		return cusps, fmt.Errorf("%w: expected 12 cusps, got %d", ErrMalformedNatalChart, len(c.Houses.Cusps))
	}

	sorted := make([]HouseCusp, len(c.Houses.Cusps))
	copy(sorted, c.Houses.Cusps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].House < sorted[j].House })

	for i, h := range sorted {
		if h.House != i+1 {
			return cusps, fmt.Errorf("%w: cusp houses must be 1..12 without gaps", ErrMalformedNatalChart)
		}
		if !validLongitude(h.Value) {
			return cusps, fmt.Errorf("%w: cusp %d longitude %v out of range", ErrMalformedNatalChart, h.House, h.Value)
		}
		cusps[i] = h.Value
	}
	return cusps, nil
}

// Ascendant returns the explicit Ascendant, or the first cusp when absent.
func (c *NatalChart) Ascendant(cusps HouseCusps) ZodiacPoint {
	if c.Houses.Asc != nil {
		return *c.Houses.Asc
	}
	for _, h := range c.Houses.Cusps {
		if h.House == 1 {
			return ZodiacPoint{Value: cusps[0], Formatted: h.Formatted}
		}
	}
	return ZodiacPoint{Value: cusps[0]}
}

func validLongitude(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v < 360
}

// ValidateNatalPositions rejects an empty or out-of-range position set.
func ValidateNatalPositions(positions []BodyPosition) error {
	if len(positions) == 0 {
		return fmt.Errorf("%w: no planet positions", ErrMalformedNatalChart)
	}
	for _, p := range positions {
		if !validLongitude(p.Longitude) {
			return fmt.Errorf("%w: %s longitude %v out of range", ErrMalformedNatalChart, p.Name, p.Longitude)
		}
	}
	return nil
}
