package astro

import (
	"fmt"
	"sort"

	"Astrolabe/internal/domain/models"
)

const (
	defaultTopAspects = 5
	defaultTopHouses  = 3

	fastHouseWeight = 5
	slowHouseWeight = 2
)

// FallbackFunc is told about every body the house locator could not place.
type FallbackFunc func(body models.Body, lon float64)

// Synthesizer turns raw transit positions into snapshots and, against a natal
// chart, into a ranked daily horoscope. It holds no mutable state.
type Synthesizer struct {
	table      AspectTable
	topAspects int
	topHouses  int
	onFallback FallbackFunc
}

type SynthOption func(*Synthesizer)

func WithAspectTable(t AspectTable) SynthOption {
	return func(s *Synthesizer) {
		s.table = t
	}
}

// WithLimits sets how many aspects and houses a daily horoscope keeps.
// Non-positive values keep the defaults.
func WithLimits(aspects, houses int) SynthOption {
	return func(s *Synthesizer) {
		if aspects > 0 {
			s.topAspects = aspects
		}
		if houses > 0 {
			s.topHouses = houses
		}
	}
}

func WithFallbackHook(fn FallbackFunc) SynthOption {
	return func(s *Synthesizer) {
		s.onFallback = fn
	}
}

func NewSynthesizer(opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		table:      TransitAspects,
		topAspects: defaultTopAspects,
		topHouses:  defaultTopHouses,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransitPositions describes each position with its sign and retrograde
// flag, ordered by the body table.
func TransitPositions(positions []models.BodyPosition) []models.TransitPosition {
	ordered := make([]models.BodyPosition, len(positions))
	copy(ordered, positions)
	models.SortPositions(ordered)

	out := make([]models.TransitPosition, 0, len(ordered))
	for _, p := range ordered {
		lon := Normalize(p.Longitude)
		z := FormatZodiac(lon, p.Speed)
		out = append(out, models.TransitPosition{
			Name:         string(p.Name),
			Longitude:    lon,
			Speed:        p.Speed,
			Retrograde:   p.Retrograde(),
			Sign:         SignNames[SignIndex(lon)],
			SignIndex:    SignIndex(lon),
			DegreeInSign: Round4(lon - float64(SignIndex(lon))*30),
			Formatted:    z.String(),
		})
	}
	return out
}

// Daily compares transits against the natal chart. Date and timezone are left
// for the caller to fill. A chart without positions or without exactly twelve
// valid cusps fails with ErrMalformedNatalChart before anything is computed.
func (s *Synthesizer) Daily(chart *models.NatalChart, transits []models.BodyPosition) (*models.DailyHoroscope, error) {
	if chart == nil {
		return nil, fmt.Errorf("%w: birth data is missing", models.ErrMalformedNatalChart)
	}
	natal := chart.Positions()
	if err := models.ValidateNatalPositions(natal); err != nil {
		return nil, err
	}
	cusps, err := chart.Cusps()
	if err != nil {
		return nil, err
	}

	ordered := make([]models.BodyPosition, len(transits))
	copy(ordered, transits)
	models.SortPositions(ordered)

	aspects := MatchCross(ordered, natal, s.table)
	if len(aspects) > s.topAspects {
		aspects = aspects[:s.topAspects]
	}
	houses := s.activateHouses(ordered, cusps)

	return &models.DailyHoroscope{
		Transits:        TransitPositions(ordered),
		TopAspects:      aspects,
		HousesActivated: houses,
		NatalAscendant:  ascendantLabel(chart, cusps),
		Interpretation:  Interpret(aspects, houses),
	}, nil
}

func (s *Synthesizer) activateHouses(transits []models.BodyPosition, cusps models.HouseCusps) []models.HouseActivation {
	byHouse := make(map[int]*models.HouseActivation)
	for _, p := range transits {
		house, ok := LocateHouse(p.Longitude, cusps)
		if !ok && s.onFallback != nil {
			s.onFallback(p.Name, p.Longitude)
		}
		act, exists := byHouse[house]
		if !exists {
			act = &models.HouseActivation{House: house, Meaning: HouseMeaning(house)}
			byHouse[house] = act
		}
		act.Bodies = append(act.Bodies, string(p.Name))
		if p.Name.IsFast() {
			act.Weight += fastHouseWeight
		} else {
			act.Weight += slowHouseWeight
		}
	}

	out := make([]models.HouseActivation, 0, len(byHouse))
	for _, act := range byHouse {
		out = append(out, *act)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].House < out[j].House
	})
	if len(out) > s.topHouses {
		out = out[:s.topHouses]
	}
	return out
}

func ascendantLabel(chart *models.NatalChart, cusps models.HouseCusps) string {
	asc := chart.Ascendant(cusps)
	if asc.Formatted != "" {
		return asc.Formatted
	}
	return FormatZodiac(asc.Value, 0).String()
}
