package astro

import (
	"fmt"
	"sort"

	"Astrolabe/internal/domain/models"
)

const (
	Conjunction = "Conjunction"
	Sextile     = "Sextile"
	Square      = "Square"
	Trine       = "Trine"
	Opposition  = "Opposition"
	Quincunx    = "Quincunx"
)

// AspectDefinition is an exact angle with an orb per speed class.
type AspectDefinition struct {
	Name    string
	Angle   float64
	OrbFast float64
	OrbSlow float64
}

// Orb returns the tolerance for a body of b's speed class.
func (d AspectDefinition) Orb(b models.Body) float64 {
	if b.IsFast() {
		return d.OrbFast
	}
	return d.OrbSlow
}

func (d AspectDefinition) Harmonic() bool {
	return d.Name == Trine || d.Name == Sextile
}

func (d AspectDefinition) Challenging() bool {
	return d.Name == Square || d.Name == Opposition
}

// AspectTable is a named, ordered set of aspect definitions.
type AspectTable struct {
	Name        string
	Definitions []AspectDefinition
}

// NatalAspects uses one orb per aspect regardless of speed class.
var NatalAspects = AspectTable{
	Name: "natal",
	Definitions: []AspectDefinition{
		{Name: Conjunction, Angle: 0, OrbFast: 8, OrbSlow: 8},
		{Name: Opposition, Angle: 180, OrbFast: 8, OrbSlow: 8},
		{Name: Trine, Angle: 120, OrbFast: 7, OrbSlow: 7},
		{Name: Square, Angle: 90, OrbFast: 6, OrbSlow: 6},
		{Name: Sextile, Angle: 60, OrbFast: 4, OrbSlow: 4},
		{Name: Quincunx, Angle: 150, OrbFast: 3, OrbSlow: 3},
	},
}

// TransitAspects widens orbs for fast transiting bodies.
var TransitAspects = AspectTable{
	Name: "transit",
	Definitions: []AspectDefinition{
		{Name: Conjunction, Angle: 0, OrbFast: 8, OrbSlow: 6},
		{Name: Sextile, Angle: 60, OrbFast: 6, OrbSlow: 4},
		{Name: Square, Angle: 90, OrbFast: 7, OrbSlow: 5},
		{Name: Trine, Angle: 120, OrbFast: 8, OrbSlow: 6},
		{Name: Opposition, Angle: 180, OrbFast: 8, OrbSlow: 6},
	},
}

// TableByName resolves a configured table name.
func TableByName(name string) (AspectTable, error) {
	switch name {
	case NatalAspects.Name:
		return NatalAspects, nil
	case TransitAspects.Name:
		return TransitAspects, nil
	}
	return AspectTable{}, fmt.Errorf("%w: %q", models.ErrUnknownAspectDefinition, name)
}

// Definition looks up an aspect by name within the table.
func (t AspectTable) Definition(name string) (AspectDefinition, bool) {
	for _, d := range t.Definitions {
		if d.Name == name {
			return d, true
		}
	}
	return AspectDefinition{}, false
}

// Weight scores a match for ranking: 10 for a fast body or 5 for a slow one,
// plus 3 when applying and 2 when harmonic. Applying means only that the
// moving body's own speed is positive.
func Weight(moving models.BodyPosition, def AspectDefinition) int {
	w := 5
	if moving.Name.IsFast() {
		w = 10
	}
	if moving.Speed > 0 {
		w += 3
	}
	if def.Harmonic() {
		w += 2
	}
	return w
}

// match tests one pair against every definition, using a's speed class.
func match(a, b models.BodyPosition, table AspectTable, out []models.AspectMatch) []models.AspectMatch {
	sep := Separation(a.Longitude, b.Longitude)
	for _, def := range table.Definitions {
		diff := sep - def.Angle
		if diff < 0 {
			diff = -diff
		}
		if diff > def.Orb(a.Name) {
			continue
		}
		out = append(out, models.AspectMatch{
			BodyA:    string(a.Name),
			BodyB:    string(b.Name),
			Aspect:   def.Name,
			Angle:    Round4(sep),
			Orb:      Round4(diff),
			Weight:   Weight(a, def),
			Applying: a.Speed > 0,
		})
	}
	return out
}

// MatchPairs compares a set with itself over unordered pairs, in input order.
// The first body of each pair selects the orb and the weight.
func MatchPairs(bodies []models.BodyPosition, table AspectTable) []models.AspectMatch {
	out := make([]models.AspectMatch, 0)
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			out = match(bodies[i], bodies[j], table, out)
		}
	}
	sortByWeight(out)
	return out
}

// MatchCross compares every transiting body with every natal body. Orb and
// weight follow the transiting body.
func MatchCross(transits, natal []models.BodyPosition, table AspectTable) []models.AspectMatch {
	out := make([]models.AspectMatch, 0)
	for _, tr := range transits {
		for _, n := range natal {
			out = match(tr, n, table, out)
		}
	}
	sortByWeight(out)
	return out
}

// sortByWeight orders descending by weight; equal weights keep input order.
func sortByWeight(m []models.AspectMatch) {
	sort.SliceStable(m, func(i, j int) bool { return m[i].Weight > m[j].Weight })
}
