package astro

import (
	"errors"
	"testing"

	"Astrolabe/internal/domain/models"
)

func pos(name models.Body, lon, speed float64) models.BodyPosition {
	return models.BodyPosition{Name: name, Longitude: lon, Speed: speed}
}

func findAspect(matches []models.AspectMatch, aspect string) (models.AspectMatch, bool) {
	for _, m := range matches {
		if m.Aspect == aspect {
			return m, true
		}
	}
	return models.AspectMatch{}, false
}

func TestMatchPairs_SquareOrbBoundary(t *testing.T) {
	matches := MatchPairs([]models.BodyPosition{pos(models.Sun, 95.9, 1), pos(models.Jupiter, 0, 0.1)}, NatalAspects)
	m, ok := findAspect(matches, Square)
	if !ok {
		t.Fatalf("95.9° separation should be a Square, got %+v", matches)
	}
	if m.Orb != 5.9 || m.Angle != 95.9 {
		t.Fatalf("unexpected square %+v", m)
	}

	matches = MatchPairs([]models.BodyPosition{pos(models.Sun, 96.1, 1), pos(models.Jupiter, 0, 0.1)}, NatalAspects)
	if _, ok := findAspect(matches, Square); ok {
		t.Fatalf("96.1° separation must not be a Square")
	}
}

func TestMatchPairs_EmptyIsNotNil(t *testing.T) {
	matches := MatchPairs([]models.BodyPosition{pos(models.Sun, 0, 1), pos(models.Moon, 33, 12)}, NatalAspects)
	if matches == nil || len(matches) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", matches)
	}
	if got := MatchCross(nil, nil, TransitAspects); got == nil {
		t.Fatalf("expected empty non-nil slice for no input")
	}
}

func TestMatchCross_OrbFollowsTransitingBody(t *testing.T) {
	natal := []models.BodyPosition{pos(models.Sun, 0, 1)}

	// 6.5° from exact: inside the fast conjunction orb (8), outside the slow one (6)
	fast := MatchCross([]models.BodyPosition{pos(models.Moon, 6.5, 13)}, natal, TransitAspects)
	if _, ok := findAspect(fast, Conjunction); !ok {
		t.Fatalf("moon should be within its fast orb")
	}

	slow := MatchCross([]models.BodyPosition{pos(models.Saturn, 6.5, 0.1)}, natal, TransitAspects)
	if _, ok := findAspect(slow, Conjunction); ok {
		t.Fatalf("saturn should be outside its slow orb")
	}

	// natal body class never matters
	fastNatal := MatchCross([]models.BodyPosition{pos(models.Saturn, 6.5, 0.1)}, []models.BodyPosition{pos(models.Moon, 0, 13)}, TransitAspects)
	if len(fastNatal) != 0 {
		t.Fatalf("natal moon must not widen saturn's orb: %+v", fastNatal)
	}
}

func TestWeight(t *testing.T) {
	trine, _ := TransitAspects.Definition(Trine)
	square, _ := TransitAspects.Definition(Square)

	cases := []struct {
		name string
		body models.BodyPosition
		def  AspectDefinition
		want int
	}{
		{"fast applying harmonic", pos(models.Venus, 0, 1.2), trine, 15},
		{"fast separating challenging", pos(models.Mars, 0, -0.3), square, 10},
		{"slow applying challenging", pos(models.Jupiter, 0, 0.1), square, 8},
		{"slow retrograde challenging", pos(models.Saturn, 0, -0.05), square, 5},
		{"slow stationary harmonic", pos(models.Pluto, 0, 0), trine, 7},
	}
	for _, tc := range cases {
		if got := Weight(tc.body, tc.def); got != tc.want {
			t.Fatalf("%s: weight %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestMatchCross_SaturnSquareAscendant(t *testing.T) {
	natal := []models.BodyPosition{pos(models.Body("ascendant"), 28.475, 0)}
	transits := []models.BodyPosition{pos(models.Saturn, 118.475, -0.05)}

	matches := MatchCross(transits, natal, TransitAspects)
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %+v", matches)
	}
	m := matches[0]
	if m.Aspect != Square || m.Orb != 0 || m.Weight != 5 || m.Applying {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.BodyA != "saturn" || m.BodyB != "ascendant" {
		t.Fatalf("unexpected bodies %+v", m)
	}
}

func TestMatchCross_StableDescendingOrder(t *testing.T) {
	natal := []models.BodyPosition{pos(models.Sun, 0, 1)}
	transits := []models.BodyPosition{
		pos(models.Sun, 1, 1),        // slow applying conj: 8
		pos(models.Moon, 2, -1),      // fast separating conj: 10
		pos(models.Mercury, 3, 1),    // fast applying conj: 13
		pos(models.Jupiter, 4, 0.1),  // slow applying conj: 8
		pos(models.Venus, 60, 1),     // fast applying sextile: 15
		pos(models.Saturn, 5, 0.1),   // slow applying conj: 8
		pos(models.Mars, 120, -0.5),  // fast separating trine: 12
	}

	matches := MatchCross(transits, natal, TransitAspects)
	var order []string
	for _, m := range matches {
		order = append(order, m.BodyA)
	}
	want := []string{"venus", "mercury", "mars", "moon", "sun", "jupiter", "saturn"}
	if len(order) != len(want) {
		t.Fatalf("got %v want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v want %v", order, want)
		}
	}
}

func TestTableByName(t *testing.T) {
	if tbl, err := TableByName("transit"); err != nil || len(tbl.Definitions) != 5 {
		t.Fatalf("transit table: %v %+v", err, tbl)
	}
	if tbl, err := TableByName("natal"); err != nil || len(tbl.Definitions) != 6 {
		t.Fatalf("natal table: %v %+v", err, tbl)
	}
	if _, err := TableByName("vedic"); !errors.Is(err, models.ErrUnknownAspectDefinition) {
		t.Fatalf("expected ErrUnknownAspectDefinition, got %v", err)
	}
}
