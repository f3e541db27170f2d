package models

import "sort"

// Body identifies a celestial body or sensitive point by its lowercase name.
type Body string

const (
	Sun      Body = "sun"
	Moon     Body = "moon"
	Mercury  Body = "mercury"
	Venus    Body = "venus"
	Mars     Body = "mars"
	Jupiter  Body = "jupiter"
	Saturn   Body = "saturn"
	Uranus   Body = "uranus"
	Neptune  Body = "neptune"
	Pluto    Body = "pluto"
	Chiron   Body = "chiron"
	TrueNode Body = "true_node"
	Lilith   Body = "lilith"
)

// NatalBodies is the natal body table. Its order is the iteration order used
// for every tie-break.
var NatalBodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto, Chiron, TrueNode, Lilith}

// TransitBodies is the transiting body table, Sun through Pluto.
var TransitBodies = NatalBodies[:10]

var bodyRank = func() map[Body]int {
	m := make(map[Body]int, len(NatalBodies))
	for i, b := range NatalBodies {
		m[b] = i
	}
	return m
}()

// IsFast reports whether b belongs to the fast speed class.
func (b Body) IsFast() bool {
	switch b {
	case Moon, Mercury, Venus, Mars:
		return true
	}
	return false
}

// SortBodyNames orders names by the natal body table; names outside the table
// follow in lexical order.
func SortBodyNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return bodyLess(names[i], names[j]) })
}

// SortPositions orders positions the same way as SortBodyNames.
func SortPositions(ps []BodyPosition) {
	sort.SliceStable(ps, func(i, j int) bool { return bodyLess(string(ps[i].Name), string(ps[j].Name)) })
}

func bodyLess(a, b string) bool {
	ra, aok := bodyRank[Body(a)]
	rb, bok := bodyRank[Body(b)]
	switch {
	case aok && bok:
		return ra < rb
	case aok != bok:
		return aok
	default:
		return a < b
	}
}

// BodyPosition is a body's ecliptic longitude in degrees and its speed in
// degrees per day.
type BodyPosition struct {
	Name      Body    `json:"name"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
}

func (p BodyPosition) Retrograde() bool {
	return p.Speed < 0
}
