package astro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"Astrolabe/internal/domain/models"
)

const eclipseNodeLimit = 18.0

// skyAspectBodies are compared with each other for month-level aspects.
var skyAspectBodies = []models.Body{models.Sun, models.Jupiter, models.Saturn, models.Uranus, models.Neptune, models.Pluto}

// stationBodies can turn retrograde; sun and moon never do.
var stationBodies = []models.Body{models.Mercury, models.Venus, models.Mars, models.Jupiter, models.Saturn, models.Uranus, models.Neptune, models.Pluto}

// DayPositions holds the positions at 00:00 UTC on Date (YYYY-MM-DD).
type DayPositions struct {
	Date      string
	Positions []models.BodyPosition
}

func (d DayPositions) index() map[models.Body]models.BodyPosition {
	m := make(map[models.Body]models.BodyPosition, len(d.Positions))
	for _, p := range d.Positions {
		m[p.Name] = p
	}
	return m
}

// ScanSky derives the notable events of month from consecutive daily
// positions. days[0] is the last day of the previous month and only serves as
// the baseline for day-to-day changes. Events come back ordered by date.
func ScanSky(month string, days []DayPositions, table AspectTable) []models.SkyEvent {
	events := make([]models.SkyEvent, 0)
	if len(days) < 2 {
		return events
	}

	type best struct {
		match models.AspectMatch
		date  string
	}
	var aspectOrder []string
	aspects := make(map[string]best)

	prev := days[0].index()
	for i := 1; i < len(days); i++ {
		day := days[i]
		cur := day.index()

		for _, m := range MatchPairs(pick(cur, skyAspectBodies), table) {
			key := m.BodyA + "|" + m.BodyB + "|" + m.Aspect
			b, seen := aspects[key]
			if !seen {
				aspectOrder = append(aspectOrder, key)
			}
			if !seen || m.Orb < b.match.Orb {
				aspects[key] = best{match: m, date: day.Date}
			}
		}

		events = append(events, ingresses(month, day.Date, prev, cur)...)
		events = append(events, stations(month, day.Date, prev, cur)...)
		if ev, ok := eclipse(month, days[i-1].Date, day.Date, i == 1, prev, cur); ok {
			events = append(events, ev)
		}
		prev = cur
	}

	for _, key := range aspectOrder {
		b := aspects[key]
		events = append(events, models.SkyEvent{
			ID:     eventID(month, models.EventAspect, b.match.BodyA, b.match.BodyB, b.match.Aspect, ""),
			Month:  month,
			Kind:   models.EventAspect,
			Date:   b.date,
			BodyA:  b.match.BodyA,
			BodyB:  b.match.BodyB,
			Aspect: b.match.Aspect,
			Orb:    b.match.Orb,
			Detail: fmt.Sprintf("%s %s %s (orb %.2f°)", DisplayName(b.match.BodyA), strings.ToLower(b.match.Aspect), DisplayName(b.match.BodyB), b.match.Orb),
		})
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	return events
}

func pick(idx map[models.Body]models.BodyPosition, bodies []models.Body) []models.BodyPosition {
	out := make([]models.BodyPosition, 0, len(bodies))
	for _, b := range bodies {
		if p, ok := idx[b]; ok {
			out = append(out, p)
		}
	}
	return out
}

func ingresses(month, date string, prev, cur map[models.Body]models.BodyPosition) []models.SkyEvent {
	var out []models.SkyEvent
	for _, b := range models.TransitBodies {
		if b == models.Moon {
			continue
		}
		p0, ok0 := prev[b]
		p1, ok1 := cur[b]
		if !ok0 || !ok1 {
			continue
		}
		if SignIndex(p0.Longitude) == SignIndex(p1.Longitude) {
			continue
		}
		sign := SignNames[SignIndex(p1.Longitude)]
		out = append(out, models.SkyEvent{
			ID:     eventID(month, models.EventIngress, string(b), "", "", date+"|"+sign),
			Month:  month,
			Kind:   models.EventIngress,
			Date:   date,
			BodyA:  string(b),
			Sign:   sign,
			Detail: fmt.Sprintf("%s enters %s", DisplayName(string(b)), sign),
		})
	}
	return out
}

func stations(month, date string, prev, cur map[models.Body]models.BodyPosition) []models.SkyEvent {
	var out []models.SkyEvent
	for _, b := range stationBodies {
		p0, ok0 := prev[b]
		p1, ok1 := cur[b]
		if !ok0 || !ok1 || p0.Retrograde() == p1.Retrograde() {
			continue
		}
		motion := "direct"
		if p1.Retrograde() {
			motion = "retrograde"
		}
		sign := SignNames[SignIndex(p1.Longitude)]
		out = append(out, models.SkyEvent{
			ID:     eventID(month, models.EventStation, string(b), "", motion, date),
			Month:  month,
			Kind:   models.EventStation,
			Date:   date,
			BodyA:  string(b),
			Sign:   sign,
			Detail: fmt.Sprintf("%s stations %s in %s", DisplayName(string(b)), motion, sign),
		})
	}
	return out
}

// eclipse reports a new or full moon between two days when the sun is close
// enough to the lunar node axis. The event is dated on the day nearest the
// interpolated crossing; a crossing nearest the baseline day is dated on the
// first day of the month.
func eclipse(month, date0, date1 string, firstDay bool, prev, cur map[models.Body]models.BodyPosition) (models.SkyEvent, bool) {
	sun0, ok0 := prev[models.Sun]
	moon0, ok1 := prev[models.Moon]
	sun1, ok2 := cur[models.Sun]
	moon1, ok3 := cur[models.Moon]
	if !ok0 || !ok1 || !ok2 || !ok3 {
		return models.SkyEvent{}, false
	}

	e0 := Normalize(moon0.Longitude - sun0.Longitude)
	e1 := Normalize(moon1.Longitude - sun1.Longitude)

	var (
		frac   float64
		aspect string
		label  string
		phase  string
	)
	switch {
	case e0 > 270 && e1 < 90:
		frac = (360 - e0) / ((360 - e0) + e1)
		aspect, label, phase = Conjunction, "Solar", "new moon"
	case e0 < 180 && e1 >= 180:
		frac = (180 - e0) / (e1 - e0)
		aspect, label, phase = Opposition, "Lunar", "full moon"
	default:
		return models.SkyEvent{}, false
	}

	date, at := date1, cur
	if frac < 0.5 && !firstDay {
		date, at = date0, prev
	}
	sun, moon := at[models.Sun], at[models.Moon]

	node, ok := at[models.TrueNode]
	if !ok {
		return models.SkyEvent{}, false
	}
	nodeDist := Separation(sun.Longitude, node.Longitude)
	if other := Separation(sun.Longitude, node.Longitude+180); other < nodeDist {
		nodeDist = other
	}
	if nodeDist > eclipseNodeLimit {
		return models.SkyEvent{}, false
	}

	signOf := sun.Longitude
	if aspect == Opposition {
		signOf = moon.Longitude
	}
	sign := SignNames[SignIndex(signOf)]

	return models.SkyEvent{
		ID:     eventID(month, models.EventEclipse, string(models.Sun), string(models.Moon), aspect, date),
		Month:  month,
		Kind:   models.EventEclipse,
		Date:   date,
		BodyA:  string(models.Sun),
		BodyB:  string(models.Moon),
		Aspect: aspect,
		Orb:    Round4(nodeDist),
		Sign:   sign,
		Detail: fmt.Sprintf("%s eclipse season: %s in %s, %.1f° from the node axis", label, phase, sign, nodeDist),
	}, true
}

func eventID(month string, kind models.SkyEventKind, a, b, aspect, extra string) string {
	name := strings.Join([]string{month, string(kind), a, b, aspect, extra}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("astrolabe:sky-event:"+name)).String()
}
