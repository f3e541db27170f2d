package astro

import (
	"testing"

	"Astrolabe/internal/domain/models"
)

// skyDays builds a baseline plus three days of March 2026. Mars enters
// Taurus on the 1st, Mercury stations on the 2nd, Jupiter squares Saturn
// most closely on the 2nd and the moon is full near the node on the 3rd.
func skyDays(node float64) []DayPositions {
	type row struct {
		date    string
		sun     float64
		elong   float64
		mercury float64
		mars    float64
		saturn  float64
	}
	rows := []row{
		{"2026-02-28", 319, 137, 0.1, 29.5, 190.8},
		{"2026-03-01", 320, 150, 0.05, 30.2, 190.5},
		{"2026-03-02", 321, 170, -0.1, 30.9, 190.2},
		{"2026-03-03", 322, 185, -0.2, 31.6, 190.2},
	}

	days := make([]DayPositions, 0, len(rows))
	for _, r := range rows {
		days = append(days, DayPositions{
			Date: r.date,
			Positions: []models.BodyPosition{
				pos(models.Sun, r.sun, 1),
				pos(models.Moon, Normalize(r.sun+r.elong), 13),
				pos(models.Mercury, 200, r.mercury),
				pos(models.Mars, r.mars, 0.7),
				pos(models.Jupiter, 100, 0.1),
				pos(models.Saturn, r.saturn, -0.3),
				pos(models.TrueNode, node, -0.05),
			},
		})
	}
	return days
}

func TestScanSky_Events(t *testing.T) {
	events := ScanSky("2026-03", skyDays(150), TransitAspects)

	want := []struct {
		kind models.SkyEventKind
		date string
		body string
	}{
		{models.EventIngress, "2026-03-01", "mars"},
		{models.EventStation, "2026-03-02", "mercury"},
		{models.EventAspect, "2026-03-02", "jupiter"},
		{models.EventEclipse, "2026-03-03", "sun"},
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), events)
	}
	for i, w := range want {
		e := events[i]
		if e.Kind != w.kind || e.Date != w.date || e.BodyA != w.body || e.Month != "2026-03" {
			t.Fatalf("event %d = %+v, want %+v", i, e, w)
		}
		if e.ID == "" || e.Detail == "" {
			t.Fatalf("event %d missing id or detail: %+v", i, e)
		}
	}

	if events[0].Sign != "Taurus" || events[0].Detail != "Mars enters Taurus" {
		t.Fatalf("unexpected ingress %+v", events[0])
	}
	if events[1].Detail != "Mercury stations retrograde in Libra" {
		t.Fatalf("unexpected station %+v", events[1])
	}
	if events[2].BodyB != "saturn" || events[2].Aspect != Square || events[2].Orb != 0.2 {
		t.Fatalf("unexpected aspect %+v", events[2])
	}
	if events[3].Aspect != Opposition || events[3].Sign != "Leo" {
		t.Fatalf("unexpected eclipse %+v", events[3])
	}
}

func TestScanSky_DeterministicIDs(t *testing.T) {
	a := ScanSky("2026-03", skyDays(150), TransitAspects)
	b := ScanSky("2026-03", skyDays(150), TransitAspects)
	seen := make(map[string]bool)
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("id changed between scans: %s vs %s", a[i].ID, b[i].ID)
		}
		if seen[a[i].ID] {
			t.Fatalf("duplicate id %s", a[i].ID)
		}
		seen[a[i].ID] = true
	}

	other := ScanSky("2026-04", skyDays(150), TransitAspects)
	if other[0].ID == a[0].ID {
		t.Fatalf("ids must differ across months")
	}
}

func TestScanSky_NoEclipseAwayFromNodes(t *testing.T) {
	for _, e := range ScanSky("2026-03", skyDays(60), TransitAspects) {
		if e.Kind == models.EventEclipse {
			t.Fatalf("unexpected eclipse %+v", e)
		}
	}
}

func TestScanSky_CrossingNearBaselineDatedOnFirstDay(t *testing.T) {
	days := []DayPositions{
		{Date: "2026-02-28", Positions: []models.BodyPosition{
			pos(models.Sun, 10, 1), pos(models.Moon, 5, 13), pos(models.TrueNode, 15, -0.05),
		}},
		{Date: "2026-03-01", Positions: []models.BodyPosition{
			pos(models.Sun, 11, 1), pos(models.Moon, 31, 13), pos(models.TrueNode, 15, -0.05),
		}},
	}
	events := ScanSky("2026-03", days, TransitAspects)
	if len(events) != 1 || events[0].Kind != models.EventEclipse || events[0].Date != "2026-03-01" || events[0].Aspect != Conjunction {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestScanSky_TooFewDays(t *testing.T) {
	events := ScanSky("2026-03", skyDays(150)[:1], TransitAspects)
	if events == nil || len(events) != 0 {
		t.Fatalf("expected empty slice, got %#v", events)
	}
}
