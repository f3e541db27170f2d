package astro

import (
	"strings"
	"testing"

	"Astrolabe/internal/domain/models"
)

func TestInterpretAspect(t *testing.T) {
	cases := []struct {
		match models.AspectMatch
		want  string
	}{
		{models.AspectMatch{BodyA: "mars", BodyB: "sun", Aspect: Conjunction, Applying: false}, "Mars conjunct your natal Sun (separating): intense energy in that area."},
		{models.AspectMatch{BodyA: "venus", BodyB: "true_node", Aspect: Trine, Applying: true}, "Venus trine your natal True Node (applying): a favorable flow, make the most of opportunities."},
		{models.AspectMatch{BodyA: "mercury", BodyB: "mars", Aspect: Sextile}, "Mercury sextile your natal Mars (separating): openings if you take action."},
		{models.AspectMatch{BodyA: "saturn", BodyB: "moon", Aspect: Square}, "Saturn square your natal Moon (separating): creative tension, adjust your expectations."},
		{models.AspectMatch{BodyA: "jupiter", BodyB: "sun", Aspect: Opposition, Applying: true}, "Jupiter opposite your natal Sun (applying): look for balance and negotiate."},
		{models.AspectMatch{BodyA: "pluto", BodyB: "venus", Aspect: Quincunx}, "Pluto aspects your natal Venus (separating)."},
	}
	for _, tc := range cases {
		if got := InterpretAspect(tc.match); got != tc.want {
			t.Fatalf("got %q, want %q", got, tc.want)
		}
	}
}

func TestAdvice(t *testing.T) {
	cases := []struct {
		name    string
		aspects []string
		want    string
	}{
		{"none", nil, adviceMixed},
		{"harmonic", []string{Trine, Sextile, Square}, adviceFavorable},
		{"challenging", []string{Opposition, Square, Conjunction}, adviceChallenging},
		{"balanced", []string{Trine, Square, Conjunction}, adviceMixed},
	}
	for _, tc := range cases {
		var matches []models.AspectMatch
		for _, a := range tc.aspects {
			matches = append(matches, models.AspectMatch{Aspect: a})
		}
		if got := Advice(matches); got != tc.want {
			t.Fatalf("%s: got %q", tc.name, got)
		}
	}
}

func TestInterpret_OnlyTopThreeAspects(t *testing.T) {
	aspects := []models.AspectMatch{
		{BodyA: "moon", BodyB: "sun", Aspect: Sextile},
		{BodyA: "venus", BodyB: "sun", Aspect: Sextile},
		{BodyA: "mars", BodyB: "sun", Aspect: Sextile},
		{BodyA: "jupiter", BodyB: "sun", Aspect: Sextile},
	}
	got := Interpret(aspects, nil)
	if strings.Contains(got.Summary, "Jupiter") {
		t.Fatalf("fourth aspect should not be interpreted:\n%s", got.Summary)
	}
	if strings.Count(got.Summary, "\n- ") != 3 {
		t.Fatalf("expected three aspect lines:\n%s", got.Summary)
	}
	if got.Advice != adviceFavorable {
		t.Fatalf("unexpected advice %q", got.Advice)
	}
}

func TestInterpret_Empty(t *testing.T) {
	got := Interpret(nil, nil)
	if got.Summary != "" || got.Advice != adviceMixed {
		t.Fatalf("unexpected interpretation %+v", got)
	}
}

func TestHouseMeaning(t *testing.T) {
	if HouseMeaning(10) != "career and reputation" || HouseMeaning(0) != "" || HouseMeaning(13) != "" {
		t.Fatalf("unexpected house meanings")
	}
}
