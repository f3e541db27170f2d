package astro

import (
	"fmt"
	"strings"

	"Astrolabe/internal/domain/models"
)

var houseMeanings = [12]string{
	"identity and appearance",
	"money and resources",
	"communication and siblings",
	"home and family",
	"love and creativity",
	"work and health",
	"partnerships",
	"transformation and shared resources",
	"study and travel",
	"career and reputation",
	"friendships and projects",
	"spirituality and rest",
}

const (
	adviceFavorable   = "A favorable day to move your projects forward. Stay focused and trust the flow."
	adviceChallenging = "A day for adjustments and patience. Avoid forcing things; observe and adapt."
	adviceMixed       = "A mixed day: pick one concrete priority and stay flexible about the rest."

	interpretedAspects = 3
)

// HouseMeaning returns the life area of a 1-based house.
func HouseMeaning(house int) string {
	if house < 1 || house > 12 {
		return ""
	}
	return houseMeanings[house-1]
}

// Interpret renders the fixed-template reading of the ranked aspects and
// houses.
func Interpret(aspects []models.AspectMatch, houses []models.HouseActivation) models.Interpretation {
	var lines []string

	if len(aspects) > 0 {
		lines = append(lines, "Key aspects of the day:")
		for i, a := range aspects {
			if i == interpretedAspects {
				break
			}
			lines = append(lines, "- "+InterpretAspect(a))
		}
	}

	if len(houses) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "Areas of life in focus:")
		for _, h := range houses {
			names := make([]string, len(h.Bodies))
			for i, b := range h.Bodies {
				names[i] = DisplayName(b)
			}
			lines = append(lines, fmt.Sprintf("- House %d (%s): activated by %s.", h.House, h.Meaning, strings.Join(names, ", ")))
		}
	}

	return models.Interpretation{
		Summary: strings.Join(lines, "\n"),
		Advice:  Advice(aspects),
	}
}

func InterpretAspect(a models.AspectMatch) string {
	transit, natal := DisplayName(a.BodyA), DisplayName(a.BodyB)
	motion := "separating"
	if a.Applying {
		motion = "applying"
	}

	switch a.Aspect {
	case Conjunction:
		return fmt.Sprintf("%s conjunct your natal %s (%s): intense energy in that area.", transit, natal, motion)
	case Trine:
		return fmt.Sprintf("%s trine your natal %s (%s): a favorable flow, make the most of opportunities.", transit, natal, motion)
	case Sextile:
		return fmt.Sprintf("%s sextile your natal %s (%s): openings if you take action.", transit, natal, motion)
	case Square:
		return fmt.Sprintf("%s square your natal %s (%s): creative tension, adjust your expectations.", transit, natal, motion)
	case Opposition:
		return fmt.Sprintf("%s opposite your natal %s (%s): look for balance and negotiate.", transit, natal, motion)
	default:
		return fmt.Sprintf("%s aspects your natal %s (%s).", transit, natal, motion)
	}
}

// Advice picks the tone from harmonic against challenging aspects.
func Advice(aspects []models.AspectMatch) string {
	var harmonic, challenging int
	for _, a := range aspects {
		def := AspectDefinition{Name: a.Aspect}
		switch {
		case def.Harmonic():
			harmonic++
		case def.Challenging():
			challenging++
		}
	}
	switch {
	case harmonic > challenging:
		return adviceFavorable
	case challenging > harmonic:
		return adviceChallenging
	default:
		return adviceMixed
	}
}
