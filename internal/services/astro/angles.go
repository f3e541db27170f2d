package astro

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RetrogradeMarker is appended to formatted positions of retrograde bodies.
const RetrogradeMarker = "℞"

// SignNames lists the zodiac signs in ecliptic order; index 0 is Aries.
var SignNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var (
	sixty  = decimal.NewFromInt(60)
	thirty = decimal.NewFromInt(30)
)

// Normalize reduces lon into [0,360).
func Normalize(lon float64) float64 {
	n := math.Mod(lon, 360)
	if n < 0 {
		n += 360
	}
	// tiny negatives round up to exactly 360 after the addition
	if n >= 360 {
		n = 0
	}
	return n
}

// Separation is the unsigned shortest arc between a and b, in [0,180].
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// SignIndex returns the 0-based sign containing lon.
func SignIndex(lon float64) int {
	idx := int(Normalize(lon) / 30)
	if idx > 11 {
		idx = 11
	}
	return idx
}

// Zodiac is a longitude broken into sign, degrees, minutes and seconds.
type Zodiac struct {
	SignIndex  int
	Degree     int
	Minute     int
	Second     int
	Retrograde bool
}

func (z Zodiac) Sign() string {
	return SignNames[z.SignIndex]
}

func (z Zodiac) String() string {
	s := fmt.Sprintf("%s %d° %d' %d\"", z.Sign(), z.Degree, z.Minute, z.Second)
	if z.Retrograde {
		s += " " + RetrogradeMarker
	}
	return s
}

// FormatZodiac decomposes lon into sign/degree/minute/second. Seconds are
// rounded half away from zero and carried into minutes, degrees and sign.
// The arithmetic is decimal so binary float error cannot bias the seconds.
func FormatZodiac(lon, speed float64) Zodiac {
	lon = Normalize(lon)
	sign := SignIndex(lon)

	rem := decimal.NewFromFloat(lon).Sub(decimal.NewFromInt(int64(sign)).Mul(thirty))
	deg := rem.Floor()
	minutes := rem.Sub(deg).Mul(sixty)
	min := minutes.Floor()
	sec := minutes.Sub(min).Mul(sixty).Round(0)

	z := Zodiac{
		SignIndex:  sign,
		Degree:     int(deg.IntPart()),
		Minute:     int(min.IntPart()),
		Second:     int(sec.IntPart()),
		Retrograde: speed < 0,
	}

	if z.Second == 60 {
		z.Second = 0
		z.Minute++
	}
	if z.Minute == 60 {
		z.Minute = 0
		z.Degree++
	}
	if z.Degree == 30 {
		z.Degree = 0
		z.SignIndex = (z.SignIndex + 1) % 12
	}
	return z
}

// Round4 rounds v to four decimals, half away from zero.
func Round4(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return f
}

// DisplayName turns a body identifier such as "true_node" into "True Node".
func DisplayName(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
