package astro

import "Astrolabe/internal/domain/models"

// LocateHouse returns the 1-based house containing lon. A span whose next cusp
// is smaller than its own crosses 0° Aries. When no span matches, which only
// happens with malformed cusps or a non-finite longitude, it returns house 1
// and ok=false so the caller can report the fallback.
func LocateHouse(lon float64, cusps models.HouseCusps) (house int, ok bool) {
	lon = Normalize(lon)
	for i := 0; i < 12; i++ {
		start, end := cusps[i], cusps[(i+1)%12]
		if end < start {
			if lon >= start || lon < end {
				return i + 1, true
			}
			continue
		}
		if start <= lon && lon < end {
			return i + 1, true
		}
	}
	return 1, false
}
