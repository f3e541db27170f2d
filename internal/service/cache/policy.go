package cache

import (
	"time"

	"Astrolabe/pkg/config"
)

// Kind names a cacheable artifact. Each kind has its own TTL and stats.
type Kind string

const (
	KindTransitSnapshot Kind = "transit-snapshot"
	KindNatalChart      Kind = "natal-chart"
	KindDailyHoroscope  Kind = "daily-horoscope"
	KindMonthlyTransits Kind = "monthly-transits"
)

// Kinds lists every artifact kind in reporting order.
var Kinds = []Kind{KindTransitSnapshot, KindNatalChart, KindDailyHoroscope, KindMonthlyTransits}

// Policy maps each kind to its time-to-live. Zero means the entry never
// expires and is only removed by eviction.
type Policy map[Kind]time.Duration

func DefaultPolicy() Policy {
	return Policy{
		KindTransitSnapshot: time.Hour,
		KindNatalChart:      30 * 24 * time.Hour,
		KindDailyHoroscope:  6 * time.Hour,
		KindMonthlyTransits: 30 * time.Minute,
	}
}

// PolicyFromConfig builds a policy from the cache.ttl section.
func PolicyFromConfig(cfg config.CacheTTLConfig) Policy {
	return Policy{
		KindTransitSnapshot: cfg.TransitSnapshot,
		KindNatalChart:      cfg.NatalChart,
		KindDailyHoroscope:  cfg.DailyHoroscope,
		KindMonthlyTransits: cfg.MonthlyTransits,
	}
}

func (p Policy) TTL(kind Kind) time.Duration {
	return p[kind]
}
