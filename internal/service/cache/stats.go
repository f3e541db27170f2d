package cache

import (
	"sync"
	"time"
)

type kindCounters struct {
	hits         int64
	misses       int64
	computations int64
	computeTime  time.Duration
}

// Stats counts cache outcomes per artifact kind.
type Stats struct {
	mu     sync.Mutex
	counts map[Kind]*kindCounters
}

func NewStats() *Stats {
	return &Stats{counts: make(map[Kind]*kindCounters)}
}

func (s *Stats) get(kind Kind) *kindCounters {
	c, ok := s.counts[kind]
	if !ok {
		c = &kindCounters{}
		s.counts[kind] = c
	}
	return c
}

func (s *Stats) hit(kind Kind) {
	s.mu.Lock()
	s.get(kind).hits++
	s.mu.Unlock()
}

func (s *Stats) miss(kind Kind) {
	s.mu.Lock()
	s.get(kind).misses++
	s.mu.Unlock()
}

func (s *Stats) computed(kind Kind, d time.Duration) {
	s.mu.Lock()
	c := s.get(kind)
	c.computations++
	c.computeTime += d
	s.mu.Unlock()
}

// KindStats is a point-in-time view of one kind's counters.
type KindStats struct {
	Kind         Kind    `json:"kind"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Computations int64   `json:"computations"`
	HitRate      float64 `json:"hit_rate"`
	AvgComputeMs float64 `json:"avg_compute_ms"`
	TTLSeconds   int64   `json:"ttl_seconds"`
}

// Snapshot reports every known kind, including kinds with no traffic yet.
func (s *Stats) Snapshot(policy Policy) []KindStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]KindStats, 0, len(Kinds))
	for _, kind := range Kinds {
		ks := KindStats{Kind: kind, TTLSeconds: int64(policy.TTL(kind) / time.Second)}
		if c, ok := s.counts[kind]; ok {
			ks.Hits = c.hits
			ks.Misses = c.misses
			ks.Computations = c.computations
			if total := c.hits + c.misses; total > 0 {
				ks.HitRate = float64(c.hits) / float64(total)
			}
			if c.computations > 0 {
				ks.AvgComputeMs = float64(c.computeTime.Microseconds()) / 1000 / float64(c.computations)
			}
		}
		out = append(out, ks)
	}
	return out
}
