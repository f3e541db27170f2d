package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time // zero means no expiry
	seq      uint64    // global insertion order
	elem     *list.Element
}

func (m *memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && !now.Before(m.expireAt)
}

type memoryShard struct {
	mu    sync.Mutex
	items map[string]*memoryItem
	order *list.List // insertion order, oldest at front
}

// remove drops key from the shard. Caller holds s.mu.
func (s *memoryShard) remove(key string, item *memoryItem) {
	s.order.Remove(item.elem)
	delete(s.items, key)
}

// MemoryCache is a sharded in-process store. Each shard has its own lock;
// the entry bound is global. Once more than maxSize entries are stored the
// least recently inserted entry across all shards is evicted. Expired
// entries are dropped lazily on access.
type MemoryCache struct {
	shards  []*memoryShard
	now     func() time.Time
	maxSize int64
	count   atomic.Int64
	seq     atomic.Uint64
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize: 1000,
		Shards:  16,
		Clock:   time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.Shards <= 0 {
		cfg.Shards = 1
	}
	if cfg.Shards > cfg.MaxSize {
		cfg.Shards = cfg.MaxSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	mc := &MemoryCache{
		shards:  make([]*memoryShard, cfg.Shards),
		now:     cfg.Clock,
		maxSize: int64(cfg.MaxSize),
	}
	for i := range mc.shards {
		mc.shards[i] = &memoryShard{
			items: make(map[string]*memoryItem),
			order: list.New(),
		}
	}
	return mc
}

func (mc *MemoryCache) shard(key string) *memoryShard {
	return mc.shards[xxhash.Sum64String(key)%uint64(len(mc.shards))]
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	var expireAt time.Time
	if expiration > 0 {
		expireAt = mc.now().Add(expiration)
	}

	s := mc.shard(key)
	s.mu.Lock()
	old, replaced := s.items[key]
	if replaced {
		s.remove(key, old)
	}
	item := &memoryItem{value: data, expireAt: expireAt, seq: mc.seq.Add(1)}
	item.elem = s.order.PushBack(key)
	s.items[key] = item
	s.mu.Unlock()

	if !replaced && mc.count.Add(1) > mc.maxSize {
		mc.evict()
	}
	return nil
}

// evict removes the oldest inserted entries until the store is back within
// its bound. Only one shard lock is held at a time.
func (mc *MemoryCache) evict() {
	for mc.count.Load() > mc.maxSize {
		var (
			victim *memoryShard
			minSeq uint64
		)
		for _, s := range mc.shards {
			s.mu.Lock()
			if front := s.order.Front(); front != nil {
				seq := s.items[front.Value.(string)].seq
				if victim == nil || seq < minSeq {
					victim, minSeq = s, seq
				}
			}
			s.mu.Unlock()
		}
		if victim == nil {
			return
		}

		victim.mu.Lock()
		if front := victim.order.Front(); front != nil {
			key := front.Value.(string)
			// another writer may have replaced the front meanwhile
			if item := victim.items[key]; item.seq == minSeq {
				victim.remove(key, item)
				mc.count.Add(-1)
			}
		}
		victim.mu.Unlock()
	}
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	s := mc.shard(key)
	s.mu.Lock()
	item, ok := s.items[key]
	if ok && item.expired(mc.now()) {
		s.remove(key, item)
		mc.count.Add(-1)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return decode(item.value, dest)
}

// TTL reports the remaining lifetime of key. Zero with a nil error means the
// entry never expires.
func (mc *MemoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	s := mc.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	now := mc.now()
	if !ok || item.expired(now) {
		return 0, ErrCacheMiss
	}
	if item.expireAt.IsZero() {
		return 0, nil
	}
	return item.expireAt.Sub(now), nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s := mc.shard(key)
		s.mu.Lock()
		if item, ok := s.items[key]; ok {
			s.remove(key, item)
			mc.count.Add(-1)
		}
		s.mu.Unlock()
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	now := mc.now()
	for _, key := range keys {
		s := mc.shard(key)
		s.mu.Lock()
		item, ok := s.items[key]
		live := ok && !item.expired(now)
		s.mu.Unlock()
		if live {
			return true, nil
		}
	}
	return false, nil
}

// Len counts stored entries, including expired ones not yet dropped.
func (mc *MemoryCache) Len() int {
	return int(mc.count.Load())
}

func (mc *MemoryCache) Close() error {
	return nil
}
