package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	if err := mc.Set(ctx, "a", payload{Name: "sun", Value: 111.0894}, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := mc.Get(ctx, "a", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "sun" || got.Value != 111.0894 {
		t.Fatalf("unexpected value %+v", got)
	}

	var raw []byte
	if err := mc.Get(ctx, "a", &raw); err != nil {
		t.Fatalf("get raw: %v", err)
	}
	if string(raw) != `{"name":"sun","value":111.0894}` {
		t.Fatalf("unexpected raw value %s", raw)
	}

	if err := mc.Get(ctx, "missing", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_PassiveExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryClock(clock.Now))

	_ = mc.Set(ctx, "short", "x", time.Minute)
	_ = mc.Set(ctx, "forever", "y", 0)

	clock.Advance(59 * time.Second)
	if ok, _ := mc.Exists(ctx, "short"); !ok {
		t.Fatalf("entry expired too early")
	}
	if ttl, err := mc.TTL(ctx, "short"); err != nil || ttl != time.Second {
		t.Fatalf("expected 1s ttl, got %v (%v)", ttl, err)
	}

	clock.Advance(time.Second)
	var s string
	if err := mc.Get(ctx, "short", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
	if mc.Len() != 1 {
		t.Fatalf("expired entry should be dropped on access, len=%d", mc.Len())
	}

	clock.Advance(365 * 24 * time.Hour)
	if err := mc.Get(ctx, "forever", &s); err != nil || s != "y" {
		t.Fatalf("non-expiring entry lost: %q %v", s, err)
	}
	if ttl, err := mc.TTL(ctx, "forever"); err != nil || ttl != 0 {
		t.Fatalf("expected zero ttl for non-expiring entry, got %v (%v)", ttl, err)
	}
}

func TestMemoryCache_EvictsOldestInserted(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(3), WithMemoryShards(1))

	for _, k := range []string{"a", "b", "c"} {
		_ = mc.Set(ctx, k, k, 0)
	}

	// reading does not refresh insertion order
	var s string
	_ = mc.Get(ctx, "a", &s)

	_ = mc.Set(ctx, "d", "d", 0)

	if ok, _ := mc.Exists(ctx, "a"); ok {
		t.Fatalf("expected oldest inserted key to be evicted")
	}
	for _, k := range []string{"b", "c", "d"} {
		if ok, _ := mc.Exists(ctx, k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}

	// re-inserting moves a key to the back
	_ = mc.Set(ctx, "b", "b2", 0)
	_ = mc.Set(ctx, "e", "e", 0)
	if ok, _ := mc.Exists(ctx, "c"); ok {
		t.Fatalf("expected c to be evicted after b was re-inserted")
	}
	if err := mc.Get(ctx, "b", &s); err != nil || s != "b2" {
		t.Fatalf("expected b2, got %q %v", s, err)
	}
}

func TestMemoryCache_BoundedAcrossShards(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(50), WithMemoryShards(8))

	for i := 0; i < 500; i++ {
		_ = mc.Set(ctx, fmt.Sprintf("key-%d", i), i, 0)
	}
	if n := mc.Len(); n != 50 {
		t.Fatalf("expected cache to hold exactly its bound, got %d", n)
	}
}

func TestMemoryCache_FillsToBoundBeforeEvicting(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(1000), WithMemoryShards(16))

	for i := 0; i < 1000; i++ {
		_ = mc.Set(ctx, fmt.Sprintf("key-%d", i), i, 0)
		if n := mc.Len(); n != i+1 {
			t.Fatalf("entry evicted below the bound: len=%d after %d inserts", n, i+1)
		}
	}
	for i := 0; i < 1000; i++ {
		if ok, _ := mc.Exists(ctx, fmt.Sprintf("key-%d", i)); !ok {
			t.Fatalf("key-%d missing while cache is at its bound", i)
		}
	}

	// overwriting does not grow the cache
	_ = mc.Set(ctx, "key-500", -1, 0)
	if n := mc.Len(); n != 1000 {
		t.Fatalf("overwrite changed len to %d", n)
	}

	for i := 1000; i < 1003; i++ {
		_ = mc.Set(ctx, fmt.Sprintf("key-%d", i), i, 0)
	}
	if n := mc.Len(); n != 1000 {
		t.Fatalf("expected len 1000, got %d", n)
	}
	for i := 0; i < 3; i++ {
		if ok, _ := mc.Exists(ctx, fmt.Sprintf("key-%d", i)); ok {
			t.Fatalf("expected key-%d to be evicted first", i)
		}
	}
	for _, i := range []int{3, 500, 999, 1002} {
		if ok, _ := mc.Exists(ctx, fmt.Sprintf("key-%d", i)); !ok {
			t.Fatalf("expected key-%d to survive", i)
		}
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(256))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k-%d-%d", g, i%32)
				_ = mc.Set(ctx, key, i, time.Minute)
				var v int
				_ = mc.Get(ctx, key, &v)
			}
		}(g)
	}
	wg.Wait()

	if n := mc.Len(); n > 256 {
		t.Fatalf("cache grew past its bound: %d", n)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	_ = mc.Set(ctx, "a", 1, 0)
	_ = mc.Set(ctx, "b", 2, 0)
	if err := mc.Delete(ctx, "a", "b", "c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := mc.Exists(ctx, "a", "b"); ok {
		t.Fatalf("expected keys to be deleted")
	}
}
