package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"Astrolabe/internal/domain/repository"
	pkgcache "Astrolabe/pkg/cache"
	"Astrolabe/pkg/logger"
)

// Layer sits between the use cases and a cache store. It owns the TTL policy,
// collapses concurrent computations of one key into a single call and keeps
// per-kind stats. Store failures never fail a request; the value is computed
// instead.
type Layer struct {
	store   pkgcache.Service
	policy  Policy
	group   singleflight.Group
	stats   *Stats
	log     *logger.Logger
	metrics repository.Metrics
}

type LayerOption func(*Layer)

func WithLogger(l *logger.Logger) LayerOption {
	return func(layer *Layer) {
		layer.log = l
	}
}

func WithMetrics(m repository.Metrics) LayerOption {
	return func(layer *Layer) {
		layer.metrics = m
	}
}

func NewLayer(store pkgcache.Service, policy Policy, opts ...LayerOption) *Layer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	l := &Layer{
		store:  store,
		policy: policy,
		stats:  NewStats(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) Policy() Policy {
	return l.policy
}

func (l *Layer) Stats() []KindStats {
	return l.stats.Snapshot(l.policy)
}

// Result carries a value and whether it was served from the store.
type Result[T any] struct {
	Value     T
	FromCache bool
}

// GetOrCompute returns the cached value for key, or runs fn once per key no
// matter how many callers miss concurrently, stores its result under the
// kind's TTL and returns it. Errors from fn are returned and never cached.
func GetOrCompute[T any](ctx context.Context, l *Layer, kind Kind, key string, fn func(ctx context.Context) (T, error)) (Result[T], error) {
	var cached T
	err := l.store.Get(ctx, key, &cached)
	switch {
	case err == nil:
		l.stats.hit(kind)
		l.record(kind, true)
		l.log.Debug("cache hit", logger.String("kind", string(kind)), logger.String("key", key))
		return Result[T]{Value: cached, FromCache: true}, nil
	case !errors.Is(err, pkgcache.ErrCacheMiss):
		l.log.Warn("cache read failed, computing",
			logger.String("kind", string(kind)), logger.String("key", key), logger.Error(err))
		l.recordError("cache_read")
	}

	l.stats.miss(kind)
	l.record(kind, false)
	l.log.Debug("cache miss", logger.String("kind", string(kind)), logger.String("key", key))

	// the flight outlives a caller that gives up, so the value still lands in the store
	flightCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		start := time.Now()
		v, err := fn(flightCtx)
		elapsed := time.Since(start)
		if err != nil {
			return nil, err
		}
		l.stats.computed(kind, elapsed)
		if l.metrics != nil {
			l.metrics.RecordLatency("compute_"+string(kind), elapsed.Seconds())
		}

		if err := l.store.Set(flightCtx, key, v, l.policy.TTL(kind)); err != nil {
			l.log.Warn("cache write failed",
				logger.String("kind", string(kind)), logger.String("key", key), logger.Error(err))
			l.recordError("cache_write")
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result[T]{}, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return Result[T]{}, fmt.Errorf("cache: unexpected value type %T for %s", res.Val, key)
		}
		return Result[T]{Value: v}, nil
	}
}

// Fetch fingerprints input under kind and delegates to GetOrCompute.
func Fetch[T any](ctx context.Context, l *Layer, kind Kind, input interface{}, fn func(ctx context.Context) (T, error)) (Result[T], error) {
	key, err := pkgcache.Fingerprint(string(kind), input)
	if err != nil {
		return Result[T]{}, fmt.Errorf("cache key for %s: %w", kind, err)
	}
	return GetOrCompute(ctx, l, kind, key, fn)
}

func (l *Layer) record(kind Kind, hit bool) {
	if l.metrics != nil {
		l.metrics.RecordCacheResult(string(kind), hit)
	}
}

func (l *Layer) recordError(kind string) {
	if l.metrics != nil {
		l.metrics.RecordError(kind)
	}
}
