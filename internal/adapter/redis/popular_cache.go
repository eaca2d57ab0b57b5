package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pscheid92/audiopulse/internal/adapter/metrics"
	"github.com/pscheid92/audiopulse/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Versioned so a payload shape change never deserializes stale entries.
const popularCacheKey = "popular_feed:v1"

// PopularCacheRepo caches the assembled popular list in Redis. A read error
// (including an open circuit breaker) is reported as a miss so callers fall
// back to rebuilding from Postgres.
type PopularCacheRepo struct {
	rdb     goredis.Cmdable
	ttl     time.Duration
	metrics *metrics.CacheMetrics
}

var _ domain.PopularCache = (*PopularCacheRepo)(nil)

func NewPopularCacheRepo(rdb goredis.Cmdable, ttl time.Duration, cacheMetrics *metrics.CacheMetrics) *PopularCacheRepo {
	return &PopularCacheRepo{
		rdb:     rdb,
		ttl:     ttl,
		metrics: cacheMetrics,
	}
}

func (r *PopularCacheRepo) Get(ctx context.Context) ([]domain.RankedClip, bool, error) {
	data, err := r.rdb.Get(ctx, popularCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			r.miss()
			return nil, false, nil
		}
		r.fail()
		return nil, false, nil
	}

	var clips []domain.RankedClip
	if err := json.Unmarshal(data, &clips); err != nil {
		// Treat a corrupt entry as a miss; the next Set overwrites it.
		r.fail()
		return nil, false, nil
	}

	r.hit()
	return clips, true, nil
}

func (r *PopularCacheRepo) Set(ctx context.Context, clips []domain.RankedClip) error {
	encoded, err := json.Marshal(clips)
	if err != nil {
		r.fail()
		return err
	}

	if err := r.rdb.Set(ctx, popularCacheKey, encoded, r.ttl).Err(); err != nil {
		r.fail()
		return err
	}
	return nil
}

func (r *PopularCacheRepo) hit() {
	if r.metrics != nil {
		r.metrics.Hits.Inc()
	}
}

func (r *PopularCacheRepo) miss() {
	if r.metrics != nil {
		r.metrics.Misses.Inc()
	}
}

func (r *PopularCacheRepo) fail() {
	if r.metrics != nil {
		r.metrics.Errors.Inc()
	}
}
