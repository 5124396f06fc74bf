package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
	redis "github.com/redis/go-redis/v9"

	"route-plan-service/internal/domain"
	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/ports"
)

// Keys per MGET round trip.
const redisBatchSize = 500

// RedisDrivingTimeCache stores driving times under
// "dt:<geohash from>:<geohash to>" with a TTL.
//
// Full-precision geohashes (~4cm cells) are used as keys, so two distinct
// locations inside the same cell share an entry.
type RedisDrivingTimeCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDrivingTimeCache(rdb *redis.Client, ttl time.Duration) *RedisDrivingTimeCache {
	return &RedisDrivingTimeCache{rdb: rdb, ttl: ttl}
}

// NewRedisDrivingTimeCacheFromURL connects using a redis:// URL.
func NewRedisDrivingTimeCacheFromURL(url string, ttl time.Duration) (*RedisDrivingTimeCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis driving time cache: parse url: %w", err)
	}
	return NewRedisDrivingTimeCache(redis.NewClient(opt), ttl), nil
}

func (c *RedisDrivingTimeCache) Close() error { return c.rdb.Close() }

func (c *RedisDrivingTimeCache) GetMany(
	ctx context.Context,
	pairs []ports.LocationPair,
) (_ map[ports.LocationPair]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "drivingtime.redis.GetMany")(&err)

	out := make(map[ports.LocationPair]ports.DistanceResult, len(pairs))
	for start := 0; start < len(pairs); start += redisBatchSize {
		batch := pairs[start:min(start+redisBatchSize, len(pairs))]

		keys := make([]string, 0, len(batch))
		for _, p := range batch {
			keys = append(keys, redisKey(p))
		}

		vals, err := c.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("get redis driving time cache: mget: %w", err)
		}

		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue
			}
			r, err := decodeResult(s)
			if err != nil {
				return nil, fmt.Errorf("get redis driving time cache key=%q: %w", keys[i], err)
			}
			out[batch[i]] = r
		}
	}

	return out, nil
}

func (c *RedisDrivingTimeCache) PutMany(
	ctx context.Context,
	results map[ports.LocationPair]ports.DistanceResult,
) error {
	if len(results) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for p, r := range results {
		pipe.Set(ctx, redisKey(p), encodeResult(r), c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert redis driving time cache: %w", err)
	}

	return nil
}

func redisKey(p ports.LocationPair) string {
	return "dt:" + locationHash(p.From) + ":" + locationHash(p.To)
}

func locationHash(l domain.Location) string {
	return geohash.Encode(l.Latitude, l.Longitude)
}

func encodeResult(r ports.DistanceResult) string {
	return strconv.Itoa(r.DistanceMeters) + "," + strconv.Itoa(r.DurationSeconds)
}

func decodeResult(s string) (ports.DistanceResult, error) {
	meters, seconds, ok := strings.Cut(s, ",")
	if !ok {
		return ports.DistanceResult{}, errors.New("malformed cache value")
	}

	m, err := strconv.Atoi(meters)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("malformed distance: %w", err)
	}
	sec, err := strconv.Atoi(seconds)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("malformed duration: %w", err)
	}

	return ports.DistanceResult{DistanceMeters: m, DurationSeconds: sec}, nil
}
