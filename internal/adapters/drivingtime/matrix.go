package drivingtime

import (
	"context"
	"fmt"
	"log"
	"sync"

	"route-plan-service/internal/domain"
	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/ports"
)

// matrix holds driving times computed so far. Calculators are shared by
// concurrent uploads, so results are merged under a lock, never replaced.
type matrix struct {
	mu sync.RWMutex
	m  map[ports.LocationPair]ports.DistanceResult
}

func (x *matrix) merge(results map[ports.LocationPair]ports.DistanceResult) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.m == nil {
		x.m = make(map[ports.LocationPair]ports.DistanceResult, len(results))
	}
	for k, v := range results {
		x.m[k] = v
	}
}

// computeFunc produces driving times for the pairs missing from the cache.
// It may return more pairs than asked for.
type computeFunc func(ctx context.Context, misses []ports.LocationPair) (map[ports.LocationPair]ports.DistanceResult, error)

// fill reads pairs from cache (when set), computes only the misses, writes
// the computed results back and merges everything into the matrix.
// A failed cache write is logged; the results are still merged.
func (x *matrix) fill(
	ctx context.Context,
	cache ports.DrivingTimeCache,
	pairs []ports.LocationPair,
	compute computeFunc,
) error {
	if len(pairs) == 0 {
		return nil
	}

	hits := map[ports.LocationPair]ports.DistanceResult{}
	if cache != nil {
		var err error
		if hits, err = cache.GetMany(ctx, pairs); err != nil {
			return fmt.Errorf("get driving time cache: %w", err)
		}
	}

	var misses []ports.LocationPair
	for _, p := range pairs {
		if _, ok := hits[p]; !ok {
			misses = append(misses, p)
		}
	}
	x.merge(hits)
	if len(misses) == 0 {
		return nil
	}

	computed, err := compute(ctx, misses)
	if err != nil {
		return err
	}

	if cache != nil {
		if err := cache.PutMany(ctx, computed); err != nil {
			log.Printf("req_id=%s driving time cache write failed: %v", obs.RequestID(ctx), err)
		}
	}

	x.merge(computed)
	return nil
}

// DrivingTime returns the stored result from one location to another.
// The diagonal is always zero.
func (x *matrix) DrivingTime(from, to domain.Location) (ports.DistanceResult, bool) {
	if from == to {
		return ports.DistanceResult{}, true
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	r, ok := x.m[ports.LocationPair{From: from, To: to}]
	return r, ok
}

// orderedPairs lists every (from, to) pair of distinct locations.
func orderedPairs(locations []*domain.Location) []ports.LocationPair {
	if len(locations) < 2 {
		return nil
	}

	pairs := make([]ports.LocationPair, 0, len(locations)*(len(locations)-1))
	for _, from := range locations {
		for _, to := range locations {
			if from == to || *from == *to {
				continue
			}
			pairs = append(pairs, ports.LocationPair{From: *from, To: *to})
		}
	}
	return pairs
}
