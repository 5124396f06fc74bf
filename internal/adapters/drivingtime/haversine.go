package drivingtime

import (
	"context"
	"errors"
	"fmt"
	"math"

	"route-plan-service/internal/domain"
	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/ports"
)

const earthRadiusMeters = 6_371_000.0

// HaversineCalculator estimates driving times from great-circle distance at a
// constant average speed. It needs no network access and is the default
// backend for the solver's driving-time matrix.
//
// Safe for concurrent use.
type HaversineCalculator struct {
	metersPerSecond float64
	cache           ports.DrivingTimeCache
	matrix
}

// NewHaversineCalculator builds a calculator; cache may be nil.
func NewHaversineCalculator(averageSpeedKmh float64, cache ports.DrivingTimeCache) (*HaversineCalculator, error) {
	if averageSpeedKmh <= 0 || math.IsNaN(averageSpeedKmh) || math.IsInf(averageSpeedKmh, 0) {
		return nil, errors.New("haversine calculator: average speed must be a positive number")
	}

	return &HaversineCalculator{metersPerSecond: averageSpeedKmh * 1000 / 3600, cache: cache}, nil
}

func (h *HaversineCalculator) InitDrivingTimeMaps(ctx context.Context, locations []*domain.Location) (err error) {
	defer obs.Time(ctx, "haversine.InitDrivingTimeMaps")(&err)

	if err := h.fill(ctx, h.cache, orderedPairs(locations), h.estimateAll); err != nil {
		return fmt.Errorf("haversine init: %w", err)
	}
	return nil
}

func (h *HaversineCalculator) estimateAll(
	ctx context.Context,
	pairs []ports.LocationPair,
) (map[ports.LocationPair]ports.DistanceResult, error) {
	results := make(map[ports.LocationPair]ports.DistanceResult, len(pairs))
	for i, p := range pairs {
		// n^2 pairs: check for cancellation periodically.
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results[p] = h.estimate(p.From, p.To)
	}
	return results, nil
}

func (h *HaversineCalculator) estimate(from, to domain.Location) ports.DistanceResult {
	meters := haversineMeters(from, to)
	return ports.DistanceResult{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(meters / h.metersPerSecond)),
	}
}

func haversineMeters(a, b domain.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}
