package ports

import (
	"context"
	"route-plan-service/internal/domain"
)

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Ordered pair of locations; the driving time from A to B may differ from B to A.
type LocationPair struct {
	From domain.Location
	To   domain.Location
}

// Contract for preparing the driving-time matrix consumed by the solver.
type DrivingTimeCalculator interface {
	// Compute driving times between every ordered pair of the given unique locations.
	// Called once per assembled plan; errors must not be swallowed.
	InitDrivingTimeMaps(ctx context.Context, locations []*domain.Location) error
}

// Optional persistent store for previously computed driving times.
type DrivingTimeCache interface {
	GetMany(ctx context.Context, pairs []LocationPair) (map[LocationPair]DistanceResult, error)
	PutMany(ctx context.Context, results map[LocationPair]DistanceResult) error
}
