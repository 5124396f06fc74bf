package drivingtime

import (
	"context"
	"sync"

	"route-plan-service/internal/domain"
)

// RecordingCalculator is a test double that records every initialization call
// and optionally fails with Err.
type RecordingCalculator struct {
	Err error

	mu    sync.Mutex
	calls [][]*domain.Location
}

func (r *RecordingCalculator) InitDrivingTimeMaps(ctx context.Context, locations []*domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	call := make([]*domain.Location, len(locations))
	copy(call, locations)
	r.calls = append(r.calls, call)

	return r.Err
}

func (r *RecordingCalculator) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// LastCall returns the locations passed to the most recent call, or nil.
func (r *RecordingCalculator) LastCall() []*domain.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}
