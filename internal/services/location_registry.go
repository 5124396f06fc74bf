package services

import (
	"math"

	"route-plan-service/internal/domain"
)

// LocationRegistry canonicalizes coordinate pairs for a single upload.
//
// The first request for a pair creates its Location; later requests with
// bit-identical float64 values return that same pointer. Near-duplicates (for
// example differing in the 6th decimal) stay distinct, and so do 0 and -0.
//
// A registry must not outlive or be shared between uploads, and is not safe
// for concurrent use.
type LocationRegistry struct {
	byCoords map[coordBits]*domain.Location
	ordered  []*domain.Location
}

func NewLocationRegistry() *LocationRegistry {
	return &LocationRegistry{byCoords: make(map[coordBits]*domain.Location)}
}

// Raw IEEE-754 bits of (lat, lng). Float keys would compare 0 == -0.
type coordBits [2]uint64

// Resolve returns the canonical Location for (lat, lng).
func (r *LocationRegistry) Resolve(lat, lng float64) *domain.Location {
	key := coordBits{math.Float64bits(lat), math.Float64bits(lng)}
	if loc, ok := r.byCoords[key]; ok {
		return loc
	}

	loc := domain.NewLocation(lat, lng)
	r.byCoords[key] = loc
	r.ordered = append(r.ordered, loc)
	return loc
}

// Locations returns the canonical set in first-seen order.
func (r *LocationRegistry) Locations() []*domain.Location {
	out := make([]*domain.Location, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *LocationRegistry) Len() int { return len(r.ordered) }
