package domain

import "time"

// Name given to plans built from uploaded files.
const UploadedPlanName = "uploaded-plan"

// Rectangle enclosing every location of a plan.
type BoundingBox struct {
	SouthWest Location
	NorthEast Location
}

// BoundingBoxOf returns the smallest box containing all locations.
// The second result is false when locations is empty.
func BoundingBoxOf(locations []*Location) (BoundingBox, bool) {
	if len(locations) == 0 {
		return BoundingBox{}, false
	}

	first := locations[0]
	box := BoundingBox{SouthWest: *first, NorthEast: *first}
	for _, l := range locations[1:] {
		box.SouthWest.Latitude = min(box.SouthWest.Latitude, l.Latitude)
		box.SouthWest.Longitude = min(box.SouthWest.Longitude, l.Longitude)
		box.NorthEast.Latitude = max(box.NorthEast.Latitude, l.Latitude)
		box.NorthEast.Longitude = max(box.NorthEast.Longitude, l.Longitude)
	}

	return box, true
}

// Represents a complete, unsolved routing problem instance.
// A RoutePlan is handed off wholesale to the solver; it is not mutated
// after assembly.
type RoutePlan struct {
	Name          string
	Bounds        BoundingBox
	StartDateTime time.Time
	EndDateTime   time.Time
	Vehicles      []*Vehicle
	Visits        []*Visit
}
