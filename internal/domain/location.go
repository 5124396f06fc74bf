package domain

// Immutable geographic point (latitude, longitude).
// Two Locations are the same place when both coordinates are exactly equal;
// within one upload that place is represented by a single shared *Location.
type Location struct {
	Latitude  float64
	Longitude float64
}

func NewLocation(lat, lng float64) *Location {
	return &Location{Latitude: lat, Longitude: lng}
}

// Return coordinates as [lon, lat] for external API compatibility.
func (l Location) CoordsToList() []float64 { return []float64{l.Longitude, l.Latitude} }

// Return coordinates as [lat, lng], the order used by map clients.
func (l Location) LatLng() [2]float64 { return [2]float64{l.Latitude, l.Longitude} }
