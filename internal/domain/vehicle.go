package domain

import "time"

// Vehicle available to the routing engine.
// HomeLocation points into the canonical location set of the upload it came from.
type Vehicle struct {
	ID            string
	Capacity      int
	HomeLocation  *Location
	DepartureTime time.Time
}
