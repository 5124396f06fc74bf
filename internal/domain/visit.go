package domain

import "time"

// Represents a single service stop that must be scheduled by the solver.
// The visit may start no earlier than MinStartTime and must be
// finished by MaxEndTime; servicing takes ServiceDuration.
type Visit struct {
	ID              string
	Name            string
	Location        *Location
	Demand          int
	MinStartTime    time.Time
	MaxEndTime      time.Time
	ServiceDuration time.Duration
}
