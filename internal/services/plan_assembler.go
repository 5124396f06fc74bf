package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"route-plan-service/internal/domain"
	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/ports"
)

// Plan window used when an upload carries no visits.
const (
	defaultStartHour = 8
	defaultEndHour   = 18
)

// Raw inputs of one upload. A nil reader means the file was not provided.
type UploadInput struct {
	Vehicles io.Reader
	Visits   io.Reader
}

// Assembler turns parsed vehicles and visits into a RoutePlan ready for solving.
// It holds no per-upload state and may be shared between requests.
type Assembler struct {
	Calculator ports.DrivingTimeCalculator
	Now        func() time.Time
}

func NewAssembler(calculator ports.DrivingTimeCalculator) *Assembler {
	return &Assembler{Calculator: calculator, Now: time.Now}
}

// Upload parses both files with a fresh LocationRegistry and assembles the plan.
// Any failure aborts the whole upload; no partial plan is returned.
func (a *Assembler) Upload(ctx context.Context, in UploadInput) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "plan.Upload")(&err)

	if in.Vehicles == nil || in.Visits == nil {
		return nil, fmt.Errorf(
			"upload plan: %w: both vehicles and visits files must be provided",
			domain.ErrMissingInput,
		)
	}

	reg := NewLocationRegistry()

	vehicles, err := ParseVehicles(in.Vehicles, reg)
	if err != nil {
		return nil, fmt.Errorf("upload plan: %w", err)
	}

	visits, err := ParseVisits(in.Visits, reg)
	if err != nil {
		return nil, fmt.Errorf("upload plan: %w", err)
	}

	plan, err := a.Assemble(ctx, vehicles, visits, reg)
	if err != nil {
		return nil, fmt.Errorf("upload plan: %w", err)
	}

	log.Printf(
		"req_id=%s plan assembled vehicles=%d visits=%d locations=%d",
		obs.RequestID(ctx), len(vehicles), len(visits), reg.Len(),
	)

	return plan, nil
}

// Assemble derives the bounding box and time window, builds the plan and then
// initializes driving times for every canonical location exactly once.
func (a *Assembler) Assemble(
	ctx context.Context,
	vehicles []*domain.Vehicle,
	visits []*domain.Visit,
	reg *LocationRegistry,
) (*domain.RoutePlan, error) {
	if a.Calculator == nil {
		return nil, errors.New("assemble plan: driving time calculator is nil")
	}

	locations := reg.Locations()
	bounds, ok := domain.BoundingBoxOf(locations)
	if !ok {
		return nil, fmt.Errorf("assemble plan: %w: upload contains no vehicles or visits", domain.ErrMissingInput)
	}

	start, end := a.planWindow(visits)

	plan := &domain.RoutePlan{
		Name:          domain.UploadedPlanName,
		Bounds:        bounds,
		StartDateTime: start,
		EndDateTime:   end,
		Vehicles:      vehicles,
		Visits:        visits,
	}

	if err := a.Calculator.InitDrivingTimeMaps(ctx, locations); err != nil {
		return nil, fmt.Errorf("assemble plan: %w: %w", domain.ErrInitialization, err)
	}

	return plan, nil
}

// planWindow spans the earliest visit start to the latest visit end,
// or today 08:00-18:00 local time when there are no visits.
func (a *Assembler) planWindow(visits []*domain.Visit) (time.Time, time.Time) {
	if len(visits) == 0 {
		now := time.Now()
		if a.Now != nil {
			now = a.Now()
		}
		y, m, d := now.Date()
		return time.Date(y, m, d, defaultStartHour, 0, 0, 0, now.Location()),
			time.Date(y, m, d, defaultEndHour, 0, 0, 0, now.Location())
	}

	start := visits[0].MinStartTime
	end := visits[0].MaxEndTime
	for _, v := range visits[1:] {
		if v.MinStartTime.Before(start) {
			start = v.MinStartTime
		}
		if v.MaxEndTime.After(end) {
			end = v.MaxEndTime
		}
	}

	return start, end
}
