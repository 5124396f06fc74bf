package dto

import (
	"time"

	"route-plan-service/internal/domain"
)

// ISO-8601 local date-time without offset, as the map UI expects.
const localDateTimeLayout = "2006-01-02T15:04:05"

// LocalDateTime marshals as "2006-01-02T15:04:05".
type LocalDateTime time.Time

func (t LocalDateTime) MarshalText() ([]byte, error) {
	return []byte(time.Time(t).Format(localDateTimeLayout)), nil
}

// [lat, lng]
type LatLng [2]float64

func latLng(l *domain.Location) LatLng {
	if l == nil {
		return LatLng{}
	}
	return l.LatLng()
}

type VehicleResponse struct {
	ID            string        `json:"id"`
	Capacity      int           `json:"capacity"`
	HomeLocation  LatLng        `json:"homeLocation"`
	DepartureTime LocalDateTime `json:"departureTime"`
	Visits        []string      `json:"visits"`
}

type VisitResponse struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Location        LatLng        `json:"location"`
	Demand          int           `json:"demand"`
	MinStartTime    LocalDateTime `json:"minStartTime"`
	MaxEndTime      LocalDateTime `json:"maxEndTime"`
	ServiceDuration int64         `json:"serviceDuration"`
}

type RoutePlanResponse struct {
	Name            string            `json:"name"`
	SouthWestCorner LatLng            `json:"southWestCorner"`
	NorthEastCorner LatLng            `json:"northEastCorner"`
	StartDateTime   LocalDateTime     `json:"startDateTime"`
	EndDateTime     LocalDateTime     `json:"endDateTime"`
	Vehicles        []VehicleResponse `json:"vehicles"`
	Visits          []VisitResponse   `json:"visits"`
}

// NewRoutePlanResponse renders an unsolved plan. Vehicles carry no assigned
// visits yet, so their visit lists are always empty.
func NewRoutePlanResponse(p *domain.RoutePlan) RoutePlanResponse {
	res := RoutePlanResponse{
		Name:            p.Name,
		SouthWestCorner: p.Bounds.SouthWest.LatLng(),
		NorthEastCorner: p.Bounds.NorthEast.LatLng(),
		StartDateTime:   LocalDateTime(p.StartDateTime),
		EndDateTime:     LocalDateTime(p.EndDateTime),
		Vehicles:        make([]VehicleResponse, 0, len(p.Vehicles)),
		Visits:          make([]VisitResponse, 0, len(p.Visits)),
	}

	for _, v := range p.Vehicles {
		res.Vehicles = append(res.Vehicles, VehicleResponse{
			ID:            v.ID,
			Capacity:      v.Capacity,
			HomeLocation:  latLng(v.HomeLocation),
			DepartureTime: LocalDateTime(v.DepartureTime),
			Visits:        []string{},
		})
	}

	for _, v := range p.Visits {
		res.Visits = append(res.Visits, VisitResponse{
			ID:              v.ID,
			Name:            v.Name,
			Location:        latLng(v.Location),
			Demand:          v.Demand,
			MinStartTime:    LocalDateTime(v.MinStartTime),
			MaxEndTime:      LocalDateTime(v.MaxEndTime),
			ServiceDuration: int64(v.ServiceDuration.Seconds()),
		})
	}

	return res
}
