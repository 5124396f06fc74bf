package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"route-plan-service/internal/domain"
)

const vehiclesCSV = `id,capacity,home_latitude,home_longitude,departure_time
V1, 10, 52.1, 4.3, 2024-01-01T08:00:00
V2,20,52.2,4.4,2024-01-01T07:30
V3,5,52.1,4.3,2024-01-01T09:15:30.5
`

const visitsCSV = `id,name,latitude,longitude,demand,min_start_time,max_end_time,service_duration_minutes
T1,Stop,52.1,4.3,2,2024-01-01T09:00:00,2024-01-01T10:00:00,15
T2,"Bakery, Main St",52.3,4.5,1,2024-01-01T11:00:00,2024-01-01T12:30:00,0
`

func TestParseVehicles(t *testing.T) {
	reg := NewLocationRegistry()

	vehicles, err := ParseVehicles(strings.NewReader(vehiclesCSV), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vehicles) != 3 {
		t.Fatalf("expected 3 vehicles, got %d", len(vehicles))
	}

	for i, want := range []string{"V1", "V2", "V3"} {
		if vehicles[i].ID != want {
			t.Fatalf("vehicle %d id = %q, want %q", i, vehicles[i].ID, want)
		}
	}

	if vehicles[0].Capacity != 10 {
		t.Fatalf("capacity = %d, want 10", vehicles[0].Capacity)
	}
	if vehicles[0].HomeLocation != vehicles[2].HomeLocation {
		t.Fatalf("expected V1 and V3 to share a home location")
	}
	if reg.Len() != 2 {
		t.Fatalf("registry len = %d, want 2", reg.Len())
	}

	wantDeparture := time.Date(2024, 1, 1, 7, 30, 0, 0, time.Local)
	if !vehicles[1].DepartureTime.Equal(wantDeparture) {
		t.Fatalf("departure = %v, want %v", vehicles[1].DepartureTime, wantDeparture)
	}

	wantFractional := time.Date(2024, 1, 1, 9, 15, 30, 500_000_000, time.Local)
	if !vehicles[2].DepartureTime.Equal(wantFractional) {
		t.Fatalf("departure = %v, want %v", vehicles[2].DepartureTime, wantFractional)
	}
}

func TestParseVisits(t *testing.T) {
	reg := NewLocationRegistry()

	visits, err := ParseVisits(strings.NewReader(visitsCSV), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(visits) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(visits))
	}

	v := visits[0]
	if v.ID != "T1" || v.Name != "Stop" || v.Demand != 2 {
		t.Fatalf("unexpected visit %+v", v)
	}
	if v.ServiceDuration != 15*time.Minute {
		t.Fatalf("service duration = %v, want 15m", v.ServiceDuration)
	}
	if visits[1].Name != "Bakery, Main St" {
		t.Fatalf("quoted name = %q", visits[1].Name)
	}
	if visits[1].ServiceDuration != 0 {
		t.Fatalf("service duration = %v, want 0", visits[1].ServiceDuration)
	}
}

func TestParseVisitsColumnOrderIndependent(t *testing.T) {
	const csv = `max_end_time,min_start_time,id,name,longitude,latitude,service_duration_minutes,demand
2024-01-01T10:00:00,2024-01-01T09:00:00,T1,Stop,4.3,52.1,15,2
`
	visits, err := ParseVisits(strings.NewReader(csv), NewLocationRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if visits[0].Location.Latitude != 52.1 || visits[0].Location.Longitude != 4.3 {
		t.Fatalf("unexpected location %+v", visits[0].Location)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	vehicles, err := ParseVehicles(strings.NewReader("id,capacity,home_latitude,home_longitude,departure_time\n"), NewLocationRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vehicles) != 0 {
		t.Fatalf("expected no vehicles, got %d", len(vehicles))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		parse    func(string) error
		input    string
		wantKind error
		wantLine int
		wantCol  string
	}{
		{
			name:     "non numeric capacity",
			parse:    parseVehicles,
			input:    "id,capacity,home_latitude,home_longitude,departure_time\nV1,ten,52.1,4.3,2024-01-01T08:00:00\n",
			wantKind: domain.ErrMalformedRecord,
			wantLine: 2,
			wantCol:  "capacity",
		},
		{
			name:     "bad timestamp",
			parse:    parseVehicles,
			input:    "id,capacity,home_latitude,home_longitude,departure_time\nV1,1,52.1,4.3,2024-01-01 08:00\n",
			wantKind: domain.ErrMalformedRecord,
			wantLine: 2,
			wantCol:  "departure_time",
		},
		{
			name:     "negative capacity",
			parse:    parseVehicles,
			input:    "id,capacity,home_latitude,home_longitude,departure_time\nV1,-1,52.1,4.3,2024-01-01T08:00:00\n",
			wantKind: domain.ErrMalformedRecord,
			wantLine: 2,
			wantCol:  "capacity",
		},
		{
			name:     "latitude out of range",
			parse:    parseVehicles,
			input:    "id,capacity,home_latitude,home_longitude,departure_time\nV1,1,95,4.3,2024-01-01T08:00:00\n",
			wantKind: domain.ErrMalformedRecord,
			wantLine: 2,
			wantCol:  "home_latitude",
		},
		{
			name:     "missing column",
			parse:    parseVehicles,
			input:    "id,capacity,home_latitude,departure_time\nV1,1,52.1,2024-01-01T08:00:00\n",
			wantKind: domain.ErrMissingInput,
		},
		{
			name:     "empty file",
			parse:    parseVisits,
			input:    "",
			wantKind: domain.ErrMissingInput,
		},
		{
			name:     "wrong field count",
			parse:    parseVisits,
			input:    "id,name,latitude,longitude,demand,min_start_time,max_end_time,service_duration_minutes\nT1,Stop,52.1\n",
			wantKind: domain.ErrMalformedRecord,
			wantLine: 2,
		},
		{
			name:     "time window reversed",
			parse:    parseVisits,
			input:    "id,name,latitude,longitude,demand,min_start_time,max_end_time,service_duration_minutes\nT1,Stop,52.1,4.3,1,2024-01-01T10:00:00,2024-01-01T09:00:00,15\n",
			wantKind: domain.ErrMalformedRecord,
			wantLine: 2,
			wantCol:  "max_end_time",
		},
		{
			name:     "negative service duration",
			parse:    parseVisits,
			input:    "id,name,latitude,longitude,demand,min_start_time,max_end_time,service_duration_minutes\nT1,Stop,52.1,4.3,1,2024-01-01T09:00:00,2024-01-01T10:00:00,-5\n",
			wantKind: domain.ErrMalformedRecord,
			wantLine: 2,
			wantCol:  "service_duration_minutes",
		},
		{
			name:     "fails on later row",
			parse:    parseVisits,
			input:    "id,name,latitude,longitude,demand,min_start_time,max_end_time,service_duration_minutes\nT1,Stop,52.1,4.3,1,2024-01-01T09:00:00,2024-01-01T10:00:00,5\nT2,Stop,52.1,4.3,x,2024-01-01T09:00:00,2024-01-01T10:00:00,5\n",
			wantKind: domain.ErrMalformedRecord,
			wantLine: 3,
			wantCol:  "demand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.input)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("expected %v, got %v", tt.wantKind, err)
			}

			if tt.wantLine == 0 {
				return
			}

			var re *domain.RecordError
			if !errors.As(err, &re) {
				t.Fatalf("expected *domain.RecordError, got %T", err)
			}
			if re.Line != tt.wantLine {
				t.Fatalf("line = %d, want %d", re.Line, tt.wantLine)
			}
			if re.Column != tt.wantCol {
				t.Fatalf("column = %q, want %q", re.Column, tt.wantCol)
			}
		})
	}
}

func TestParseNilInput(t *testing.T) {
	if _, err := ParseVehicles(nil, NewLocationRegistry()); !errors.Is(err, domain.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func parseVehicles(s string) error {
	_, err := ParseVehicles(strings.NewReader(s), NewLocationRegistry())
	return err
}

func parseVisits(s string) error {
	_, err := ParseVisits(strings.NewReader(s), NewLocationRegistry())
	return err
}
