package drivingtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"route-plan-service/internal/domain"
	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/ports"
)

// ORSCalculator fills the driving-time matrix from the OpenRouteService
// matrix endpoint.
//
// It coordinates:
//   - Persistent driving-time caching (optional)
//   - A single matrix request covering every cache miss
//
// The calculator is safe for concurrent use.
type ORSCalculator struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	cache   ports.DrivingTimeCache
	matrix
}

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

func NewORSCalculator(apiKey, baseURL string, cache ports.DrivingTimeCache) (*ORSCalculator, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openrouteservice.org"
	}

	return &ORSCalculator{
		session: &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving-car",
		cache:   cache,
	}, nil
}

func (o *ORSCalculator) InitDrivingTimeMaps(ctx context.Context, locations []*domain.Location) (err error) {
	defer obs.Time(ctx, "ors.InitDrivingTimeMaps")(&err)

	// Any miss costs one request, which returns the whole matrix anyway.
	fetchAll := func(ctx context.Context, _ []ports.LocationPair) (map[ports.LocationPair]ports.DistanceResult, error) {
		return o.fetchMatrix(ctx, locations)
	}

	if err := o.fill(ctx, o.cache, orderedPairs(locations), fetchAll); err != nil {
		return fmt.Errorf("ORS init: %w", err)
	}
	return nil
}

// fetchMatrix retrieves the full distance and duration matrix for locations.
func (o *ORSCalculator) fetchMatrix(
	ctx context.Context,
	locations []*domain.Location,
) (map[ports.LocationPair]ports.DistanceResult, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	coords := make([][]float64, 0, len(locations))
	for _, l := range locations {
		coords = append(coords, l.CoordsToList())
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: coords,
		Metrics:   []string{"distance", "duration"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("matrix request: create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	// Sent once; no retry.
	resp, err := o.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &matrixStatusError{
			Endpoint:  endpoint,
			Locations: len(locations),
			Code:      resp.StatusCode,
			Body:      strings.TrimSpace(string(b)),
		}
	}

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	n := len(locations)
	if len(mr.Distances) != n || len(mr.Durations) != n {
		return nil, fmt.Errorf(
			"expected %d matrix rows; got distances=%d durations=%d",
			n, len(mr.Distances), len(mr.Durations),
		)
	}

	out := make(map[ports.LocationPair]ports.DistanceResult, n*(n-1))
	for i, from := range locations {
		if len(mr.Distances[i]) != n || len(mr.Durations[i]) != n {
			return nil, fmt.Errorf("matrix row %d has wrong length", i)
		}

		for j, to := range locations {
			if i == j {
				continue
			}

			metersPtr := mr.Distances[i][j]
			secondsPtr := mr.Durations[i][j]
			if metersPtr == nil || secondsPtr == nil {
				return nil, fmt.Errorf("matrix returned no route from %v to %v", from.LatLng(), to.LatLng())
			}

			// ORS returns float metrics; round to nearest integer for domain consistency.
			out[ports.LocationPair{From: *from, To: *to}] = ports.DistanceResult{
				DistanceMeters:  int(math.Round(*metersPtr)),
				DurationSeconds: int(math.Round(*secondsPtr)),
			}
		}
	}

	return out, nil
}

// matrixStatusError is an ORS matrix response with status >= 400.
type matrixStatusError struct {
	Endpoint  string
	Locations int
	Code      int
	Body      string
}

func (e *matrixStatusError) Error() string {
	return fmt.Sprintf("ORS matrix %s (%d locations): status %d: %s", e.Endpoint, e.Locations, e.Code, e.Body)
}
