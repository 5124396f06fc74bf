package ports

import (
	"context"
	"route-plan-service/internal/domain"
)

// Upstream route response, relayed to the caller unchanged.
type RouteResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Port: retrieves a driving route geometry between two points.
type RouteGeometryProvider interface {
	// Return the upstream response for any HTTP status. An error means no
	// response was obtained (timeout, DNS, refused connection).
	FetchRoute(ctx context.Context, start, end domain.Location) (*RouteResponse, error)
}
