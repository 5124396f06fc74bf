package osrm

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"route-plan-service/internal/domain"
	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/ports"
)

const DefaultBaseURL = "https://routing.openstreetmap.de/routed-car"

// Upper bound on relayed route bodies. Larger bodies are an error, never truncated.
const maxBodyBytes = 16 << 20

// Client fetches driving route geometries from an OSRM-compatible server.
//
// It keeps no state besides an immutable http.Client and is safe for
// concurrent use. Requests are never retried.
type Client struct {
	session *http.Client
	baseURL string
}

// NewClient bounds connection establishment by connectTimeout and the whole
// request/response round trip by requestTimeout.
func NewClient(baseURL string, connectTimeout, requestTimeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = connectTimeout

	return &Client{
		session: &http.Client{Transport: transport, Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// routeURL encodes both points longitude first, as OSRM expects.
func (c *Client) routeURL(start, end domain.Location) string {
	return fmt.Sprintf(
		"%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, start.Longitude, start.Latitude, end.Longitude, end.Latitude,
	)
}

// FetchRoute returns the upstream response verbatim, whatever its status.
// Transport failures (timeouts, DNS, refused connections) are reported as
// errors wrapping domain.ErrExternalService.
func (c *Client) FetchRoute(ctx context.Context, start, end domain.Location) (_ *ports.RouteResponse, err error) {
	defer obs.Time(ctx, "osrm.FetchRoute")(&err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(start, end), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch route: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch route: %w: %w", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch route: read body: %w: %w", domain.ErrExternalService, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf(
			"fetch route: %w: upstream body exceeds %d bytes",
			domain.ErrExternalService, maxBodyBytes,
		)
	}

	return &ports.RouteResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
