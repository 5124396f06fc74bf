package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"route-plan-service/internal/adapters/osrm"
	"route-plan-service/internal/domain"
	"route-plan-service/internal/ports"
)

type fakeRouteProvider struct {
	res   *ports.RouteResponse
	err   error
	calls int
	start domain.Location
	end   domain.Location
}

func (f *fakeRouteProvider) FetchRoute(ctx context.Context, start, end domain.Location) (*ports.RouteResponse, error) {
	f.calls++
	f.start, f.end = start, end
	return f.res, f.err
}

const validRouteQuery = "/route-proxy?startLat=52.0116&startLng=4.3571&endLat=52.0705&endLng=4.3007"

func TestRouteProxyPassthrough(t *testing.T) {
	body := `{"code":"Ok","routes":[]}`
	p := &fakeRouteProvider{res: &ports.RouteResponse{StatusCode: http.StatusOK, ContentType: "application/json; charset=utf-8", Body: []byte(body)}}
	h := &RouteProxyHandler{Provider: p}

	rr := httptest.NewRecorder()
	h.Route(rr, httptest.NewRequest(http.MethodGet, validRouteQuery, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != body {
		t.Fatalf("body = %q, want %q", rr.Body.String(), body)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}

	wantStart := domain.Location{Latitude: 52.0116, Longitude: 4.3571}
	wantEnd := domain.Location{Latitude: 52.0705, Longitude: 4.3007}
	if p.start != wantStart || p.end != wantEnd {
		t.Fatalf("provider got %v -> %v", p.start, p.end)
	}
}

func TestRouteProxyUpstreamErrorStatus(t *testing.T) {
	body := `{"code":"NoRoute","message":"Impossible route between points"}`
	p := &fakeRouteProvider{res: &ports.RouteResponse{StatusCode: http.StatusBadRequest, Body: []byte(body)}}
	h := &RouteProxyHandler{Provider: p}

	rr := httptest.NewRecorder()
	h.Route(rr, httptest.NewRequest(http.MethodGet, validRouteQuery, nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected upstream 400 relayed, got %d", rr.Code)
	}
	if rr.Body.String() != body {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestRouteProxyTransportError(t *testing.T) {
	p := &fakeRouteProvider{err: fmt.Errorf("%w: context deadline exceeded", domain.ErrExternalService)}
	h := &RouteProxyHandler{Provider: p}

	rr := httptest.NewRecorder()
	h.Route(rr, httptest.NewRequest(http.MethodGet, validRouteQuery, nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	res := decodeError(t, rr)
	if res.Error != "Failed to fetch route" {
		t.Fatalf("error = %q", res.Error)
	}
	if res.Details == "" {
		t.Fatalf("expected non-empty details")
	}
}

func TestRouteProxyBadParams(t *testing.T) {
	for _, target := range []string{
		"/route-proxy",
		"/route-proxy?startLat=52&startLng=4&endLat=52",
		"/route-proxy?startLat=abc&startLng=4&endLat=52&endLng=4",
		"/route-proxy?startLat=NaN&startLng=4&endLat=52&endLng=4",
	} {
		p := &fakeRouteProvider{}
		h := &RouteProxyHandler{Provider: p}

		rr := httptest.NewRecorder()
		h.Route(rr, httptest.NewRequest(http.MethodGet, target, nil))

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rr.Code)
		}
		if p.calls != 0 {
			t.Fatalf("%s: upstream must not be called", target)
		}
	}
}

func TestRouteProxyRateLimited(t *testing.T) {
	p := &fakeRouteProvider{res: &ports.RouteResponse{StatusCode: http.StatusOK, Body: []byte("{}")}}
	h := &RouteProxyHandler{Provider: p, Limiter: rate.NewLimiter(rate.Limit(0.001), 1)}

	first := httptest.NewRecorder()
	h.Route(first, httptest.NewRequest(http.MethodGet, validRouteQuery, nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first call 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.Route(second, httptest.NewRequest(http.MethodGet, validRouteQuery, nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if p.calls != 1 {
		t.Fatalf("upstream called %d times, want 1", p.calls)
	}
}

func TestRouteProxyUpstreamTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	h := &RouteProxyHandler{Provider: osrm.NewClient(upstream.URL, time.Second, 50*time.Millisecond)}

	rr := httptest.NewRecorder()
	h.Route(rr, httptest.NewRequest(http.MethodGet, validRouteQuery, nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rr.Code, rr.Body.String())
	}
	res := decodeError(t, rr)
	if res.Error != "Failed to fetch route" {
		t.Fatalf("error = %q", res.Error)
	}
	if res.Details == "" {
		t.Fatalf("expected non-empty details")
	}
}
