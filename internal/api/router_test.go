package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"route-plan-service/internal/adapters/drivingtime"
	"route-plan-service/internal/domain"
	"route-plan-service/internal/ports"
	"route-plan-service/internal/services"
)

type stubRoutes struct{}

func (stubRoutes) FetchRoute(ctx context.Context, start, end domain.Location) (*ports.RouteResponse, error) {
	return &ports.RouteResponse{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(`{"code":"Ok"}`)}, nil
}

func newTestRouter() http.Handler {
	return NewRouter(Deps{
		Uploader:       services.NewAssembler(&drivingtime.RecordingCalculator{}),
		Routes:         stubRoutes{},
		MaxUploadBytes: 1 << 20,
	})
}

func TestRouterHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestRouterKeepsInboundRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")

	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestRouterRouteProxy(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
		"/route-proxy?startLat=52.0&startLng=4.3&endLat=52.1&endLng=4.4", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != `{"code":"Ok"}` {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/upload-data", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRouterNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/plans", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("unmatched routes must still be tagged with a request id")
	}
}

func TestRouterMetrics(t *testing.T) {
	router := newTestRouter()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `http_requests_total{method="GET",route="/health",status="200"}`) {
		t.Fatalf("expected health request counter in metrics output")
	}
}
