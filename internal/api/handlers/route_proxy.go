package handlers

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"route-plan-service/internal/domain"
	"route-plan-service/internal/platform/metrics"
	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/ports"
)

// RouteProxyHandler relays driving route geometry requests to the routing service.
type RouteProxyHandler struct {
	Provider ports.RouteGeometryProvider
	// Optional; nil disables inbound rate limiting.
	Limiter *rate.Limiter
}

// Route serves GET /route-proxy?startLat=&startLng=&endLat=&endLng=.
// The upstream status and body are passed through unchanged.
func (h *RouteProxyHandler) Route(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRouteQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid coordinates", err.Error())
		return
	}

	if h.Limiter != nil && !h.Limiter.Allow() {
		metrics.RouteProxyUpstream.WithLabelValues("rate_limited").Inc()
		w.Header().Set("Retry-After", "1")
		writeError(w, r, http.StatusTooManyRequests, "too many requests", "route proxy rate limit exceeded")
		return
	}

	res, err := h.Provider.FetchRoute(r.Context(), start, end)
	if err != nil {
		metrics.RouteProxyUpstream.WithLabelValues("transport_error").Inc()
		log.Printf("req_id=%s route proxy failed: err=%v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch route", err.Error())
		return
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		metrics.RouteProxyUpstream.WithLabelValues("2xx").Inc()
	} else {
		metrics.RouteProxyUpstream.WithLabelValues("non_2xx").Inc()
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(res.StatusCode)
	if _, err := w.Write(res.Body); err != nil {
		log.Printf("req_id=%s route proxy write failed: err=%v", obs.RequestID(r.Context()), err)
	}
}

func parseRouteQuery(q url.Values) (start, end domain.Location, err error) {
	var vals [4]float64
	for i, name := range []string{"startLat", "startLng", "endLat", "endLng"} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return start, end, fmt.Errorf("%s is required", name)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return start, end, fmt.Errorf("%s must be a finite number, got %q", name, raw)
		}
		vals[i] = f
	}

	start = domain.Location{Latitude: vals[0], Longitude: vals[1]}
	end = domain.Location{Latitude: vals[2], Longitude: vals[3]}
	return start, end, nil
}
