package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"route-plan-service/internal/api/handlers"
	"route-plan-service/internal/platform/metrics"
	"route-plan-service/internal/ports"
)

// Dependencies of the HTTP surface. Handlers stay unaware of concrete adapters.
type Deps struct {
	Uploader       handlers.PlanUploader
	Routes         ports.RouteGeometryProvider
	RouteLimiter   *rate.Limiter
	MaxUploadBytes int64
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
func NewRouter(d Deps) http.Handler {
	uploadHandler := &handlers.UploadHandler{Uploader: d.Uploader, MaxBytes: d.MaxUploadBytes}
	routeHandler := &handlers.RouteProxyHandler{Provider: d.Routes, Limiter: d.RouteLimiter}

	r := mux.NewRouter()
	r.Use(requestMiddleware)

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/upload-data", uploadHandler.Upload).Methods(http.MethodPost)
	r.HandleFunc("/route-proxy", routeHandler.Route).Methods(http.MethodGet)

	// Router-level middleware only runs for matched routes.
	r.NotFoundHandler = requestMiddleware(http.HandlerFunc(handlers.NotFound))
	r.MethodNotAllowedHandler = requestMiddleware(http.HandlerFunc(handlers.MethodNotAllowed))

	return r
}
