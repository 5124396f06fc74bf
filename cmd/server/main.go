package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"route-plan-service/internal/adapters/cache"
	"route-plan-service/internal/adapters/drivingtime"
	"route-plan-service/internal/adapters/osrm"
	"route-plan-service/internal/api"
	"route-plan-service/internal/config"
	"route-plan-service/internal/platform/db"
	"route-plan-service/internal/platform/metrics"
	"route-plan-service/internal/ports"
	"route-plan-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (driving-time provider, caches, OSRM) behind ports and starts the HTTP server.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dtCache, closeCache, err := openDrivingTimeCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	calculator, err := newCalculator(cfg, dtCache)
	if err != nil {
		return err
	}

	metrics.RegisterDefault()

	router := api.NewRouter(api.Deps{
		Uploader:       services.NewAssembler(calculator),
		Routes:         osrm.NewClient(cfg.OSRMBaseURL, cfg.RouteConnectTimeout, cfg.RouteRequestTimeout),
		RouteLimiter:   rate.NewLimiter(rate.Limit(cfg.RouteProxyRPS), cfg.RouteProxyBurst),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// Write timeout covers cold-cache matrix initialization on upload.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening addr=:%s provider=%s", cfg.Port, cfg.DrivingTimeProvider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openDrivingTimeCache picks Postgres when DATABASE_URL is set, else Redis
// when REDIS_URL is set, else no cache.
func openDrivingTimeCache(ctx context.Context, cfg *config.Config) (ports.DrivingTimeCache, func(), error) {
	noop := func() {}

	switch {
	case cfg.DatabaseURL != "":
		sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := cache.InitSchema(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, noop, err
		}
		log.Println("driving time cache=postgres")
		return cache.NewSQLDrivingTimeCache(sqlDB), closer("postgres", sqlDB), nil

	case cfg.RedisURL != "":
		rc, err := cache.NewRedisDrivingTimeCacheFromURL(cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			return nil, noop, err
		}
		log.Println("driving time cache=redis")
		return rc, closer("redis", rc), nil

	default:
		return nil, noop, nil
	}
}

func closer(name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Printf("close %s: %v", name, err)
		}
	}
}

func newCalculator(cfg *config.Config, dtCache ports.DrivingTimeCache) (ports.DrivingTimeCalculator, error) {
	switch cfg.DrivingTimeProvider {
	case "ors":
		return drivingtime.NewORSCalculator(cfg.ORSAPIKey, cfg.ORSBaseURL, dtCache)
	default:
		return drivingtime.NewHaversineCalculator(cfg.AverageSpeedKmh, dtCache)
	}
}
