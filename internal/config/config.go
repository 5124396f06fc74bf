// Package config loads service settings from the environment, an optional
// .env file and an optional YAML file named by CONFIG_FILE.
//
// Precedence, highest first: environment, YAML file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Driving-time matrix backing the solver: "haversine" or "ors".
	DrivingTimeProvider string  `yaml:"driving_time_provider"`
	ORSAPIKey           string  `yaml:"ors_api_key"`
	ORSBaseURL          string  `yaml:"ors_base_url"`
	AverageSpeedKmh     float64 `yaml:"average_speed_kmh"`

	// Optional driving-time caches. Postgres wins when both are set.
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`

	OSRMBaseURL         string        `yaml:"osrm_base_url"`
	RouteConnectTimeout time.Duration `yaml:"route_connect_timeout"`
	RouteRequestTimeout time.Duration `yaml:"route_request_timeout"`
	RouteProxyRPS       float64       `yaml:"route_proxy_rps"`
	RouteProxyBurst     int           `yaml:"route_proxy_burst"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

func Default() *Config {
	return &Config{
		Port:                "8080",
		DrivingTimeProvider: "haversine",
		ORSBaseURL:          "https://api.openrouteservice.org",
		AverageSpeedKmh:     50,
		RedisTTL:            24 * time.Hour,
		OSRMBaseURL:         "https://routing.openstreetmap.de/routed-car",
		RouteConnectTimeout: 10 * time.Second,
		RouteRequestTimeout: 10 * time.Second,
		RouteProxyRPS:       5,
		RouteProxyBurst:     10,
		MaxUploadBytes:      32 << 20,
	}
}

// Load builds the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeYAML(path); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %q does not exist", path)
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	return nil
}

func (c *Config) mergeEnv() error {
	c.Port = Get("PORT", c.Port)
	c.DrivingTimeProvider = Get("DRIVING_TIME_PROVIDER", c.DrivingTimeProvider)
	c.ORSAPIKey = Get("ORS_API_KEY", c.ORSAPIKey)
	c.ORSBaseURL = Get("ORS_BASE_URL", c.ORSBaseURL)
	c.DatabaseURL = Get("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = Get("REDIS_URL", c.RedisURL)
	c.OSRMBaseURL = Get("OSRM_BASE_URL", c.OSRMBaseURL)

	var err error
	if c.AverageSpeedKmh, err = floatEnv("AVERAGE_SPEED_KMH", c.AverageSpeedKmh); err != nil {
		return err
	}
	if c.RouteProxyRPS, err = floatEnv("ROUTE_PROXY_RPS", c.RouteProxyRPS); err != nil {
		return err
	}
	if c.RedisTTL, err = durationEnv("REDIS_TTL", c.RedisTTL); err != nil {
		return err
	}
	if c.RouteConnectTimeout, err = durationEnv("ROUTE_CONNECT_TIMEOUT", c.RouteConnectTimeout); err != nil {
		return err
	}
	if c.RouteRequestTimeout, err = durationEnv("ROUTE_REQUEST_TIMEOUT", c.RouteRequestTimeout); err != nil {
		return err
	}

	burst, err := intEnv("ROUTE_PROXY_BURST", int64(c.RouteProxyBurst))
	if err != nil {
		return err
	}
	c.RouteProxyBurst = int(burst)

	if c.MaxUploadBytes, err = intEnv("MAX_UPLOAD_BYTES", c.MaxUploadBytes); err != nil {
		return err
	}

	return nil
}

func (c *Config) validate() error {
	switch c.DrivingTimeProvider {
	case "haversine":
		if c.AverageSpeedKmh <= 0 {
			return fmt.Errorf("average_speed_kmh must be > 0, got %v", c.AverageSpeedKmh)
		}
	case "ors":
		if strings.TrimSpace(c.ORSAPIKey) == "" {
			return errors.New("ORS_API_KEY is required when driving_time_provider=ors")
		}
	default:
		return fmt.Errorf("unknown driving_time_provider %q (allowed: haversine, ors)", c.DrivingTimeProvider)
	}

	if c.RouteConnectTimeout <= 0 || c.RouteRequestTimeout <= 0 {
		return errors.New("route timeouts must be > 0")
	}
	if c.RouteProxyRPS <= 0 || c.RouteProxyBurst < 1 {
		return errors.New("route proxy rate limit must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be > 0")
	}

	return nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
