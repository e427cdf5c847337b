package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	EnrichInputPath    string
	EnrichOutputPath   string
	ForecastInputPath  string
	ForecastOutputPath string
	PolicyFile         string
	ForecastWorkers    int
	ChartPath          string
	MetricsTextfile    string

	LogLevel  string
	LogFormat string

	// RunTimeout is the deadline for the whole run, extract through load.
	RunTimeout      time.Duration
	// ShutdownTimeout bounds closing the sinks after the run ends.
	ShutdownTimeout time.Duration

	// Kafka export is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxCountry   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	runTimeout, err := parseRunTimeout()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err := time.ParseDuration(mapboxTimeoutStr)
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	workers, err := parseForecastWorkers()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		EnrichInputPath:    sharedcfg.EnvOrDefault("ENRICH_INPUT_PATH", "ev_final_predictive_model_V3.csv"),
		EnrichOutputPath:   sharedcfg.EnvOrDefault("ENRICH_OUTPUT_PATH", "ev_dashboard_ready_data.xlsx"),
		ForecastInputPath:  sharedcfg.EnvOrDefault("FORECAST_INPUT_PATH", "ev_final_predictive_model_o.csv"),
		ForecastOutputPath: sharedcfg.EnvOrDefault("FORECAST_OUTPUT_PATH", "ev_final_predictive_model_v5.csv"),
		PolicyFile:         os.Getenv("POLICY_FILE"),
		ForecastWorkers:    workers,
		ChartPath:          os.Getenv("CHART_PATH"),
		MetricsTextfile:    os.Getenv("METRICS_TEXTFILE"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		RunTimeout:         runTimeout,
		ShutdownTimeout:    shutdownTimeout,
		KafkaBrokers:       sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "ev-adoption-export"),
		BatchSize:          batchSize,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		MapboxCountry:   sharedcfg.EnvOrDefault("MAPBOX_COUNTRY", "in"),
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether exported rows should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseRunTimeout() (time.Duration, error) {
	s := sharedcfg.EnvOrDefault("RUN_TIMEOUT", "30m")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid RUN_TIMEOUT %q: must be a positive duration", s)
	}
	return d, nil
}

func parseForecastWorkers() (int, error) {
	s := os.Getenv("FORECAST_WORKERS")
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 64 {
		return 0, fmt.Errorf("invalid FORECAST_WORKERS %q: must be 1-64", s)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
