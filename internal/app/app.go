// Package app wires configuration, logging, metrics, and the optional
// adapters shared by the batch commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/ev-adoption-etl/internal/adapter/chart"
	kafkaadapter "github.com/couchcryptid/ev-adoption-etl/internal/adapter/kafka"
	"github.com/couchcryptid/ev-adoption-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/ev-adoption-etl/internal/config"
	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
	"github.com/couchcryptid/ev-adoption-etl/internal/observability"
	"github.com/couchcryptid/ev-adoption-etl/internal/pipeline"
)

// Runtime holds the process-wide dependencies of one command invocation.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
	RunID   string

	closers []func() error
}

// Bootstrap loads .env.local (if present) and the environment configuration,
// then builds the logger and metrics. Every log line carries the run ID.
func Bootstrap() (*Runtime, error) {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("run_id", runID)

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		RunID:   runID,
	}, nil
}

// Geocoder returns the cached Mapbox geocoder, or nil when geocoding is
// disabled (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
func (rt *Runtime) Geocoder() domain.Geocoder {
	cfg := rt.Config
	if !cfg.MapboxEnabled {
		rt.Logger.Info("mapbox geocoding disabled")
		return nil
	}
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxCountry, cfg.MapboxTimeout, rt.Metrics, rt.Logger)
	rt.Logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout, "country", cfg.MapboxCountry)
	return mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, rt.Metrics)
}

// OptionalSinks returns the configured Kafka sink and, when withChart is set,
// the chart sink.
func (rt *Runtime) OptionalSinks(layout domain.Layout, withChart bool) []pipeline.Sink {
	cfg := rt.Config
	var sinks []pipeline.Sink

	if cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(cfg, layout, rt.RunID, rt.Logger)
		rt.closers = append(rt.closers, w.Close)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: w})
		rt.Logger.Info("kafka export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if withChart && cfg.ChartPath != "" {
		sinks = append(sinks, pipeline.Sink{Name: "chart", Loader: chart.NewWriter(cfg.ChartPath, rt.Logger)})
	}
	return sinks
}

// Execute runs p under a context cancelled by SIGINT/SIGTERM and bounded by
// RunTimeout, then closes the sinks within ShutdownTimeout and writes the
// metrics textfile.
func (rt *Runtime) Execute(p *pipeline.Pipeline) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, rt.Config.RunTimeout)
	defer cancel()

	_, err := p.Run(ctx)

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	if cerr := rt.closeSinks(); cerr != nil {
		errs = append(errs, cerr)
	}
	if path := rt.Config.MetricsTextfile; path != "" {
		if merr := rt.Metrics.WriteTextfile(path); merr != nil {
			errs = append(errs, merr)
		}
	}
	return errors.Join(errs...)
}

// closeSinks closes every sink that holds a connection. Close errors are
// logged; only exceeding ShutdownTimeout fails the run.
func (rt *Runtime) closeSinks() error {
	if len(rt.closers) == 0 {
		return nil
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, closeFn := range rt.closers {
			if err := closeFn(); err != nil {
				rt.Logger.Error("sink close error", "error", err)
			}
		}
	}()

	select {
	case <-done:
		return nil
	case <-time.After(rt.Config.ShutdownTimeout):
		return fmt.Errorf("close sinks: timed out after %s", rt.Config.ShutdownTimeout)
	}
}

// Fatal logs err and exits with status 1.
func (rt *Runtime) Fatal(msg string, err error) {
	rt.Logger.Error(msg, "error", err)
	os.Exit(1)
}
