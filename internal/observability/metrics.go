package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for one batch run.
// Each Metrics owns its registry so a run can be flushed to a textfile for the
// node_exporter textfile collector.
type Metrics struct {
	RowsExtracted *prometheus.CounterVec // labels: pipeline
	RowsLoaded    *prometheus.CounterVec // labels: pipeline, sink
	RunErrors     *prometheus.CounterVec // labels: pipeline, stage={extract,transform,load}
	RunDuration   *prometheus.HistogramVec
	LastSuccess   *prometheus.GaugeVec // labels: pipeline; unix seconds

	// Forecast metrics.
	StatesForecast prometheus.Counter
	ForecastRows   prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty,low_relevance}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates all pipeline metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ev_etl",
			Name:      "rows_extracted_total",
			Help:      "Rows read from the input file.",
		}, []string{"pipeline"}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ev_etl",
			Name:      "rows_loaded_total",
			Help:      "Rows written to each sink.",
		}, []string{"pipeline", "sink"}),
		RunErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ev_etl",
			Name:      "run_errors_total",
			Help:      "Failed runs by stage.",
		}, []string{"pipeline", "stage"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ev_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"pipeline"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ev_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"pipeline"}),
		StatesForecast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ev_etl",
			Name:      "states_forecast_total",
			Help:      "States whose trend models were fitted.",
		}),
		ForecastRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ev_etl",
			Name:      "forecast_rows_total",
			Help:      "Forecast rows emitted.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ev_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ev_etl",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ev_etl",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RowsExtracted,
		m.RowsLoaded,
		m.RunErrors,
		m.RunDuration,
		m.LastSuccess,
		m.StatesForecast,
		m.ForecastRows,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// Registry exposes the gatherer backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile atomically writes the current metric values in the Prometheus
// text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
