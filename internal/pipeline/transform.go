package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
	"github.com/couchcryptid/ev-adoption-etl/internal/observability"
)

// DashboardTransformer derives the readiness indicators for the dashboard
// export, with optional geocoding of each state.
type DashboardTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewDashboardTransformer creates a DashboardTransformer. Pass a nil geocoder
// to disable geocoding enrichment.
func NewDashboardTransformer(geocoder domain.Geocoder, logger *slog.Logger) *DashboardTransformer {
	return &DashboardTransformer{geocoder: geocoder, logger: logger}
}

func (t *DashboardTransformer) Transform(ctx context.Context, in domain.Table) (domain.Table, error) {
	t.logger.Info("enriching dashboard features", "rows", in.Len())
	out := domain.EnrichDashboard(in)
	out = domain.LocateStates(ctx, out, t.geocoder, t.logger)
	return out, ctx.Err()
}

// ForecastTransformer synthesizes sales history, forecasts every state, and
// recomputes the derived features over the merged table.
type ForecastTransformer struct {
	policies domain.PolicyTable
	workers  int
	geocoder domain.Geocoder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewForecastTransformer creates a ForecastTransformer. workers bounds the
// number of states forecast concurrently.
func NewForecastTransformer(policies domain.PolicyTable, workers int, geocoder domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger) *ForecastTransformer {
	return &ForecastTransformer{
		policies: policies,
		workers:  workers,
		geocoder: geocoder,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *ForecastTransformer) Transform(ctx context.Context, in domain.Table) (domain.Table, error) {
	t.logger.Info("synthesizing historical sales", "rows", in.Len())
	history := domain.SynthesizeHistory(in, t.policies)

	t.logger.Info("running trend models", "states", len(history.States()), "workers", t.workers)
	forecast, err := domain.BuildForecast(ctx, history, t.workers)
	if err != nil {
		return domain.Table{}, err
	}
	t.metrics.StatesForecast.Add(float64(len(forecast.States())))
	t.metrics.ForecastRows.Add(float64(forecast.Len()))

	t.logger.Info("calculating readiness scores and categories", "historical_rows", history.Len(), "forecast_rows", forecast.Len())
	out := domain.RecomputeFeatures(history.Concat(forecast))
	out = domain.LocateStates(ctx, out, t.geocoder, t.logger)
	return out, ctx.Err()
}
