// Command enrich derives EV readiness indicators from the historical
// charging-infrastructure table and exports a dashboard workbook.
package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/ev-adoption-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/ev-adoption-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/ev-adoption-etl/internal/app"
	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
	"github.com/couchcryptid/ev-adoption-etl/internal/pipeline"
)

func main() {
	rt, err := app.Bootstrap()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg, logger := rt.Config, rt.Logger

	reader := csvfile.NewReader(cfg.EnrichInputPath, logger)
	transformer := pipeline.NewDashboardTransformer(rt.Geocoder(), logger)
	sinks := append([]pipeline.Sink{
		{Name: "xlsx", Loader: xlsx.NewWriter(cfg.EnrichOutputPath, domain.DashboardLayout, logger)},
	}, rt.OptionalSinks(domain.DashboardLayout, false)...)

	p := pipeline.New("dashboard", reader, transformer, sinks, logger, rt.Metrics)

	if err := rt.Execute(p); err != nil {
		rt.Fatal("dashboard enrichment failed", err)
	}
	logger.Info("dashboard export saved", "path", cfg.EnrichOutputPath)
}
