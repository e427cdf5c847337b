// Command forecast synthesizes historical EV sales, forecasts 2025-2027 for
// every state, and exports the merged table as CSV.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/ev-adoption-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/ev-adoption-etl/internal/app"
	"github.com/couchcryptid/ev-adoption-etl/internal/config"
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

	policies, err := config.LoadPolicyTable(cfg.PolicyFile)
	if err != nil {
		rt.Fatal("failed to load policy table", err)
	}

	reader := csvfile.NewReader(cfg.ForecastInputPath, logger)
	transformer := pipeline.NewForecastTransformer(policies, cfg.ForecastWorkers, rt.Geocoder(), rt.Metrics, logger)
	sinks := append([]pipeline.Sink{
		{Name: "csv", Loader: csvfile.NewWriter(cfg.ForecastOutputPath, domain.ForecastLayout, logger)},
	}, rt.OptionalSinks(domain.ForecastLayout, true)...)

	p := pipeline.New("forecast", reader, transformer, sinks, logger, rt.Metrics)

	err = rt.Execute(p)
	switch {
	case err == nil:
		logger.Info("complete data saved", "path", cfg.ForecastOutputPath)
	case errors.Is(err, domain.ErrInputNotFound):
		fmt.Printf("Error: Could not find the input file at %s\n", cfg.ForecastInputPath)
	case errors.Is(err, domain.ErrOutputLocked):
		fmt.Printf("\nERROR: Access denied writing %s\n", cfg.ForecastOutputPath)
		fmt.Printf("Please close the file '%s' in Tableau/Excel and run this again.\n", cfg.ForecastOutputPath)
	default:
		rt.Fatal("forecast failed", err)
	}
}
